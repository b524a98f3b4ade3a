package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/infra/adapters/cached"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/infra/adapters/sqlite"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/infra/httpx"
	"github.com/jcmexdev/ecommerce-storefront/internal/auth"
	"github.com/jcmexdev/ecommerce-storefront/internal/basket"
	"github.com/jcmexdev/ecommerce-storefront/internal/checkout"
	"github.com/jcmexdev/ecommerce-storefront/internal/config"
	sagasqlite "github.com/jcmexdev/ecommerce-storefront/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/cache"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/ecommerce-storefront/internal/pricing"
	"github.com/jcmexdev/ecommerce-storefront/internal/shipping"
)

const (
	productCacheTTL = 5 * time.Minute
	healthInterval  = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	telemetry.InitLogger(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sagaLog, err := sagasqlite.New(store.DB())
	if err != nil {
		slog.Error("failed to prepare saga log", "error", err)
		os.Exit(1)
	}

	c := newCache(ctx, cfg.RedisAddr)
	metrics := telemetry.NewMetrics()

	catalogue := cached.NewCatalogue(store, c, productCacheTTL)
	strategy := pricing.NewStrategy(cfg.DefaultCurrency, cfg.TaxRate)
	shippingRepo := shipping.NewRepository(strategy, cfg.FixedShippingCharge, cfg.FreeShippingThreshold)
	baskets := basket.NewService(store, catalogue, store, strategy)
	checkoutSvc := checkout.NewService(
		checkout.Config{
			AllowAnonymous: cfg.AllowAnonCheckout,
			InitialStatus:  cfg.InitialOrderStatus,
			Currency:       cfg.DefaultCurrency,
		},
		checkout.Repositories{Baskets: store, Catalogue: catalogue, Orders: store, Stock: store, Vouchers: store},
		baskets,
		shippingRepo,
		sagaLog,
		c,
		metrics,
	)

	handler := httpx.NewHandler(httpx.Deps{
		Catalogue:          catalogue,
		Baskets:            store,
		Orders:             store,
		Users:              store,
		BasketService:      baskets,
		Checkout:           checkoutSvc,
		Shipping:           shippingRepo,
		Strategy:           strategy,
		Authenticator:      auth.NewAuthenticator(store, cfg.BlockAdminAPIAccess),
		Sessions:           auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, c),
		PaymentURLTemplate: cfg.PaymentURLTemplate,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(httpx.NewRouter(handler, metrics), cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		slog.Info("storefront api running", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		grpcServer, err = serveHealth(ctx, cfg.GRPCAddr, store, errCh)
		if err != nil {
			slog.Error("failed to listen", "addr", cfg.GRPCAddr, "error", err)
			os.Exit(1)
		}
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		slog.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}

// newCache uses Redis when an address is configured and reachable, and an
// in-process cache otherwise.
func newCache(ctx context.Context, addr string) cache.Cache {
	if addr == "" {
		slog.Info("REDIS_ADDR not set, using in-memory cache")
		return cache.NewMemoryCache("storefront")
	}
	c := cache.NewRedisCache(addr, "storefront")
	if p, ok := c.(interface{ Ping(context.Context) error }); ok {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			slog.Warn("redis unreachable, using in-memory cache", "addr", addr, "error", err)
			return cache.NewMemoryCache("storefront")
		}
	}
	return c
}

// serveHealth runs the gRPC health service. The status watcher stops when
// ctx is cancelled.
func serveHealth(ctx context.Context, addr string, store *sqlite.Store, errCh chan<- error) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.TraceServerInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	go watchHealth(ctx, hs, store, healthInterval)

	go func() {
		slog.Info("grpc health service running", "addr", addr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}()
	return grpcServer, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// watchHealth reports SERVING while db answers pings, rechecking every
// interval until ctx is done.
func watchHealth(ctx context.Context, hs *health.Server, db pinger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		status := healthpb.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := db.Ping(pingCtx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		cancel()
		hs.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
