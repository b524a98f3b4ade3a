// Package checkout turns an open basket into an order. Amounts sent by the
// client are only compared against what the server computes, never trusted.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"
	"github.com/jcmexdev/ecommerce-storefront/internal/basket"
	"github.com/jcmexdev/ecommerce-storefront/internal/coordinator"
	"github.com/jcmexdev/ecommerce-storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/cache"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/ecommerce-storefront/internal/shipping"
)

// OrderNumberOffset is added to the basket id to form the order number.
const OrderNumberOffset = 100000

const idempotencyTTL = 24 * time.Hour

var tracer = otel.Tracer("github.com/jcmexdev/ecommerce-storefront/internal/checkout")

type Config struct {
	AllowAnonymous bool
	InitialStatus  string
	// Currency is assumed for posted prices that name none.
	Currency string
}

// Repositories groups the stores checkout reads and writes.
type Repositories struct {
	Baskets   ports.BasketRepository
	Catalogue ports.CatalogueRepository
	Orders    ports.OrderRepository
	Stock     ports.StockRepository
	Vouchers  ports.VoucherRepository
}

type Service struct {
	cfg        Config
	baskets    *basket.Service
	shipping   *shipping.Repository
	basketRepo ports.BasketRepository
	catalogue  ports.CatalogueRepository
	orders     ports.OrderRepository
	stock      ports.StockRepository
	vouchers   ports.VoucherRepository
	sagaLog    sagalog.Repository
	cache      cache.Cache
	metrics    *telemetry.Metrics
}

// NewService wires checkout. sagaLog and metrics may be nil.
func NewService(
	cfg Config,
	repos Repositories,
	baskets *basket.Service,
	shippingRepo *shipping.Repository,
	sagaLog sagalog.Repository,
	c cache.Cache,
	metrics *telemetry.Metrics,
) *Service {
	if cfg.InitialStatus == "" {
		cfg.InitialStatus = "new"
	}
	return &Service{
		cfg:        cfg,
		baskets:    baskets,
		shipping:   shippingRepo,
		basketRepo: repos.Baskets,
		catalogue:  repos.Catalogue,
		orders:     repos.Orders,
		stock:      repos.Stock,
		vouchers:   repos.Vouchers,
		sagaLog:    sagaLog,
		cache:      c,
		metrics:    metrics,
	}
}

// Checkout validates req and places the order. A non-empty idempotencyKey
// makes repeated submissions return the order placed by the first one.
func (s *Service) Checkout(ctx context.Context, p entity.Principal, req Request, idempotencyKey string) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout.Checkout")
	defer span.End()

	var cacheKey string
	if idempotencyKey != "" {
		cacheKey = s.cache.GenerateKey("checkout", principalScope(p)+":"+idempotencyKey)
		number, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
		} else if number != "" {
			order, err := s.orders.GetOrderByNumber(ctx, number)
			if err == nil {
				span.SetAttributes(attribute.Bool("checkout.replayed", true))
				slog.InfoContext(ctx, "replayed checkout", "order_number", number)
				return order, nil
			}
			if !errors.Is(err, entity.ErrNotFound) {
				return nil, err
			}
		}
	}

	v, err := s.Validate(ctx, p, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	order, err := s.Place(ctx, v)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("order.number", order.Number))

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, order.Number, idempotencyTTL); err != nil {
			slog.WarnContext(ctx, "idempotency store failed", "order_number", order.Number, "error", err)
		}
	}
	return order, nil
}

func principalScope(p entity.Principal) string {
	if p.User != nil {
		return "user-" + strconv.FormatInt(p.User.ID, 10)
	}
	if p.BasketID != nil {
		return "basket-" + strconv.FormatInt(*p.BasketID, 10)
	}
	return "anonymous"
}

// OrderNumber derives an order number from a basket id.
func OrderNumber(basketID int64) string {
	return strconv.FormatInt(OrderNumberOffset+basketID, 10)
}

// Place writes the order for a validated checkout. Stock allocation, the
// order write, voucher usage and basket submission run as one saga, so a
// failure part way leaves no trace apart from the saga log.
func (s *Service) Place(ctx context.Context, v *Validated) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout.Place")
	defer span.End()

	order, err := s.buildOrder(ctx, v)
	if err != nil {
		return nil, err
	}

	allocations := make([]coordinator.Allocation, 0, len(v.Priced.Lines))
	for _, l := range v.Priced.Lines {
		allocations = append(allocations, coordinator.Allocation{
			StockRecordID: l.StockRecordID,
			Quantity:      l.Quantity,
			Enforce:       l.Product == nil || l.Product.TracksStock(),
		})
	}
	voucherIDs := make([]int64, 0, len(v.Priced.VoucherDiscounts))
	for _, vd := range v.Priced.VoucherDiscounts {
		voucherIDs = append(voucherIDs, vd.Voucher.ID)
	}

	steps := []coordinator.Step{
		coordinator.NewAllocateStockStep(s.stock, allocations),
		coordinator.NewCreateOrderStep(s.orders, order),
		coordinator.NewRecordVoucherUsageStep(s.vouchers, voucherIDs, v.Principal.UserID(), order),
		coordinator.NewSubmitBasketStep(s.basketRepo, v.Basket.ID, v.Basket.Status),
	}

	saga := coordinator.NewOrchestrator(order.Number, steps, s.sagaLog).WithPayload(sagaPayload(order))
	if err := saga.Start(ctx); err != nil {
		span.RecordError(err)
		var na *entity.NotAcceptableError
		if errors.As(err, &na) {
			return nil, s.reject(ctx, "placement", na)
		}
		slog.ErrorContext(ctx, "order placement failed", "order_number", order.Number, "error", err)
		return nil, s.reject(ctx, "placement", &entity.NotAcceptableError{Reason: "Order could not be placed"})
	}

	if s.metrics != nil {
		s.metrics.OrdersPlaced.Inc()
	}
	slog.InfoContext(ctx, "order placed",
		"order_number", order.Number,
		"basket_id", v.Basket.ID,
		"total_incl_tax", order.TotalInclTax.StringFixed(2),
	)
	return order, nil
}

func (s *Service) buildOrder(ctx context.Context, v *Validated) (*entity.Order, error) {
	total := v.OrderTotal()
	basketID := v.Basket.ID
	order := &entity.Order{
		Number:          OrderNumber(basketID),
		BasketID:        &basketID,
		UserID:          v.Principal.UserID(),
		Currency:        v.Priced.Currency,
		TotalInclTax:    total.InclTax,
		TotalExclTax:    total.ExclTax,
		ShippingInclTax: v.ShippingCharge.InclTax,
		ShippingExclTax: v.ShippingCharge.ExclTax,
		ShippingMethod:  v.ShippingMethod.Name(),
		ShippingCode:    v.ShippingMethod.Code(),
		Status:          s.cfg.InitialStatus,
		GuestEmail:      v.GuestEmail,
	}
	if v.ShippingAddress != nil {
		order.ShippingAddress = &entity.ShippingAddress{Address: *v.ShippingAddress}
	}
	if v.BillingAddress != nil {
		order.BillingAddress = &entity.BillingAddress{Address: *v.BillingAddress}
	}

	partners := map[int64]*entity.Partner{}
	options := map[int64]*entity.Option{}
	for _, l := range v.Priced.Lines {
		ol := entity.OrderLine{
			Quantity:                        l.Quantity,
			LinePriceInclTax:                l.PriceInclTaxInclDiscounts,
			LinePriceExclTax:                l.PriceExclTaxInclDiscounts,
			LinePriceBeforeDiscountsInclTax: l.PriceInclTax,
			LinePriceBeforeDiscountsExclTax: l.PriceExclTax,
			UnitPriceInclTax:                l.UnitPrice.InclTax,
			UnitPriceExclTax:                l.UnitPrice.ExclTax,
			Status:                          s.cfg.InitialStatus,
		}
		if l.Product != nil {
			id := l.Product.ID
			ol.ProductID = &id
			ol.Title = l.Product.Title
			ol.UPC = l.Product.UPC
		}
		if sr := l.StockRecord; sr != nil {
			srID, partnerID := sr.ID, sr.PartnerID
			ol.StockRecordID = &srID
			ol.PartnerID = &partnerID
			ol.PartnerSKU = sr.PartnerSKU

			partner, ok := partners[partnerID]
			if !ok {
				var err error
				partner, err = s.catalogue.GetPartner(ctx, partnerID)
				if err != nil && !errors.Is(err, entity.ErrNotFound) {
					return nil, fmt.Errorf("load partner %d: %w", partnerID, err)
				}
				partners[partnerID] = partner
			}
			if partner != nil {
				ol.PartnerName = partner.Name
			}
		}

		for _, a := range l.Attributes {
			opt, ok := options[a.OptionID]
			if !ok {
				var err error
				opt, err = s.catalogue.GetOption(ctx, a.OptionID)
				if err != nil && !errors.Is(err, entity.ErrNotFound) {
					return nil, fmt.Errorf("load option %d: %w", a.OptionID, err)
				}
				options[a.OptionID] = opt
			}
			attr := entity.OrderLineAttribute{Value: a.Value}
			if opt != nil {
				id := opt.ID
				attr.OptionID = &id
				attr.Type = opt.Code
			}
			ol.Attributes = append(ol.Attributes, attr)
		}
		order.Lines = append(order.Lines, ol)
	}

	for _, vd := range v.Priced.VoucherDiscounts {
		voucherID := vd.Voucher.ID
		order.Discounts = append(order.Discounts, entity.OrderDiscount{
			Category:    entity.DiscountCategoryBasket,
			OfferName:   vd.Voucher.Name,
			VoucherID:   &voucherID,
			VoucherCode: vd.Voucher.Code,
			Amount:      vd.Amount,
			Message:     vd.Voucher.Description(),
		})
	}
	return order, nil
}

func sagaPayload(o *entity.Order) string {
	payload := struct {
		Number        string `json:"number"`
		BasketID      *int64 `json:"basket_id"`
		UserID        *int64 `json:"user_id,omitempty"`
		TotalInclTax  string `json:"total_incl_tax"`
		ShippingCode  string `json:"shipping_code"`
		NumberOfLines int    `json:"lines"`
	}{
		Number:        o.Number,
		BasketID:      o.BasketID,
		UserID:        o.UserID,
		TotalInclTax:  o.TotalInclTax.StringFixed(2),
		ShippingCode:  o.ShippingCode,
		NumberOfLines: len(o.Lines),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(b)
}

// reject counts a refused checkout and returns err unchanged.
func (s *Service) reject(ctx context.Context, reason string, err error) error {
	if s.metrics != nil {
		s.metrics.CheckoutRejections.WithLabelValues(reason).Inc()
	}
	slog.InfoContext(ctx, "checkout rejected", "reason", reason, "error", err)
	return err
}
