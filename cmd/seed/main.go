package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/infra/adapters/sqlite"
	"github.com/jcmexdev/ecommerce-storefront/internal/auth"
	"github.com/jcmexdev/ecommerce-storefront/internal/config"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	telemetry.InitLogger(level)

	password := getEnv("SEED_PASSWORD", "gopher123")
	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	demo, err := store.Seed(context.Background(), hash)
	if err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	if demo == nil {
		slog.Info("database already seeded", "path", cfg.DBPath)
		return
	}
	slog.Info("seeded demo shop",
		"path", cfg.DBPath,
		"products", len(demo.Products),
		"users", len(demo.Users),
		"vouchers", len(demo.Vouchers),
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
