package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "GBP", cfg.DefaultCurrency)
	assert.True(t, cfg.TaxRate.IsZero())
	assert.Equal(t, "5", cfg.FixedShippingCharge.String())
	assert.False(t, cfg.AllowAnonCheckout)
	assert.True(t, cfg.BlockAdminAPIAccess)
	assert.Equal(t, "new", cfg.InitialOrderStatus)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TAX_RATE", "0.2")
	t.Setenv("ALLOW_ANON_CHECKOUT", "true")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.2", cfg.TaxRate.String())
	assert.True(t, cfg.AllowAnonCheckout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "50", cfg.FreeShippingThreshold.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET must be set in production")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}
