package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoad(t *testing.T) (*Config, error) {
	t.Helper()
	return loadConfig(aconfig.Config{
		EnvPrefix: "SHOP",
		SkipFlags: true,
		SkipFiles: true,
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")

	cfg, err := testLoad(t)
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "data/carts", cfg.Storage.Dir)
	assert.Equal(t, 30*time.Minute, cfg.Storage.IdleTimeout)
	assert.Equal(t, BackendStatic, cfg.Coupons.Source)
	assert.Equal(t, time.Minute, cfg.Coupons.RefreshInterval)
	assert.False(t, cfg.NeedsDatabase())
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)

	fees := cfg.Fees()
	assert.Equal(t, "80", fees.Dhaka.String())
	assert.Equal(t, "150", fees.Outside.String())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("SHOP_STORAGE_BACKEND", "postgres")
	t.Setenv("SHOP_DELIVERY_DHAKA", "60")
	t.Setenv("DATABASE_URL", "postgres://shop@localhost/shop")
	t.Setenv("PORT", "9000")

	cfg, err := testLoad(t)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "postgres://shop@localhost/shop", cfg.DatabaseURL)
	assert.True(t, cfg.NeedsDatabase())
	assert.Equal(t, int64(60), cfg.Delivery.Dhaka)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "postgres storage without database",
			env:     map[string]string{"SHOP_STORAGE_BACKEND": "postgres"},
			wantErr: "database URL is required",
		},
		{
			name:    "postgres coupons without database",
			env:     map[string]string{"SHOP_COUPONS_SOURCE": "postgres"},
			wantErr: "database URL is required",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"SHOP_STORAGE_BACKEND": "redis"},
			wantErr: "unknown storage backend",
		},
		{
			name:    "unknown coupon source",
			env:     map[string]string{"SHOP_COUPONS_SOURCE": "remote"},
			wantErr: "unknown coupon source",
		},
		{
			name:    "zero idle timeout",
			env:     map[string]string{"SHOP_STORAGE_IDLE_TIMEOUT": "0s"},
			wantErr: "idle timeout must be positive",
		},
		{
			name:    "zero coupon refresh",
			env:     map[string]string{"SHOP_COUPONS_REFRESH_INTERVAL": "0s"},
			wantErr: "refresh interval must be positive",
		},
		{
			name:    "negative fee",
			env:     map[string]string{"SHOP_DELIVERY_OUTSIDE": "-1"},
			wantErr: "must not be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := testLoad(t)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
