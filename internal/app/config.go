package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/pricing"
)

// Storage and coupon backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendStatic   = "static"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string            `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string            `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string            `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	APIKeyPepper string            `usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
	APIKeys      map[string]string `usage:"Static API keys as name:key pairs, used without PostgreSQL" flag:"api-keys"`
	Storage      StorageConfig
	Coupons      CouponConfig
	Delivery     DeliveryConfig
	Health       HealthConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects where carts, the catalog and orders live.
type StorageConfig struct {
	Backend  string `default:"file" usage:"Cart storage backend: file or postgres" flag:"storage-backend"`
	Dir      string `default:"data/carts" usage:"Cart directory for the file backend" flag:"storage-dir"`
	Compress bool   `default:"false" usage:"Gzip cart files" flag:"storage-compress"`

	IdleTimeout time.Duration `default:"30m" usage:"Evict carts and checkout sessions unused for this long" flag:"cart-idle-timeout"`
}

// CouponConfig selects the coupon source.
type CouponConfig struct {
	Source string `default:"static" usage:"Coupon source: static or postgres" flag:"coupon-source"`

	RefreshInterval time.Duration `default:"1m" usage:"Reload interval of the coupon code filter (postgres source)" flag:"coupon-refresh-interval"`
}

// DeliveryConfig holds delivery fees in whole currency units.
type DeliveryConfig struct {
	Dhaka   int64 `default:"80"  usage:"Delivery fee inside Dhaka"`
	Outside int64 `default:"150" usage:"Delivery fee outside Dhaka"`
}

// HealthConfig controls background health checks.
type HealthConfig struct {
	Interval time.Duration `default:"10s" usage:"Health check interval" flag:"health-interval"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window, 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags, YAML
// config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(acfg aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, acfg).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendPostgres:
	default:
		return errors.Errorf("unknown storage backend %q: want file or postgres", c.Storage.Backend)
	}
	switch c.Coupons.Source {
	case BackendStatic, BackendPostgres:
	default:
		return errors.Errorf("unknown coupon source %q: want static or postgres", c.Coupons.Source)
	}
	if c.Storage.IdleTimeout <= 0 {
		return errors.New("cart idle timeout must be positive")
	}
	if c.Coupons.RefreshInterval <= 0 {
		return errors.New("coupon refresh interval must be positive")
	}
	if c.Delivery.Dhaka < 0 || c.Delivery.Outside < 0 {
		return errors.New("delivery fees must not be negative")
	}
	if c.NeedsDatabase() && c.DatabaseURL == "" {
		return errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}
	return nil
}

// NeedsDatabase reports whether any component is backed by PostgreSQL.
func (c *Config) NeedsDatabase() bool {
	return c.Storage.Backend == BackendPostgres || c.Coupons.Source == BackendPostgres
}

// Fees converts the delivery settings into a fee table.
func (c *Config) Fees() pricing.Fees {
	return pricing.Fees{
		Dhaka:   decimal.NewFromInt(c.Delivery.Dhaka),
		Outside: decimal.NewFromInt(c.Delivery.Outside),
	}
}
