package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/file"
	"github.com/xenking/storefront/internal/storage/postgres"
)

// backends are the storage-facing dependencies selected by Config.
type backends struct {
	pool     *pgxpool.Pool
	carts    cart.Store
	products product.Repository
	coupons  coupon.Repository
	guard    *coupon.Guard
	orders   order.Repository
	apikeys  auth.Repository
}

// openBackends connects the configured stores. The file backend serves the
// embedded catalog, logs orders and authenticates with the configured
// static API keys.
func openBackends(ctx context.Context, cfg *Config) (_ *backends, rerr error) {
	lg := zctx.From(ctx)
	b := &backends{}
	defer func() {
		if rerr != nil {
			b.Close()
		}
	}()

	if cfg.NeedsDatabase() {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		b.pool = pool
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
	}

	switch cfg.Storage.Backend {
	case BackendPostgres:
		b.carts = postgres.NewCartStore(b.pool)
		b.products = postgres.NewProductRepository(b.pool)
		b.orders = postgres.NewOrderRepository(b.pool)
		b.apikeys = postgres.NewAPIKeyRepository(b.pool)
	default:
		store, err := file.New(cfg.Storage.Dir, file.Options{Compress: cfg.Storage.Compress})
		if err != nil {
			return nil, errors.Wrap(err, "open cart directory")
		}
		products, err := product.DecodeJSON(db.Products)
		if err != nil {
			return nil, errors.Wrap(err, "decode catalog")
		}
		if len(cfg.APIKeys) == 0 {
			lg.Warn("No API keys configured, checkout submission is disabled")
		}
		b.carts = store
		b.products = product.NewMemoryRepository(products)
		b.orders = order.LogRepository{}
		b.apikeys = auth.NewStaticRepository([]byte(cfg.APIKeyPepper), cfg.APIKeys)
	}

	switch cfg.Coupons.Source {
	case BackendPostgres:
		repo := postgres.NewCouponRepository(b.pool)
		guard := coupon.NewGuard(repo, repo)
		// An unbuilt guard passes every lookup through.
		if n, err := guard.Rebuild(ctx); err != nil {
			lg.Warn("Coupon guard not built", zap.Error(err))
		} else {
			lg.Info("Coupon guard built", zap.Int("codes", n))
		}
		b.coupons = guard
		b.guard = guard
	default:
		b.coupons = coupon.NewStaticRepository(coupon.DefaultRules())
	}

	return b, nil
}

// Close releases the database pool, if any.
func (b *backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}
