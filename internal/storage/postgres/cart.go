package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/cart"
)

const (
	loadCartSQL = `SELECT data FROM carts WHERE key = $1`

	saveCartSQL = `INSERT INTO carts (key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore keeps serialized carts in the carts table, one row per key.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Load returns the stored document for key, or cart.ErrNoData.
func (s *CartStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, loadCartSQL, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNoData
		}
		return nil, errors.Wrapf(err, "load cart %q", key)
	}
	return data, nil
}

// Save replaces the document stored under key.
func (s *CartStore) Save(ctx context.Context, key string, data []byte) error {
	if _, err := s.pool.Exec(ctx, saveCartSQL, key, data); err != nil {
		return errors.Wrapf(err, "save cart %q", key)
	}
	return nil
}
