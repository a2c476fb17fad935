package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNoData is returned by Store.Load when nothing is stored under the key.
var ErrNoData = errors.New("no cart data")

// Store persists serialized carts under string keys.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// StorageKey returns the store key for a cart ID.
func StorageKey(cartID string) string {
	return "cart:" + cartID
}
