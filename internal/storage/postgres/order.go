package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
)

const createOrderSQL = `INSERT INTO orders (id, items, customer, payment_method, wallet,
		subtotal, delivery_fee, discount, total, coupon_code, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Items use the cart document layout; customer
// and wallet details are stored as JSONB.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return errors.Wrap(err, "marshal customer")
	}
	var wallet []byte
	if o.Wallet != nil {
		if wallet, err = json.Marshal(o.Wallet); err != nil {
			return errors.Wrap(err, "marshal wallet")
		}
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, cart.Encode(o.Items), customer, o.PaymentMethod, wallet,
		o.Subtotal, o.DeliveryFee, o.Discount, o.Total, o.CouponCode, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}
