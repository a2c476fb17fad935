package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

// Order is the payload handed off when a checkout session is submitted.
// Items are a snapshot of the cart at submission time.
type Order struct {
	ID            string
	Items         []cart.LineItem
	Customer      Customer
	PaymentMethod string
	Wallet        *Wallet
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	CouponCode    string
	CreatedAt     time.Time
}

// Customer holds the delivery contact details collected at checkout.
type Customer struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	District string `json:"district"`
	Address  string `json:"address"`
}

// Wallet holds mobile wallet payment proof.
type Wallet struct {
	Number        string `json:"number"`
	TransactionID string `json:"transaction_id"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
