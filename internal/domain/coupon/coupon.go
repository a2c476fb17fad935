package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercent takes a rounded percentage of the subtotal.
	DiscountPercent DiscountType = "percent"
	// DiscountFlat takes a fixed amount regardless of the subtotal.
	DiscountFlat DiscountType = "flat"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercent || t == DiscountFlat
}

var (
	// ErrInvalidCoupon is returned when a coupon code is not found.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponExpired is returned when a coupon is outside its valid time window.
	ErrCouponExpired = errors.New("coupon expired")
)

// Rule defines a coupon's discount and its optional validity window.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	Description  string
	ValidFrom    *time.Time
	ValidUntil   *time.Time
}

// ActiveAt reports whether now falls inside the rule's validity window.
func (r *Rule) ActiveAt(now time.Time) bool {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	return true
}

// Discount holds the computed discount amount and a human-readable description.
type Discount struct {
	Code        string
	Amount      decimal.Decimal
	Description string
}

// Repository provides lookup of coupon rules by their code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

// Lister enumerates every active coupon code.
type Lister interface {
	Codes(ctx context.Context) ([]string, error)
}

// Normalize canonicalizes user input: surrounding spaces are dropped and
// codes are matched case-insensitively.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
