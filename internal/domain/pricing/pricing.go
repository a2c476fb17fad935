// Package pricing computes checkout totals: cart subtotal, delivery fee for
// the selected zone, and coupon discount.
package pricing

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/coupon"
)

// Zone selects the delivery fee.
type Zone string

const (
	ZoneNone    Zone = ""
	ZoneDhaka   Zone = "dhaka"
	ZoneOutside Zone = "outside"
)

// ErrUnknownZone is returned by ParseZone for unrecognized input.
var ErrUnknownZone = errors.New("unknown delivery zone")

// ParseZone accepts "dhaka", "outside" or "" (no zone selected yet).
func ParseZone(s string) (Zone, error) {
	switch z := Zone(s); z {
	case ZoneNone, ZoneDhaka, ZoneOutside:
		return z, nil
	default:
		return ZoneNone, ErrUnknownZone
	}
}

// Fees is the delivery fee table.
type Fees struct {
	Dhaka   decimal.Decimal
	Outside decimal.Decimal
}

// DefaultFees returns the standard fee table: 80 inside Dhaka, 150 elsewhere.
func DefaultFees() Fees {
	return Fees{
		Dhaka:   decimal.NewFromInt(80),
		Outside: decimal.NewFromInt(150),
	}
}

// For returns the fee for z; no zone costs nothing.
func (f Fees) For(z Zone) decimal.Decimal {
	switch z {
	case ZoneDhaka:
		return f.Dhaka
	case ZoneOutside:
		return f.Outside
	default:
		return decimal.Zero
	}
}

// CouponStatus describes how a submitted coupon code was resolved. It is
// display state, not an error.
type CouponStatus string

const (
	CouponNone        CouponStatus = "none"
	CouponApplied     CouponStatus = "applied"
	CouponInvalid     CouponStatus = "invalid"
	CouponExpired     CouponStatus = "expired"
	CouponUnavailable CouponStatus = "unavailable"
)

// CouponResult is the coupon part of a Quote.
type CouponResult struct {
	Code        string
	Status      CouponStatus
	Description string
}

// Quote is a fully priced checkout.
type Quote struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	Coupon      CouponResult
}

// Calculator prices a subtotal for a zone and coupon code.
type Calculator struct {
	coupons coupon.Validator
	fees    Fees
}

// NewCalculator creates a Calculator resolving coupons through v.
func NewCalculator(v coupon.Validator, fees Fees) *Calculator {
	return &Calculator{coupons: v, fees: fees}
}

// Quote computes total = subtotal + delivery fee - discount. An unknown,
// expired or unresolvable coupon contributes no discount and is reported
// through Quote.Coupon.Status.
func (c *Calculator) Quote(ctx context.Context, subtotal decimal.Decimal, zone Zone, code string) Quote {
	result, discount := c.resolveCoupon(ctx, subtotal, code)
	fee := c.fees.For(zone)
	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Discount:    discount,
		Total:       subtotal.Add(fee).Sub(discount),
		Coupon:      result,
	}
}

func (c *Calculator) resolveCoupon(ctx context.Context, subtotal decimal.Decimal, code string) (CouponResult, decimal.Decimal) {
	code = coupon.Normalize(code)
	if code == "" {
		return CouponResult{Status: CouponNone}, decimal.Zero
	}

	res := CouponResult{Code: code}
	d, err := c.coupons.Validate(ctx, code, subtotal)
	switch {
	case err == nil:
		res.Status = CouponApplied
		res.Description = d.Description
		return res, d.Amount
	case errors.Is(err, coupon.ErrInvalidCoupon):
		res.Status = CouponInvalid
	case errors.Is(err, coupon.ErrCouponExpired):
		res.Status = CouponExpired
	default:
		zctx.From(ctx).Warn("Coupon lookup failed, pricing without discount",
			zap.String("code", code),
			zap.Error(err),
		)
		res.Status = CouponUnavailable
	}
	return res, decimal.Zero
}
