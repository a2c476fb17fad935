package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount a rule grants on subtotal. Percent discounts
// are rounded to whole currency units; flat discounts are taken as is.
func Apply(rule *Rule, subtotal decimal.Decimal) (Discount, error) {
	var amount decimal.Decimal
	switch rule.DiscountType {
	case DiscountPercent:
		amount = subtotal.Mul(rule.Value).Div(hundred).Round(0)
	case DiscountFlat:
		amount = rule.Value
	default:
		return Discount{}, errors.Errorf("unsupported discount type: %q", rule.DiscountType)
	}

	return Discount{
		Code:        rule.Code,
		Amount:      amount,
		Description: rule.Description,
	}, nil
}
