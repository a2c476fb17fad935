package coupon

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultRules is the storefront's built-in coupon table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Code:         "SAVE15",
			DiscountType: DiscountPercent,
			Value:        decimal.NewFromInt(15),
			Description:  "15% off your order",
		},
		{
			Code:         "WELCOME50",
			DiscountType: DiscountFlat,
			Value:        decimal.NewFromInt(50),
			Description:  "৳50 off for new customers",
		},
	}
}

var (
	_ Repository = (*StaticRepository)(nil)
	_ Lister     = (*StaticRepository)(nil)
)

// StaticRepository serves coupons from a fixed in-memory table.
type StaticRepository struct {
	rules map[string]Rule
}

// NewStaticRepository indexes rules by normalized code.
func NewStaticRepository(rules []Rule) *StaticRepository {
	m := make(map[string]Rule, len(rules))
	for _, r := range rules {
		r.Code = Normalize(r.Code)
		m[r.Code] = r
	}
	return &StaticRepository{rules: m}
}

// FindByCode returns the rule for code or ErrInvalidCoupon.
func (s *StaticRepository) FindByCode(_ context.Context, code string) (*Rule, error) {
	r, ok := s.rules[Normalize(code)]
	if !ok {
		return nil, ErrInvalidCoupon
	}
	return &r, nil
}

// Codes returns every code in the table, sorted.
func (s *StaticRepository) Codes(_ context.Context) ([]string, error) {
	codes := make([]string, 0, len(s.rules))
	for code := range s.rules {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes, nil
}
