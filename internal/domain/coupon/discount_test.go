package coupon

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name        string
		rule        *Rule
		subtotal    decimal.Decimal
		wantAmount  decimal.Decimal
		wantErrText string
	}{
		{
			name:       "SAVE15 on 1000",
			rule:       &Rule{Code: "SAVE15", DiscountType: DiscountPercent, Value: d("15")},
			subtotal:   d("1000"),
			wantAmount: d("150"),
		},
		{
			name:       "percent rounds half up",
			rule:       &Rule{Code: "P", DiscountType: DiscountPercent, Value: d("15")},
			subtotal:   d("510"),
			wantAmount: d("77"), // 76.5
		},
		{
			name:       "percent rounds down below half",
			rule:       &Rule{Code: "P", DiscountType: DiscountPercent, Value: d("15")},
			subtotal:   d("499"),
			wantAmount: d("75"), // 74.85
		},
		{
			name:       "percent on fractional subtotal",
			rule:       &Rule{Code: "P", DiscountType: DiscountPercent, Value: d("10")},
			subtotal:   d("42.50"),
			wantAmount: d("4"), // 4.25
		},
		{
			name:       "percent of zero",
			rule:       &Rule{Code: "P", DiscountType: DiscountPercent, Value: d("15")},
			subtotal:   decimal.Zero,
			wantAmount: decimal.Zero,
		},
		{
			name:       "WELCOME50 regardless of subtotal",
			rule:       &Rule{Code: "WELCOME50", DiscountType: DiscountFlat, Value: d("50")},
			subtotal:   d("10"),
			wantAmount: d("50"),
		},
		{
			name:       "flat on large subtotal",
			rule:       &Rule{Code: "WELCOME50", DiscountType: DiscountFlat, Value: d("50")},
			subtotal:   d("99999"),
			wantAmount: d("50"),
		},
		{
			name:        "unsupported discount type returns error",
			rule:        &Rule{Code: "BAD", DiscountType: DiscountType("bogus"), Value: d("10")},
			subtotal:    d("10"),
			wantErrText: "unsupported discount type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.rule, tt.subtotal)

			if tt.wantErrText != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrText)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.wantAmount.Equal(got.Amount),
				"expected amount %s, got %s", tt.wantAmount, got.Amount)
			assert.Equal(t, tt.rule.Code, got.Code)
		})
	}
}

func TestStaticRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStaticRepository(DefaultRules())

	r, err := repo.FindByCode(ctx, "SAVE15")
	require.NoError(t, err)
	assert.Equal(t, DiscountPercent, r.DiscountType)

	r, err = repo.FindByCode(ctx, "welcome50")
	require.NoError(t, err)
	assert.Equal(t, DiscountFlat, r.DiscountType)

	_, err = repo.FindByCode(ctx, "XYZ")
	require.ErrorIs(t, err, ErrInvalidCoupon)

	codes, err := repo.Codes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SAVE15", "WELCOME50"}, codes)
}

func TestDiscountType_Valid(t *testing.T) {
	assert.True(t, DiscountPercent.Valid())
	assert.True(t, DiscountFlat.Valid())
	assert.False(t, DiscountType("free_lowest").Valid())
}
