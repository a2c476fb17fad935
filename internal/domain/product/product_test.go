package product

import (
	"context"
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestProduct_EffectivePrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		discount *Discount
		want     string
	}{
		{name: "no discount", price: "1200", want: "1200"},
		{name: "percent", price: "1000", discount: &Discount{Type: DiscountPercent, Value: d("15")}, want: "850"},
		{name: "percent rounds", price: "999", discount: &Discount{Type: DiscountPercent, Value: d("15")}, want: "849"},
		{name: "flat", price: "1000", discount: &Discount{Type: DiscountFlat, Value: d("120")}, want: "880"},
		{name: "flat floors at zero", price: "100", discount: &Discount{Type: DiscountFlat, Value: d("150")}, want: "0"},
		{name: "zero value ignored", price: "500", discount: &Discount{Type: DiscountPercent, Value: d("0")}, want: "500"},
		{name: "unknown type ignored", price: "500", discount: &Discount{Type: "bogo", Value: d("10")}, want: "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{ID: "1", Price: d(tt.price), Discount: tt.discount}
			got := p.EffectivePrice()
			assert.True(t, d(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
			assert.Equal(t, tt.want != tt.price, p.HasDiscount())
		})
	}
}

func TestNewLineItem(t *testing.T) {
	p := Product{
		ID:       "7",
		Title:    "Panjabi",
		ImageURL: "/img/7.jpg",
		Price:    d("2000"),
		Discount: &Discount{Type: DiscountPercent, Value: d("10")},
	}

	item := NewLineItem(p, "XL", "Blue", 2)
	assert.Equal(t, "7", item.ProductID)
	assert.Equal(t, "Panjabi", item.Title)
	assert.Equal(t, "/img/7.jpg", item.ImageURL)
	assert.True(t, d("1800").Equal(item.UnitPrice))
	assert.Equal(t, "XL", item.SelectedSize)
	assert.Equal(t, "Blue", item.SelectedColor)
	assert.Equal(t, 2, item.Quantity)

	item = NewLineItem(p, " ", "", 1)
	assert.Equal(t, cart.DefaultSize, item.SelectedSize)
	assert.Equal(t, cart.DefaultColor, item.SelectedColor)
}

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{in: Page{}, want: Page{Page: 1, Limit: 20}},
		{in: Page{Page: -3, Limit: -1}, want: Page{Page: 1, Limit: 20}},
		{in: Page{Page: 3, Limit: 10}, want: Page{Page: 3, Limit: 10}},
		{in: Page{Page: 2, Limit: 500}, want: Page{Page: 2, Limit: 100}},
		{in: Page{Page: math.MaxInt, Limit: 100}, want: Page{Page: MaxPage, Limit: 100}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize())
	}
	assert.Equal(t, 20, Page{Page: 3, Limit: 10}.Offset())
	assert.Positive(t, Page{Page: 100000000000000001, Limit: 100}.Normalize().Offset())
}

func TestFilter_Matches(t *testing.T) {
	p := Product{
		Title:       "Cotton Saree",
		Description: "Soft Tangail weave",
		Category:    "Women",
		Tags:        []string{"handloom", "eid"},
	}

	assert.True(t, Filter{}.Matches(p))
	assert.True(t, Filter{Category: "women"}.Matches(p))
	assert.False(t, Filter{Category: "men"}.Matches(p))
	assert.True(t, Filter{Query: "saree"}.Matches(p))
	assert.True(t, Filter{Query: "HAND"}.Matches(p))
	assert.True(t, Filter{Query: "tangail"}.Matches(p))
	assert.False(t, Filter{Query: "silk"}.Matches(p))
	assert.True(t, Filter{Category: "Women", Query: "eid"}.Matches(p))
}

func catalog() []Product {
	return []Product{
		{ID: "1", Title: "Shirt A", Category: "men", Price: d("500")},
		{ID: "2", Title: "Shirt B", Category: "men", Price: d("600")},
		{ID: "3", Title: "Saree", Category: "women", Price: d("1500")},
		{ID: "4", Title: "Shirt C", Category: "men", Price: d("700")},
		{ID: "5", Title: "Kameez", Category: "women", Price: d("900")},
		{ID: "6", Title: "Cap", Category: "kids", Price: d("200")},
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(catalog())

	got, err := repo.List(ctx, Page{Page: 1, Limit: 4}, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "1", got[0].ID)

	got, err = repo.List(ctx, Page{Page: 2, Limit: 4}, Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.List(ctx, Page{Page: 9, Limit: 4}, Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NotPanics(t, func() {
		got, err = repo.List(ctx, Page{Page: 100000000000000001, Limit: 100}, Filter{})
	})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.List(ctx, Page{}, Filter{Category: "women"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	p, err := repo.GetByID(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Saree", p.Title)

	_, err = repo.GetByID(ctx, "99")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_DuplicateReplaces(t *testing.T) {
	repo := NewMemoryRepository([]Product{
		{ID: "1", Title: "old"},
		{ID: "2", Title: "two"},
		{ID: "1", Title: "new"},
	})

	got, err := repo.List(context.Background(), Page{}, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].Title)
}

type failingRepo struct{}

func (failingRepo) List(context.Context, Page, Filter) ([]Product, error) {
	return nil, errors.New("connection refused")
}

func (failingRepo) GetByID(context.Context, string) (*Product, error) {
	return nil, errors.New("connection refused")
}

func TestService_Degrades(t *testing.T) {
	ctx := context.Background()
	svc := NewService(failingRepo{})

	got := svc.List(ctx, Page{}, Filter{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Nil(t, svc.Get(ctx, "1"))
	assert.Empty(t, svc.Related(ctx, "1", 5))
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(catalog()))

	p := svc.Get(ctx, "2")
	require.NotNil(t, p)
	assert.Equal(t, "Shirt B", p.Title)
	assert.Nil(t, svc.Get(ctx, "missing"))
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestService_Related(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(catalog()))

	tests := []struct {
		name  string
		id    string
		limit int
		want  []string
	}{
		{name: "same category first then fill", id: "1", limit: 4, want: []string{"2", "4", "3", "5"}},
		{name: "capped by limit", id: "3", limit: 1, want: []string{"5"}},
		{name: "default limit", id: "6", limit: 0, want: []string{"1", "2", "3", "4", "5"}},
		{name: "unknown product falls back to catalog", id: "x", limit: 2, want: []string{"1", "2"}},
		{name: "limit beyond catalog", id: "5", limit: 50, want: []string{"3", "1", "2", "4", "6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Related(ctx, tt.id, tt.limit)
			assert.Equal(t, tt.want, ids(got))
			assert.NotContains(t, ids(got), tt.id)
		})
	}
}
