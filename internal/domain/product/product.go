package product

import (
	"context"
	"math"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// DiscountType is how a product's own markdown is expressed.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFlat    DiscountType = "flat"
)

// Discount is a per-product markdown applied before the item enters a cart.
type Discount struct {
	Type  DiscountType
	Value decimal.Decimal
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	Category    string
	Tags        []string
	Price       decimal.Decimal
	Discount    *Discount
	Stock       int
	Rating      decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// EffectivePrice is the price after the product's own discount, rounded to
// whole currency units and never below zero.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.Discount == nil || !p.Discount.Value.IsPositive() {
		return p.Price
	}

	var off decimal.Decimal
	switch p.Discount.Type {
	case DiscountPercent:
		off = p.Price.Mul(p.Discount.Value).Div(hundred).Round(0)
	case DiscountFlat:
		off = p.Discount.Value
	default:
		return p.Price
	}

	price := p.Price.Sub(off)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// HasDiscount reports whether EffectivePrice differs from Price.
func (p Product) HasDiscount() bool {
	return !p.EffectivePrice().Equal(p.Price)
}

// NewLineItem snapshots p into a cart line at its effective price. Empty
// size or color fall back to the cart defaults.
func NewLineItem(p Product, size, color string, qty int) cart.LineItem {
	size = strings.TrimSpace(size)
	if size == "" {
		size = cart.DefaultSize
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = cart.DefaultColor
	}
	return cart.LineItem{
		ProductID:     p.ID,
		Title:         p.Title,
		ImageURL:      p.ImageURL,
		UnitPrice:     p.EffectivePrice(),
		SelectedSize:  size,
		SelectedColor: color,
		Quantity:      qty,
	}
}

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps Offset within int for any valid Limit.
	MaxPage = math.MaxInt/MaxLimit + 1
)

// Page selects a window of a listing. Page numbers start at 1.
type Page struct {
	Page  int
	Limit int
}

// Normalize applies the listing defaults and bounds.
func (p Page) Normalize() Page {
	switch {
	case p.Page < 1:
		p.Page = DefaultPage
	case p.Page > MaxPage:
		p.Page = MaxPage
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Filter narrows a listing. Category matches exactly, ignoring case; Query
// matches a substring of the title, the description or any tag, ignoring
// case.
type Filter struct {
	Category string
	Query    string
}

// Matches reports whether p passes f.
func (f Filter) Matches(p Product) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, p.Category) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context, page Page, filter Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
