// Package cart implements the shopping cart engine: an ordered collection of
// line items keyed by product variant, with derived totals and write-through
// persistence.
package cart

import (
	"github.com/shopspring/decimal"
)

// Quantity bounds for a single line item.
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// Variant sentinels used when a product has no selectable size or color.
const (
	DefaultSize  = "M"
	DefaultColor = "Default"
)

// LineItem is one cart entry: a product variant, a snapshot of its display
// data and price taken when it was added, and a quantity.
type LineItem struct {
	ProductID     string
	Title         string
	ImageURL      string
	UnitPrice     decimal.Decimal
	SelectedSize  string
	SelectedColor string
	Quantity      int
}

// Key returns the identity of the item within a cart.
func (i LineItem) Key() Key {
	return Key{ProductID: i.ProductID, Size: i.SelectedSize, Color: i.SelectedColor}
}

// LineTotal returns UnitPrice * Quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Key identifies a cart entry. Two items with equal keys are merged.
type Key struct {
	ProductID string
	Size      string
	Color     string
}

// Variant narrows Remove and UpdateQuantity to a specific size or color.
// An omitted dimension matches every value.
type Variant func(*matcher)

// WithSize restricts the match to entries with the given size.
func WithSize(size string) Variant {
	return func(m *matcher) {
		m.size = &size
	}
}

// WithColor restricts the match to entries with the given color.
func WithColor(color string) Variant {
	return func(m *matcher) {
		m.color = &color
	}
}

type matcher struct {
	productID string
	size      *string
	color     *string
}

func newMatcher(productID string, opts []Variant) matcher {
	m := matcher{productID: productID}
	for _, o := range opts {
		o(&m)
	}
	return m
}

func (m matcher) match(i LineItem) bool {
	if i.ProductID != m.productID {
		return false
	}
	if m.size != nil && i.SelectedSize != *m.size {
		return false
	}
	if m.color != nil && i.SelectedColor != *m.color {
		return false
	}
	return true
}

// ClampQuantity bounds q to [MinQuantity, MaxQuantity].
func ClampQuantity(q int) int {
	return min(MaxQuantity, max(MinQuantity, q))
}

// Subtotal returns the sum of line totals.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// TotalQuantity returns the number of units across all items.
func TotalQuantity(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func withDefaults(i LineItem) LineItem {
	if i.SelectedSize == "" {
		i.SelectedSize = DefaultSize
	}
	if i.SelectedColor == "" {
		i.SelectedColor = DefaultColor
	}
	return i
}
