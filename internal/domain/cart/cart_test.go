package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNoData
	}
	return v, nil
}

func (m *memStore) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = data
	return nil
}

// --- Helpers ---

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func shirt(qty int) LineItem {
	return LineItem{
		ProductID:     "42",
		Title:         "Panjabi",
		ImageURL:      "/img/42.jpg",
		UnitPrice:     price("500"),
		SelectedSize:  "M",
		SelectedColor: "Black",
		Quantity:      qty,
	}
}

func newCart(t *testing.T) (*Cart, *memStore) {
	t.Helper()
	store := newMemStore()
	return Load(context.Background(), store, "cart:test"), store
}

// --- Tests ---

func TestCart_Scenario(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, shirt(1))
	require.Len(t, c.Items(), 1)
	assert.True(t, price("500").Equal(c.Subtotal()))

	c.Add(ctx, shirt(3))
	require.Len(t, c.Items(), 1)
	assert.Equal(t, 4, c.Items()[0].Quantity)
	assert.True(t, price("2000").Equal(c.Subtotal()))

	c.UpdateQuantity(ctx, "42", 20, WithSize("M"), WithColor("Black"))
	assert.Equal(t, 10, c.Items()[0].Quantity)
	assert.True(t, price("5000").Equal(c.Subtotal()))

	c.Remove(ctx, "42")
	assert.Empty(t, c.Items())
	assert.True(t, decimal.Zero.Equal(c.Subtotal()))
}

func TestCart_AddMergesAndClamps(t *testing.T) {
	tests := []struct {
		name string
		adds []int
		want int
	}{
		{name: "single", adds: []int{1}, want: 1},
		{name: "sum under cap", adds: []int{2, 3, 4}, want: 9},
		{name: "sum at cap", adds: []int{5, 5}, want: 10},
		{name: "sum over cap", adds: []int{7, 7, 7}, want: 10},
		{name: "single over cap", adds: []int{25}, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c, _ := newCart(t)
			for _, q := range tt.adds {
				c.Add(ctx, shirt(q))
			}
			items := c.Items()
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Quantity)
		})
	}
}

func TestCart_AddKeepsSnapshotPrice(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, shirt(1))
	repriced := shirt(1)
	repriced.UnitPrice = price("450")
	repriced.Title = "Panjabi (sale)"
	c.Add(ctx, repriced)

	items := c.Items()
	require.Len(t, items, 1)
	assert.True(t, price("500").Equal(items[0].UnitPrice))
	assert.Equal(t, "Panjabi", items[0].Title)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCart_VariantsAreSeparateEntries(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	black := shirt(1)
	white := shirt(2)
	white.SelectedColor = "White"
	large := shirt(3)
	large.SelectedSize = "L"

	c.Add(ctx, black)
	c.Add(ctx, white)
	c.Add(ctx, large)

	items := c.Items()
	require.Len(t, items, 3)
	// Insertion order is preserved.
	assert.Equal(t, "Black", items[0].SelectedColor)
	assert.Equal(t, "White", items[1].SelectedColor)
	assert.Equal(t, "L", items[2].SelectedSize)
}

func TestCart_AddAppliesVariantDefaults(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, LineItem{ProductID: "7", UnitPrice: price("10"), Quantity: 1})
	c.Add(ctx, LineItem{ProductID: "7", UnitPrice: price("10"), Quantity: 1, SelectedSize: DefaultSize, SelectedColor: DefaultColor})

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, DefaultSize, items[0].SelectedSize)
	assert.Equal(t, DefaultColor, items[0].SelectedColor)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCart_AddNonPositiveQuantityStoresOne(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, shirt(0))
	c.Add(ctx, shirt(-4))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCart_Remove(t *testing.T) {
	setup := func(t *testing.T) *Cart {
		ctx := context.Background()
		c, _ := newCart(t)
		c.Add(ctx, shirt(1))
		white := shirt(1)
		white.SelectedColor = "White"
		c.Add(ctx, white)
		large := shirt(1)
		large.SelectedSize = "L"
		c.Add(ctx, large)
		c.Add(ctx, LineItem{ProductID: "99", UnitPrice: price("20"), Quantity: 1})
		return c
	}

	tests := []struct {
		name     string
		product  string
		variants []Variant
		left     int
	}{
		{name: "all variants", product: "42", left: 1},
		{name: "by size", product: "42", variants: []Variant{WithSize("M")}, left: 2},
		{name: "by color", product: "42", variants: []Variant{WithColor("White")}, left: 3},
		{name: "exact key", product: "42", variants: []Variant{WithSize("L"), WithColor("Black")}, left: 3},
		{name: "missing product is no-op", product: "missing", left: 4},
		{name: "missing variant is no-op", product: "42", variants: []Variant{WithSize("XXL")}, left: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setup(t)
			c.Remove(context.Background(), tt.product, tt.variants...)
			assert.Len(t, c.Items(), tt.left)
		})
	}
}

func TestCart_UpdateQuantityClamps(t *testing.T) {
	for _, q := range []int{-100, -1, 0, 1, 5, 10, 11, 1000} {
		c, _ := newCart(t)
		ctx := context.Background()
		c.Add(ctx, shirt(3))
		c.UpdateQuantity(ctx, "42", q)

		items := c.Items()
		require.Len(t, items, 1, "quantity %d must never remove the entry", q)
		assert.Equal(t, min(10, max(1, q)), items[0].Quantity)
	}
}

func TestCart_UpdateQuantityMatchesVariants(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	c.Add(ctx, shirt(1))
	white := shirt(1)
	white.SelectedColor = "White"
	c.Add(ctx, white)

	c.UpdateQuantity(ctx, "42", 6, WithColor("White"))
	items := c.Items()
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 6, items[1].Quantity)

	c.UpdateQuantity(ctx, "42", 2)
	for _, item := range c.Items() {
		assert.Equal(t, 2, item.Quantity)
	}
}

func TestCart_SubtotalIsNotCached(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	c.Add(ctx, shirt(1))
	c.Add(ctx, LineItem{ProductID: "99", UnitPrice: price("12.50"), Quantity: 2})

	assert.True(t, price("525").Equal(c.Subtotal()))

	c.UpdateQuantity(ctx, "99", 4)
	assert.True(t, price("550").Equal(c.Subtotal()))
	assert.True(t, price("550").Equal(c.Snapshot().Subtotal()))
}

func TestCart_Settle(t *testing.T) {
	ctx := context.Background()
	c, store := newCart(t)

	c.Add(ctx, shirt(2))
	ordered := c.Items()

	late := shirt(1)
	late.ProductID = "43"
	c.Add(ctx, shirt(3))
	c.Add(ctx, late)

	c.Settle(ctx, ordered)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "42", items[0].ProductID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "43", items[1].ProductID)

	c.Settle(ctx, items)
	assert.Empty(t, c.Items())
	assert.Equal(t, "[]", string(store.data[c.key]))
}

func TestCart_ClearAndDrawer(t *testing.T) {
	ctx := context.Background()
	c, store := newCart(t)
	c.Add(ctx, shirt(2))

	assert.False(t, c.IsOpen())
	c.ToggleOpen(ctx)
	assert.True(t, c.IsOpen())
	c.Close(ctx)
	assert.False(t, c.IsOpen())
	c.Open(ctx)
	assert.True(t, c.IsOpen())
	assert.Len(t, c.Items(), 1, "drawer flag must not touch items")

	c.Clear(ctx)
	assert.Empty(t, c.Items())
	assert.Equal(t, "[]", string(store.data["cart:test"]))
}

func TestCart_WriteThrough(t *testing.T) {
	ctx := context.Background()
	c, store := newCart(t)

	c.Add(ctx, shirt(2))
	c.Add(ctx, LineItem{ProductID: "99", Title: "Cap", UnitPrice: price("20"), Quantity: 1})
	assert.Equal(t, 2, store.saves)

	reloaded := Load(ctx, store, "cart:test")
	assert.Equal(t, c.Items(), reloaded.Items())
}

func TestCart_WriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	c, store := newCart(t)
	store.saveErr = errors.New("disk full")

	c.Add(ctx, shirt(2))

	assert.Len(t, c.Items(), 1)
	assert.Empty(t, store.data)
}

func TestLoad_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string][]byte
		loadErr error
		want    int
	}{
		{name: "missing key", want: 0},
		{name: "store failure", loadErr: errors.New("permission denied"), want: 0},
		{name: "malformed json", data: map[string][]byte{"cart:test": []byte(`{not json`)}, want: 0},
		{name: "not an array", data: map[string][]byte{"cart:test": []byte(`{"id":"1"}`)}, want: 0},
		{
			name: "partially valid",
			data: map[string][]byte{"cart:test": []byte(`[
				{"id":"1","price":10,"quantity":1},
				{"id":"2","quantity":1}
			]`)},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.loadErr = tt.loadErr
			for k, v := range tt.data {
				store.data[k] = v
			}

			var c *Cart
			require.NotPanics(t, func() {
				c = Load(context.Background(), store, "cart:test")
			})
			assert.Len(t, c.Items(), tt.want)
		})
	}
}

func TestCart_Subscribe(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	var got []State
	unsubscribe := c.Subscribe(func(s State) {
		got = append(got, s)
	})

	c.Add(ctx, shirt(1))
	c.Open(ctx)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Items, 1)
	assert.False(t, got[0].IsOpen)
	assert.True(t, got[1].IsOpen)

	unsubscribe()
	c.Clear(ctx)
	assert.Len(t, got, 2)
}

func TestCart_ListenersRunInSubscriptionOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	var got []int
	unsubscribe := make([]func(), 5)
	for i := range unsubscribe {
		unsubscribe[i] = c.Subscribe(func(State) { got = append(got, i) })
	}
	unsubscribe[2]()

	for range 3 {
		got = nil
		c.ToggleOpen(ctx)
		assert.Equal(t, []int{0, 1, 3, 4}, got)
	}
}

func TestCart_ListenerMayReadCart(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	var subtotal decimal.Decimal
	c.Subscribe(func(State) {
		subtotal = c.Subtotal()
	})
	c.Add(ctx, shirt(2))

	assert.True(t, price("1000").Equal(subtotal))
}

func TestCart_ItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	c.Add(ctx, shirt(1))

	items := c.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestCart_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(ctx, shirt(1))
		}()
	}
	wg.Wait()

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, MaxQuantity, items[0].Quantity)
}
