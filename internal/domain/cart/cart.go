package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is a point-in-time copy of a cart.
type State struct {
	Items  []LineItem
	IsOpen bool
}

// Subtotal returns the sum of unit price times quantity over all items.
func (s State) Subtotal() decimal.Decimal {
	return Subtotal(s.Items)
}

// Listener is notified with the post-mutation state after every mutation.
type Listener func(State)

// Cart is the engine for a single cart. It keeps items unique per Key,
// quantities within [MinQuantity, MaxQuantity], and writes every mutation
// through to its Store.
//
// Persistence is best effort: the in-memory state is authoritative and a
// failed write is logged, never rolled back.
type Cart struct {
	key   string
	store Store

	mu        sync.Mutex
	items     []LineItem
	open      bool
	listeners []subscription
	nextID    uint64
}

type subscription struct {
	id uint64
	fn Listener
}

// Load rehydrates the cart stored under key. A missing key, an unreadable
// store or a malformed document all yield an empty cart; problems are logged.
func Load(ctx context.Context, store Store, key string) *Cart {
	c := &Cart{
		key:   key,
		store: store,
	}
	c.items = restore(ctx, store, key)
	return c
}

func restore(ctx context.Context, store Store, key string) []LineItem {
	lg := zctx.From(ctx).With(zap.String("cart_key", key))

	data, err := store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNoData) {
			lg.Warn("Cart load failed, starting empty", zap.Error(err))
		}
		return nil
	}

	items, err := Decode(data)
	if err != nil {
		var partial *PartialError
		if errors.As(err, &partial) {
			lg.Warn("Cart restored with dropped entries",
				zap.Int("restored", len(items)),
				zap.Int("dropped", len(partial.Dropped)),
				zap.Error(err),
			)
			return items
		}
		lg.Warn("Cart document is malformed, starting empty", zap.Error(err))
		return nil
	}
	return items
}

// Add merges item into the cart. A matching entry has its quantity raised,
// capped at MaxQuantity, and otherwise keeps its original snapshot. A new
// entry is appended.
func (c *Cart) Add(ctx context.Context, item LineItem) {
	item = withDefaults(item)
	item.Quantity = max(MinQuantity, item.Quantity)
	c.mutate(ctx, func() {
		key := item.Key()
		for i := range c.items {
			if c.items[i].Key() == key {
				c.items[i].Quantity = min(MaxQuantity, c.items[i].Quantity+item.Quantity)
				return
			}
		}
		item.Quantity = min(MaxQuantity, item.Quantity)
		c.items = append(c.items, item)
	})
}

// Remove deletes every entry of productID that matches the given variants.
// Without variants all entries of the product are removed. Removing an
// absent entry is a no-op.
func (c *Cart) Remove(ctx context.Context, productID string, variants ...Variant) {
	m := newMatcher(productID, variants)
	c.mutate(ctx, func() {
		c.items = slices.DeleteFunc(c.items, m.match)
	})
}

// UpdateQuantity sets the quantity of every matching entry to q clamped to
// [MinQuantity, MaxQuantity]. Use Remove to delete entries.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, q int, variants ...Variant) {
	m := newMatcher(productID, variants)
	q = ClampQuantity(q)
	c.mutate(ctx, func() {
		for i := range c.items {
			if m.match(c.items[i]) {
				c.items[i].Quantity = q
			}
		}
		c.items = slices.DeleteFunc(c.items, func(i LineItem) bool {
			return i.Quantity <= 0
		})
	})
}

// Settle removes ordered quantities from the cart. An entry raised or added
// since ordered was taken keeps the difference.
func (c *Cart) Settle(ctx context.Context, ordered []LineItem) {
	taken := make(map[Key]int, len(ordered))
	for _, item := range ordered {
		taken[item.Key()] += item.Quantity
	}
	c.mutate(ctx, func() {
		kept := make([]LineItem, 0, len(c.items))
		for _, item := range c.items {
			item.Quantity -= taken[item.Key()]
			if item.Quantity > 0 {
				kept = append(kept, item)
			}
		}
		c.items = kept
	})
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) {
	c.mutate(ctx, func() {
		c.items = nil
	})
}

// ToggleOpen flips the drawer visibility flag.
func (c *Cart) ToggleOpen(ctx context.Context) {
	c.mutate(ctx, func() { c.open = !c.open })
}

// Open shows the cart drawer.
func (c *Cart) Open(ctx context.Context) {
	c.mutate(ctx, func() { c.open = true })
}

// Close hides the cart drawer.
func (c *Cart) Close(ctx context.Context) {
	c.mutate(ctx, func() { c.open = false })
}

// Items returns a copy of the cart entries in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// IsOpen reports the drawer visibility flag.
func (c *Cart) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Subtotal is recomputed from the current items on every call.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Subtotal(c.items)
}

// Snapshot returns a copy of the whole cart state.
func (c *Cart) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for mutation notifications and returns a function
// that removes it. Listeners run in subscription order.
func (c *Cart) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, subscription{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		c.listeners = slices.DeleteFunc(c.listeners, func(s subscription) bool {
			return s.id == id
		})
		c.mu.Unlock()
	}
}

func (c *Cart) snapshotLocked() State {
	return State{Items: slices.Clone(c.items), IsOpen: c.open}
}

// mutate applies fn, writes the result through to the store and notifies
// listeners. Writes happen under the lock so they reach the store in
// mutation order; listeners run after it is released.
func (c *Cart) mutate(ctx context.Context, fn func()) {
	c.mu.Lock()
	fn()
	state := c.snapshotLocked()
	c.persist(ctx, state.Items)
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l.fn(state)
	}
}

func (c *Cart) persist(ctx context.Context, items []LineItem) {
	if err := c.store.Save(ctx, c.key, Encode(items)); err != nil {
		zctx.From(ctx).Error("Cart write failed, keeping in-memory state",
			zap.String("cart_key", c.key),
			zap.Int("items", len(items)),
			zap.Error(err),
		)
	}
}
