package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegistryListener is notified after a mutation of any cart in a Registry.
type RegistryListener func(cartID string, s State)

// Registry owns one Cart per cart ID. Carts are rehydrated from the Store on
// first access and stay resident until EvictIdle drops them.
type Registry struct {
	store Store
	now   func() time.Time

	mu    sync.Mutex
	carts map[string]*resident

	lmu       sync.RWMutex
	listeners []RegistryListener
	onEvict   []func(cartID string)
}

type resident struct {
	cart     *Cart
	lastUsed time.Time
}

// NewRegistry creates a Registry persisting carts to store.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store: store,
		now:   time.Now,
		carts: make(map[string]*resident),
	}
}

// NewID mints an identifier for a fresh cart.
func (r *Registry) NewID() string {
	return uuid.New().String()
}

// Get returns the cart for id, loading it from the store if needed.
func (r *Registry) Get(ctx context.Context, id string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.carts[id]; ok {
		e.lastUsed = now
		return e.cart
	}
	c := Load(ctx, r.store, StorageKey(id))
	c.Subscribe(func(s State) {
		r.notify(id, s)
	})
	r.carts[id] = &resident{cart: c, lastUsed: now}
	return c
}

// Subscribe registers fn for mutations of every cart in the registry.
func (r *Registry) Subscribe(fn RegistryListener) {
	r.lmu.Lock()
	defer r.lmu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// OnEvict registers fn to be called with the ID of every evicted cart.
func (r *Registry) OnEvict(fn func(cartID string)) {
	r.lmu.Lock()
	defer r.lmu.Unlock()
	r.onEvict = append(r.onEvict, fn)
}

// Len returns the number of resident carts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// EvictIdle drops carts last accessed before the cutoff and returns how many
// were dropped. Their state is already in the store.
func (r *Registry) EvictIdle(before time.Time) int {
	r.mu.Lock()
	var evicted []string
	for id, e := range r.carts {
		if e.lastUsed.Before(before) {
			delete(r.carts, id)
			evicted = append(evicted, id)
		}
	}
	r.mu.Unlock()

	r.lmu.RLock()
	hooks := r.onEvict
	r.lmu.RUnlock()

	for _, id := range evicted {
		for _, fn := range hooks {
			fn(id)
		}
	}
	return len(evicted)
}

// RunEviction evicts carts idle for longer than ttl until ctx is done.
func (r *Registry) RunEviction(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(max(ttl/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(r.now().Add(-ttl)); n > 0 {
				zctx.From(ctx).Debug("Evicted idle carts",
					zap.Int("evicted", n),
					zap.Int("resident", r.Len()),
				)
			}
		}
	}
}

func (r *Registry) notify(id string, s State) {
	r.lmu.RLock()
	listeners := r.listeners
	r.lmu.RUnlock()

	for _, l := range listeners {
		l(id, s)
	}
}
