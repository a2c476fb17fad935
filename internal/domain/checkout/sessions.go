package checkout

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
)

// Sessions keeps one in-memory checkout session per cart ID. A session is
// dropped together with its cart when the registry evicts it.
type Sessions struct {
	carts  *cart.Registry
	pricer Pricer
	orders order.Repository

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions creates an empty session table.
func NewSessions(carts *cart.Registry, pricer Pricer, orders order.Repository) *Sessions {
	s := &Sessions{
		carts:    carts,
		pricer:   pricer,
		orders:   orders,
		sessions: make(map[string]*Session),
	}
	carts.OnEvict(s.Drop)
	return s
}

// Get returns the session for cartID. A submitted session is kept until the
// cart is filled again, so a repeated submit reports ErrSubmitted.
func (s *Sessions) Get(ctx context.Context, cartID string) *Session {
	c := s.carts.Get(ctx, cartID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[cartID]; ok && reusable(sess, c) {
		return sess
	}
	sess := NewSession(c, s.pricer, s.orders)
	s.sessions[cartID] = sess
	return sess
}

// Drop forgets the session for cartID.
func (s *Sessions) Drop(cartID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, cartID)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func reusable(sess *Session, c *cart.Cart) bool {
	if sess.cart != Cart(c) {
		return false
	}
	return sess.State().Step != StepSubmitted || len(c.Items()) == 0
}
