// Package checkout drives a single-pass checkout over a cart: district,
// payment method, optional wallet proof, then submission.
package checkout

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
)

// Step is the position of a session in the checkout flow.
type Step string

const (
	StepIdle             Step = "idle"
	StepDistrictSelected Step = "district_selected"
	StepPaymentSelected  Step = "payment_method_selected"
	StepWalletEntered    Step = "wallet_details_entered"
	StepSubmitted        Step = "submitted"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "cod"
	PaymentBkash PaymentMethod = "bkash"
	PaymentNagad PaymentMethod = "nagad"
)

// ParsePaymentMethod validates s.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentCOD, PaymentBkash, PaymentNagad:
		return m, nil
	default:
		return "", ErrUnknownPaymentMethod
	}
}

// IsWallet reports whether m needs a wallet number and transaction ID.
func (m PaymentMethod) IsWallet() bool {
	return m == PaymentBkash || m == PaymentNagad
}

// Cart is the part of a cart a session reads and, on success, clears.
type Cart interface {
	Items() []cart.LineItem
	Subtotal() decimal.Decimal
	Settle(ctx context.Context, ordered []cart.LineItem)
}

// Pricer prices a subtotal for a zone and coupon code.
type Pricer interface {
	Quote(ctx context.Context, subtotal decimal.Decimal, zone pricing.Zone, code string) pricing.Quote
}

// State is a read-only view of a session.
type State struct {
	Step          Step
	District      string
	Zone          pricing.Zone
	PaymentMethod PaymentMethod
	WalletNumber  string
	TransactionID string
	Customer      order.Customer
	CouponCode    string
	OrderID       string
}

// Session is one checkout pass over a cart.
type Session struct {
	cart   Cart
	pricer Pricer
	orders order.Repository
	now    func() time.Time

	mu     sync.Mutex
	state  State
	placed *order.Order
}

// NewSession starts a checkout over c in StepIdle.
func NewSession(c Cart, pricer Pricer, orders order.Repository) *Session {
	return &Session{
		cart:   c,
		pricer: pricer,
		orders: orders,
		now:    time.Now,
		state:  State{Step: StepIdle},
	}
}

// State returns the current session view.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Order returns the placed order once the session is submitted.
func (s *Session) Order() (*order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placed, s.placed != nil
}

// SelectDistrict fixes the district and, through it, the delivery zone.
// The district may be changed again until submission.
func (s *Session) SelectDistrict(name string) error {
	d, ok := LookupDistrict(name)
	if !ok {
		return errors.Wrapf(ErrUnknownDistrict, "%q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Step == StepSubmitted {
		return ErrSubmitted
	}

	s.state.District = d
	s.state.Zone = ZoneFor(d)
	s.state.Customer.District = d
	if s.state.Step == StepIdle {
		s.state.Step = StepDistrictSelected
	}
	return nil
}

// SelectPaymentMethod requires a district. Switching methods discards any
// wallet details entered for the previous one.
func (s *Session) SelectPaymentMethod(method string) error {
	m, err := ParsePaymentMethod(method)
	if err != nil {
		return errors.Wrapf(err, "%q", method)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state.Step {
	case StepSubmitted:
		return ErrSubmitted
	case StepIdle:
		return &TransitionError{Op: "select payment method", From: s.state.Step}
	}

	if m != s.state.PaymentMethod {
		s.state.WalletNumber = ""
		s.state.TransactionID = ""
	}
	s.state.PaymentMethod = m
	s.state.Step = StepPaymentSelected
	return nil
}

// EnterWalletDetails records wallet payment proof. Only wallet methods accept
// it; the step advances once both values are present.
func (s *Session) EnterWalletDetails(number, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Step == StepSubmitted {
		return ErrSubmitted
	}
	if !s.state.PaymentMethod.IsWallet() {
		return &TransitionError{Op: "enter wallet details", From: s.state.Step}
	}

	s.state.WalletNumber = strings.TrimSpace(number)
	s.state.TransactionID = strings.TrimSpace(transactionID)
	if s.state.WalletNumber != "" && s.state.TransactionID != "" {
		s.state.Step = StepWalletEntered
	} else {
		s.state.Step = StepPaymentSelected
	}
	return nil
}

// SetCustomer replaces the contact details. The district is owned by
// SelectDistrict and is kept.
func (s *Session) SetCustomer(c order.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Step == StepSubmitted {
		return ErrSubmitted
	}

	s.state.Customer = order.Customer{
		FullName: strings.TrimSpace(c.FullName),
		Phone:    strings.TrimSpace(c.Phone),
		Email:    strings.TrimSpace(c.Email),
		District: s.state.District,
		Address:  strings.TrimSpace(c.Address),
	}
	return nil
}

// ApplyCoupon records a coupon code; an empty code removes it. The code is
// resolved on every Quote.
func (s *Session) ApplyCoupon(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Step == StepSubmitted {
		return ErrSubmitted
	}
	s.state.CouponCode = strings.TrimSpace(code)
	return nil
}

// Quote prices the bound cart with the session's zone and coupon.
func (s *Session) Quote(ctx context.Context) pricing.Quote {
	st := s.State()
	return s.pricer.Quote(ctx, s.cart.Subtotal(), st.Zone, st.CouponCode)
}

// Submit validates the session, hands the order to the repository and
// removes the ordered items from the cart. Items added while the order is
// being placed stay in the cart. A failed hand-off leaves both cart and
// session intact.
func (s *Session) Submit(ctx context.Context) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Step == StepSubmitted {
		return nil, ErrSubmitted
	}
	if err := s.validateLocked(); err != nil {
		return nil, err
	}

	items := s.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	q := s.pricer.Quote(ctx, cart.Subtotal(items), s.state.Zone, s.state.CouponCode)
	now := s.now()
	o := &order.Order{
		ID:            "ORD" + strconv.FormatInt(now.UnixMilli(), 10),
		Items:         items,
		Customer:      s.state.Customer,
		PaymentMethod: string(s.state.PaymentMethod),
		Subtotal:      q.Subtotal,
		DeliveryFee:   q.DeliveryFee,
		Discount:      q.Discount,
		Total:         q.Total,
		CreatedAt:     now.UTC(),
	}
	if q.Coupon.Status == pricing.CouponApplied {
		o.CouponCode = q.Coupon.Code
	}
	if s.state.PaymentMethod.IsWallet() {
		o.Wallet = &order.Wallet{
			Number:        s.state.WalletNumber,
			TransactionID: s.state.TransactionID,
		}
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "place order")
	}

	s.cart.Settle(ctx, items)
	s.state.Step = StepSubmitted
	s.state.OrderID = o.ID
	s.placed = o

	zctx.From(ctx).Info("Checkout submitted",
		zap.String("order_id", o.ID),
		zap.Stringer("total", o.Total),
	)
	return o, nil
}

func (s *Session) validateLocked() error {
	fields := make(map[string]string)
	c := s.state.Customer
	if c.FullName == "" {
		fields[FieldFullName] = "full name is required"
	}
	if c.Phone == "" {
		fields[FieldPhone] = "phone number is required"
	}
	if s.state.District == "" {
		fields[FieldDistrict] = "select a district"
	}
	if c.Address == "" {
		fields[FieldAddress] = "delivery address is required"
	}
	switch {
	case s.state.PaymentMethod == "":
		fields[FieldPaymentMethod] = "select a payment method"
	case s.state.PaymentMethod.IsWallet():
		if s.state.WalletNumber == "" {
			fields[FieldWalletNumber] = "wallet number is required"
		}
		if s.state.TransactionID == "" {
			fields[FieldTransactionID] = "transaction ID is required"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
