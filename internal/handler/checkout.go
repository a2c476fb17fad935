package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
)

// quote prices the cart without touching its checkout session. A district
// parameter, when present, takes precedence over zone.
func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	zone, err := pricing.ParseZone(q.Get("zone"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if q.Has("district") {
		d, ok := checkout.LookupDistrict(q.Get("district"))
		if !ok {
			fail(w, r, checkout.ErrUnknownDistrict)
			return
		}
		zone = checkout.ZoneFor(d)
	}

	writeJSON(w, http.StatusOK, quoteToResponse(h.pricer.Quote(r.Context(), c.Subtotal(), zone, q.Get("coupon"))))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	id, err := cartID(r)
	if err != nil {
		fail(w, r, err)
		return nil, false
	}
	return h.sessions.Get(r.Context(), id), true
}

func (h *Handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, checkoutToResponse(sess.State(), sess.Quote(r.Context())))
}

// updateCheckoutRequest carries any subset of the checkout form. Present
// fields are applied in the order customer, district, payment method,
// wallet, coupon.
type updateCheckoutRequest struct {
	Customer      *customerBody `json:"customer"`
	District      *string       `json:"district"`
	PaymentMethod *string       `json:"paymentMethod"`
	Wallet        *walletBody   `json:"wallet"`
	CouponCode    *string       `json:"couponCode"`
}

func (h *Handler) updateCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req updateCheckoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}

	if err := applyCheckout(sess, req); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutToResponse(sess.State(), sess.Quote(r.Context())))
}

func applyCheckout(sess *checkout.Session, req updateCheckoutRequest) error {
	if c := req.Customer; c != nil {
		if err := sess.SetCustomer(order.Customer{
			FullName: c.FullName,
			Phone:    c.Phone,
			Email:    c.Email,
			Address:  c.Address,
		}); err != nil {
			return err
		}
	}
	if req.District != nil {
		if err := sess.SelectDistrict(*req.District); err != nil {
			return err
		}
	}
	if req.PaymentMethod != nil {
		if err := sess.SelectPaymentMethod(*req.PaymentMethod); err != nil {
			return err
		}
	}
	if wlt := req.Wallet; wlt != nil {
		if err := sess.EnterWalletDetails(wlt.Number, wlt.TransactionID); err != nil {
			return err
		}
	}
	if req.CouponCode != nil {
		if err := sess.ApplyCoupon(*req.CouponCode); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) submitCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	o, err := sess.Submit(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.orderResponse(o))
}
