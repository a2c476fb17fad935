package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/product"
)

// cartID validates the {cartID} path value and tags the request span.
func cartID(r *http.Request) (string, error) {
	id, err := uuid.Parse(r.PathValue("cartID"))
	if err != nil {
		return "", badRequest("cart id must be a UUID")
	}
	s := id.String()
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("cart.id", s))
	return s, nil
}

// loadCart resolves the path cart, writing an error response on failure.
func (h *Handler) loadCart(w http.ResponseWriter, r *http.Request) (string, *cart.Cart, bool) {
	id, err := cartID(r)
	if err != nil {
		fail(w, r, err)
		return "", nil, false
	}
	return id, h.carts.Get(r.Context(), id), true
}

func (h *Handler) createCart(w http.ResponseWriter, r *http.Request) {
	id := h.carts.NewID()
	c := h.carts.Get(r.Context(), id)
	writeJSON(w, http.StatusCreated, h.cartResponse(id, c.Snapshot()))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(id, c.Snapshot()))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	c.Clear(r.Context())
	writeJSON(w, http.StatusOK, h.cartResponse(id, c.Snapshot()))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// addItem snapshots the catalog price; clients never send prices.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		fail(w, r, badRequest("productId is required"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p := h.products.Get(r.Context(), req.ProductID)
	if p == nil {
		fail(w, r, product.ErrNotFound)
		return
	}
	c.Add(r.Context(), product.NewLineItem(*p, req.Size, req.Color, req.Quantity))
	writeJSON(w, http.StatusOK, h.cartResponse(id, c.Snapshot()))
}

type updateItemRequest struct {
	ProductID string  `json:"productId"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
	Quantity  int     `json:"quantity"`
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		fail(w, r, badRequest("productId is required"))
		return
	}

	var variants []cart.Variant
	if req.Size != nil {
		variants = append(variants, cart.WithSize(*req.Size))
	}
	if req.Color != nil {
		variants = append(variants, cart.WithColor(*req.Color))
	}
	c.UpdateQuantity(r.Context(), req.ProductID, req.Quantity, variants...)
	writeJSON(w, http.StatusOK, h.cartResponse(id, c.Snapshot()))
}

// removeItem treats absent size and color query parameters as wildcards.
func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	productID := q.Get("productId")
	if productID == "" {
		fail(w, r, badRequest("productId is required"))
		return
	}

	var variants []cart.Variant
	if q.Has("size") {
		variants = append(variants, cart.WithSize(q.Get("size")))
	}
	if q.Has("color") {
		variants = append(variants, cart.WithColor(q.Get("color")))
	}
	c.Remove(r.Context(), productID, variants...)
	writeJSON(w, http.StatusOK, h.cartResponse(id, c.Snapshot()))
}

type drawerRequest struct {
	Action string `json:"action"`
}

func (h *Handler) drawer(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.loadCart(w, r)
	if !ok {
		return
	}
	var req drawerRequest
	if err := decodeBody(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}

	switch req.Action {
	case "open":
		c.Open(r.Context())
	case "close":
		c.Close(r.Context())
	case "toggle":
		c.ToggleOpen(r.Context())
	default:
		fail(w, r, badRequest("action must be open, close or toggle"))
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(id, c.Snapshot()))
}
