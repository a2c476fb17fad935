// Package handler exposes the catalog, carts and checkout over JSON HTTP.
package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Handler serves the storefront API, delegating to the domain services.
type Handler struct {
	products     *product.Service
	carts        *cart.Registry
	pricer       checkout.Pricer
	sessions     *checkout.Sessions
	security     *Security
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products *product.Service,
	carts *cart.Registry,
	pricer checkout.Pricer,
	sessions *checkout.Sessions,
	security *Security,
) *Handler {
	return &Handler{
		products:     products,
		carts:        carts,
		pricer:       pricer,
		sessions:     sessions,
		security:     security,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/products/{id}/related", h.relatedProducts)

	mux.HandleFunc("POST /api/carts", h.createCart)
	mux.HandleFunc("GET /api/carts/{cartID}", h.getCart)
	mux.HandleFunc("DELETE /api/carts/{cartID}", h.clearCart)
	mux.HandleFunc("POST /api/carts/{cartID}/items", h.addItem)
	mux.HandleFunc("PATCH /api/carts/{cartID}/items", h.updateItem)
	mux.HandleFunc("DELETE /api/carts/{cartID}/items", h.removeItem)
	mux.HandleFunc("POST /api/carts/{cartID}/drawer", h.drawer)
	mux.HandleFunc("GET /api/carts/{cartID}/quote", h.quote)

	mux.HandleFunc("GET /api/carts/{cartID}/checkout", h.getCheckout)
	mux.HandleFunc("PUT /api/carts/{cartID}/checkout", h.updateCheckout)
	mux.Handle("POST /api/carts/{cartID}/checkout",
		h.security.Require(ScopePlaceOrder, http.HandlerFunc(h.submitCheckout)))
}
