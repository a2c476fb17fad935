package handler

import (
	"net/http"
	"strconv"

	"github.com/xenking/storefront/internal/domain/product"
)

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", name)
	}
	return n, nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}

	q := r.URL.Query()
	products := h.products.List(r.Context(),
		product.Page{Page: page, Limit: limit},
		product.Filter{Category: q.Get("category"), Query: q.Get("q")},
	)
	writeJSON(w, http.StatusOK, h.productsResponse(products))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p := h.products.Get(r.Context(), r.PathValue("id"))
	if p == nil {
		fail(w, r, product.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.productResponse(*p))
}

func (h *Handler) relatedProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}
	products := h.products.Related(r.Context(), r.PathValue("id"), limit)
	writeJSON(w, http.StatusOK, h.productsResponse(products))
}
