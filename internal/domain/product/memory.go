package product

import (
	"context"
	"slices"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository serves a fixed catalog held in memory, in the order given.
type MemoryRepository struct {
	products []Product
	byID     map[string]int
}

// NewMemoryRepository indexes products. Later duplicates of an ID replace
// earlier ones in place.
func NewMemoryRepository(products []Product) *MemoryRepository {
	r := &MemoryRepository{byID: make(map[string]int, len(products))}
	for _, p := range products {
		if i, ok := r.byID[p.ID]; ok {
			r.products[i] = p
			continue
		}
		r.byID[p.ID] = len(r.products)
		r.products = append(r.products, p)
	}
	return r
}

func (r *MemoryRepository) List(_ context.Context, page Page, filter Filter) ([]Product, error) {
	page = page.Normalize()

	var matched []Product
	for _, p := range r.products {
		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}

	start := min(page.Offset(), len(matched))
	end := min(start+page.Limit, len(matched))
	return slices.Clone(matched[start:end]), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := r.products[i]
	return &p, nil
}
