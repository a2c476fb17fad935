package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// DefaultRelated is the related-products limit when none is given.
const DefaultRelated = 5

// Service reads the catalog. Repository failures are logged and degrade to
// empty results so pages render without products rather than failing.
type Service struct {
	repo Repository
}

// NewService wraps repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of products matching filter.
func (s *Service) List(ctx context.Context, page Page, filter Filter) []Product {
	page = page.Normalize()
	products, err := s.repo.List(ctx, page, filter)
	if err != nil {
		zctx.From(ctx).Warn("List products failed",
			zap.Int("page", page.Page),
			zap.Int("limit", page.Limit),
			zap.Error(err),
		)
		return []Product{}
	}
	if products == nil {
		products = []Product{}
	}
	return products
}

// Get returns the product with id, or nil when it is missing or the lookup
// failed.
func (s *Service) Get(ctx context.Context, id string) *Product {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			zctx.From(ctx).Warn("Get product failed", zap.String("id", id), zap.Error(err))
		}
		return nil
	}
	return p
}

// Related returns up to limit products other than id: the same category
// first, then the rest of the catalog.
func (s *Service) Related(ctx context.Context, id string, limit int) []Product {
	if limit <= 0 {
		limit = DefaultRelated
	}
	limit = min(limit, MaxLimit)

	related := make([]Product, 0, limit)
	seen := map[string]bool{id: true}
	collect := func(products []Product) {
		for _, p := range products {
			if len(related) == limit {
				return
			}
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			related = append(related, p)
		}
	}

	// Fetch one extra row to make room for the current product.
	window := Page{Page: 1, Limit: min(limit+1, MaxLimit)}
	if current := s.Get(ctx, id); current != nil && current.Category != "" {
		collect(s.List(ctx, window, Filter{Category: current.Category}))
	}
	if len(related) < limit {
		collect(s.List(ctx, Page{Page: 1, Limit: MaxLimit}, Filter{}))
	}
	return related
}
