package coupon

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const (
	guardMinCapacity = 1024
	guardFPR         = 0.001
)

var _ Repository = (*Guard)(nil)

// Guard fronts a Repository with a bloom filter of known codes so that
// lookups for codes that certainly do not exist never reach the backing
// store. Until Rebuild succeeds every lookup passes through.
type Guard struct {
	repo   Repository
	lister Lister
	filter atomic.Pointer[bloom.BloomFilter]
}

// NewGuard wraps repo. lister supplies the codes loaded into the filter.
func NewGuard(repo Repository, lister Lister) *Guard {
	return &Guard{repo: repo, lister: lister}
}

// Rebuild reloads the filter from the lister and returns the number of codes.
func (g *Guard) Rebuild(ctx context.Context) (int, error) {
	codes, err := g.lister.Codes(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list coupon codes")
	}

	f := bloom.NewWithEstimates(uint(max(guardMinCapacity, 2*len(codes))), guardFPR)
	for _, code := range codes {
		f.AddString(Normalize(code))
	}
	g.filter.Store(f)
	return len(codes), nil
}

// Refresh rebuilds the filter every interval until ctx is done, so codes
// loaded while the server runs become visible. A failed rebuild keeps the
// previous filter.
func (g *Guard) Refresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lg := zctx.From(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := g.Rebuild(ctx)
			if err != nil {
				if ctx.Err() == nil {
					lg.Warn("Coupon guard refresh failed", zap.Error(err))
				}
				continue
			}
			lg.Debug("Coupon guard refreshed", zap.Int("codes", n))
		}
	}
}

// FindByCode rejects codes absent from the filter and delegates the rest.
func (g *Guard) FindByCode(ctx context.Context, code string) (*Rule, error) {
	if f := g.filter.Load(); f != nil && !f.TestString(Normalize(code)) {
		return nil, ErrInvalidCoupon
	}
	return g.repo.FindByCode(ctx, code)
}
