package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/coupon"
)

const (
	maxCodeLen    = 32
	progressEvery = 100_000
)

var hundred = decimal.NewFromInt(100)

// couponStore is the coupon table the ingester writes to.
type couponStore interface {
	coupon.Repository
	coupon.Lister
	Upsert(ctx context.Context, rule coupon.Rule) error
}

type options struct {
	// defaults applies to lines that carry only a code.
	defaults  coupon.Rule
	overwrite bool
	workers   int
	expected  uint
	fpr       float64
}

type stats struct {
	lines          atomic.Int64
	invalid        atomic.Int64
	written        int64
	skipped        int64
	falsePositives int64
}

// ingester streams coupon files into the store. Known codes are tracked in a
// bloom filter: a miss means the code is new and is written without a
// lookup; a hit is confirmed against the store, so false positives are
// never dropped.
type ingester struct {
	store  couponStore
	opts   options
	filter *bloom.BloomFilter
	stats  stats
}

func newIngester(ctx context.Context, store couponStore, opts options) (*ingester, error) {
	codes, err := store.Codes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load existing codes")
	}

	filter := bloom.NewWithEstimates(max(1, opts.expected+uint(len(codes))), opts.fpr)
	for _, code := range codes {
		filter.AddString(coupon.Normalize(code))
	}
	slog.Info("bloom filter seeded", slog.Int("existing_codes", len(codes)))

	return &ingester{store: store, opts: opts, filter: filter}, nil
}

// run reads files concurrently and writes rules from a single goroutine, in
// the order they arrive.
func (in *ingester) run(ctx context.Context, files []string) error {
	rules := make(chan coupon.Rule, 1024)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rules)

		rg, rctx := errgroup.WithContext(gctx)
		rg.SetLimit(max(1, in.opts.workers))
		for _, f := range files {
			rg.Go(func() error {
				return in.readFile(rctx, f, rules)
			})
		}
		return rg.Wait()
	})
	g.Go(func() error {
		for rule := range rules {
			if err := in.write(gctx, rule); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

func (in *ingester) write(ctx context.Context, rule coupon.Rule) error {
	if in.filter.TestString(rule.Code) && !in.opts.overwrite {
		_, err := in.store.FindByCode(ctx, rule.Code)
		switch {
		case err == nil:
			in.stats.skipped++
			return nil
		case errors.Is(err, coupon.ErrInvalidCoupon):
			in.stats.falsePositives++
		default:
			return errors.Wrapf(err, "check coupon %s", rule.Code)
		}
	}

	if err := in.store.Upsert(ctx, rule); err != nil {
		return err
	}
	in.filter.AddString(rule.Code)
	in.stats.written++

	if in.stats.written%progressEvery == 0 {
		slog.Info("write progress", slog.Int64("written", in.stats.written))
	}
	return nil
}

func (in *ingester) readFile(ctx context.Context, path string, out chan<- coupon.Rule) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		in.stats.lines.Add(1)

		rule, ok, err := parseLine(scanner.Text(), in.opts.defaults)
		if err != nil {
			in.stats.invalid.Add(1)
			slog.Warn("skipping invalid line",
				slog.String("file", path),
				slog.Int("line", lineNo),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !ok {
			continue
		}

		select {
		case out <- rule:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	slog.Info("file complete", slog.String("file", path), slog.Int("lines", lineNo))
	return nil
}

// parseLine parses "CODE" or "CODE,type,value[,description]". Blank lines
// and lines starting with '#' yield ok=false.
func parseLine(line string, defaults coupon.Rule) (_ coupon.Rule, ok bool, _ error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return coupon.Rule{}, false, nil
	}

	parts := strings.SplitN(line, ",", 4)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	code := coupon.Normalize(parts[0])
	if code == "" || len(code) > maxCodeLen || strings.ContainsAny(code, " \t") {
		return coupon.Rule{}, false, errors.Errorf("invalid code %q", parts[0])
	}

	switch len(parts) {
	case 1:
		rule := defaults
		rule.Code = code
		return rule, true, nil
	case 2:
		return coupon.Rule{}, false, errors.New("want CODE or CODE,type,value")
	}

	rule := coupon.Rule{
		Code:         code,
		DiscountType: coupon.DiscountType(strings.ToLower(parts[1])),
	}
	if !rule.DiscountType.Valid() {
		return coupon.Rule{}, false, errors.Errorf("unknown discount type %q", parts[1])
	}

	value, err := decimal.NewFromString(parts[2])
	if err != nil {
		return coupon.Rule{}, false, errors.Wrapf(err, "parse value %q", parts[2])
	}
	if !value.IsPositive() {
		return coupon.Rule{}, false, errors.Errorf("value %s must be positive", value)
	}
	if rule.DiscountType == coupon.DiscountPercent && value.GreaterThan(hundred) {
		return coupon.Rule{}, false, errors.Errorf("percent value %s exceeds 100", value)
	}
	rule.Value = value

	if len(parts) == 4 && parts[3] != "" {
		rule.Description = parts[3]
	} else {
		rule.Description = describe(rule)
	}
	return rule, true, nil
}

func describe(rule coupon.Rule) string {
	if rule.DiscountType == coupon.DiscountPercent {
		return fmt.Sprintf("%s%% off your order", rule.Value)
	}
	return fmt.Sprintf("%s off your order", rule.Value)
}
