package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/storage/postgres"
)

func main() {
	var (
		dataDir      string
		databaseURL  string
		defaultType  string
		defaultValue string
		opts         options
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz coupon files; extra files may be passed as arguments")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&defaultType, "default-type", string(coupon.DiscountPercent), "discount type for lines with only a code")
	flag.StringVar(&defaultValue, "default-value", "10", "discount value for lines with only a code")
	flag.BoolVar(&opts.overwrite, "overwrite", false, "replace coupons that already exist")
	flag.IntVar(&opts.workers, "workers", 4, "files read concurrently")
	flag.UintVar(&opts.expected, "expected", 1_000_000, "expected number of codes, sizes the bloom filter")
	flag.Float64Var(&opts.fpr, "fpr", 0.001, "bloom filter false positive rate")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	defaults, err := defaultRule(defaultType, defaultValue)
	if err != nil {
		slog.Error("invalid default rule", slog.String("error", err.Error()))
		os.Exit(1)
	}
	opts.defaults = defaults

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, flag.Args(), databaseURL, opts); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func defaultRule(discountType, value string) (coupon.Rule, error) {
	rule, ok, err := parseLine("DEFAULT,"+discountType+","+value, coupon.Rule{})
	if err != nil {
		return coupon.Rule{}, err
	}
	if !ok {
		return coupon.Rule{}, errors.New("empty default rule")
	}
	rule.Code = ""
	return rule, nil
}

func run(ctx context.Context, dataDir string, extra []string, databaseURL string, opts options) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list coupon files")
	}
	files = append(files, extra...)
	if len(files) == 0 {
		slog.Info("no coupon files found", slog.String("dir", dataDir))
		return nil
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	in, err := newIngester(ctx, postgres.NewCouponRepository(pool), opts)
	if err != nil {
		return err
	}

	slog.Info("ingesting coupon files", slog.Int("files", len(files)))
	if err := in.run(ctx, files); err != nil {
		return errors.Wrap(err, "ingest")
	}

	slog.Info("ingest summary",
		slog.Int64("lines", in.stats.lines.Load()),
		slog.Int64("invalid", in.stats.invalid.Load()),
		slog.Int64("written", in.stats.written),
		slog.Int64("skipped_existing", in.stats.skipped),
		slog.Int64("bloom_false_positives", in.stats.falsePositives),
	)
	return nil
}
