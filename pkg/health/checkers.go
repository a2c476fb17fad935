package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than threshold goroutines are running,
// a cheap goroutine leak detector.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		count := runtime.NumGoroutine()
		if count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// GCMaxPauseCheck fails when a recent stop-the-world GC pause exceeded
// threshold.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)

		for _, pause := range stats.Pause {
			if pause > threshold {
				return errors.Errorf("GC pause %s exceeds threshold %s", pause, threshold)
			}
		}
		return nil
	}
}

// Pinger is a connection pool or client that can be pinged.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when p cannot be reached.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// KeyValueStore is a document store such as a cart store.
type KeyValueStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// StoreRoundTripCheck writes a probe document under key and reads it back.
// The key must not collide with application data.
func StoreRoundTripCheck(store KeyValueStore, key string) CheckFunc {
	probe := []byte("[]")
	return func(ctx context.Context) error {
		if err := store.Save(ctx, key, probe); err != nil {
			return errors.Wrap(err, "write probe")
		}
		got, err := store.Load(ctx, key)
		if err != nil {
			return errors.Wrap(err, "read probe")
		}
		if string(got) != string(probe) {
			return errors.Errorf("probe mismatch: got %q", got)
		}
		return nil
	}
}
