package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xenking/storefront/internal/domain/coupon"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	mu        sync.Mutex
	rules     map[string]coupon.Rule
	lookups   int
	upsertErr error
}

func newFakeStore(rules ...coupon.Rule) *fakeStore {
	s := &fakeStore{rules: make(map[string]coupon.Rule)}
	for _, r := range rules {
		s.rules[r.Code] = r
	}
	return s
}

func (s *fakeStore) FindByCode(_ context.Context, code string) (*coupon.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	r, ok := s.rules[code]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return &r, nil
}

func (s *fakeStore) Codes(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]string, 0, len(s.rules))
	for code := range s.rules {
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *fakeStore) Upsert(_ context.Context, rule coupon.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.rules[rule.Code] = rule
	return nil
}

func writeGz(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func testDefaults() coupon.Rule {
	return coupon.Rule{DiscountType: coupon.DiscountPercent, Value: decimal.NewFromInt(10), Description: "10% off your order"}
}

func testOptions() options {
	return options{defaults: testDefaults(), workers: 2, expected: 1000, fpr: 0.01}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantErr  bool
		wantCode string
		wantType coupon.DiscountType
		wantVal  string
		wantDesc string
	}{
		{name: "blank", line: "   "},
		{name: "comment", line: "# codes for march"},
		{name: "bare code uses defaults", line: " spring24 ", wantOK: true, wantCode: "SPRING24", wantType: coupon.DiscountPercent, wantVal: "10", wantDesc: "10% off your order"},
		{name: "flat with description", line: "eid100,flat,100,Eid special, limited", wantOK: true, wantCode: "EID100", wantType: coupon.DiscountFlat, wantVal: "100", wantDesc: "Eid special, limited"},
		{name: "percent generated description", line: "P20,Percent,20", wantOK: true, wantCode: "P20", wantType: coupon.DiscountPercent, wantVal: "20", wantDesc: "20% off your order"},
		{name: "two fields", line: "CODE,flat", wantErr: true},
		{name: "unknown type", line: "CODE,bogo,1", wantErr: true},
		{name: "bad value", line: "CODE,flat,ten", wantErr: true},
		{name: "zero value", line: "CODE,flat,0", wantErr: true},
		{name: "percent over 100", line: "CODE,percent,150", wantErr: true},
		{name: "code with space", line: "TWO WORDS", wantErr: true},
		{name: "empty code", line: ",flat,10", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok, err := parseLine(tt.line, testDefaults())
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantCode, rule.Code)
			assert.Equal(t, tt.wantType, rule.DiscountType)
			assert.True(t, decimal.RequireFromString(tt.wantVal).Equal(rule.Value), "value %s", rule.Value)
			assert.Equal(t, tt.wantDesc, rule.Description)
		})
	}
}

func TestDefaultRule(t *testing.T) {
	rule, err := defaultRule("flat", "25")
	require.NoError(t, err)
	assert.Empty(t, rule.Code)
	assert.Equal(t, coupon.DiscountFlat, rule.DiscountType)

	_, err = defaultRule("bogus", "25")
	require.Error(t, err)
}

func TestIngester_Run(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := writeGz(t, dir, "a.gz", "save15,flat,20\nNEWONE\n\n# comment\nnewone,flat,30\nbad,code,x\nTWO,percent,25\n")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(b, []byte("TWO\nTHREE,flat,5,Three off\n"), 0o600))

	store := newFakeStore(coupon.DefaultRules()...)
	in, err := newIngester(ctx, store, testOptions())
	require.NoError(t, err)

	require.NoError(t, in.run(ctx, []string{a, b}))

	assert.Equal(t, int64(9), in.stats.lines.Load())
	assert.Equal(t, int64(1), in.stats.invalid.Load())
	assert.Equal(t, int64(3), in.stats.written, "NEWONE, TWO, THREE")
	assert.Equal(t, int64(3), in.stats.skipped, "SAVE15 and the repeated NEWONE and TWO")

	assert.True(t, decimal.NewFromInt(15).Equal(store.rules["SAVE15"].Value), "existing coupon is kept")
	assert.Equal(t, coupon.DiscountPercent, store.rules["NEWONE"].DiscountType, "first occurrence wins")
	assert.Equal(t, "Three off", store.rules["THREE"].Description)
	assert.Contains(t, store.rules, "TWO")
}

func TestIngester_Overwrite(t *testing.T) {
	ctx := context.Background()
	a := writeGz(t, t.TempDir(), "a.gz", "SAVE15,flat,20\n")

	store := newFakeStore(coupon.DefaultRules()...)
	opts := testOptions()
	opts.overwrite = true
	in, err := newIngester(ctx, store, opts)
	require.NoError(t, err)

	require.NoError(t, in.run(ctx, []string{a}))
	assert.Equal(t, coupon.DiscountFlat, store.rules["SAVE15"].DiscountType)
	assert.Equal(t, 0, store.lookups, "overwrite skips existence checks")
}

func TestIngester_NewCodesSkipLookup(t *testing.T) {
	ctx := context.Background()
	a := writeGz(t, t.TempDir(), "a.gz", "ALPHA1\nBRAVO2\nCHARLIE3\n")

	store := newFakeStore()
	in, err := newIngester(ctx, store, testOptions())
	require.NoError(t, err)

	require.NoError(t, in.run(ctx, []string{a}))
	assert.Equal(t, int64(3), in.stats.written)
	assert.Equal(t, int64(in.stats.falsePositives), int64(store.lookups), "only bloom hits reach the store")
}

func TestIngester_UpsertError(t *testing.T) {
	ctx := context.Background()
	var content []byte
	for range 5000 {
		content = append(content, "SAMECODE\n"...)
	}
	a := writeGz(t, t.TempDir(), "a.gz", string(content))

	store := newFakeStore()
	store.upsertErr = errors.New("connection reset")
	in, err := newIngester(ctx, store, testOptions())
	require.NoError(t, err)

	err = in.run(ctx, []string{a})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIngester_MissingFile(t *testing.T) {
	in, err := newIngester(context.Background(), newFakeStore(), testOptions())
	require.NoError(t, err)

	err = in.run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.gz")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}
