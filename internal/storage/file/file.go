// Package file stores cart documents as files in a directory, one file per
// key, optionally gzip-compressed.
package file

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"

	"github.com/xenking/storefront/internal/domain/cart"
)

var _ cart.Store = (*Store)(nil)

// Store is a cart.Store over a directory. Writes replace files atomically
// through a rename.
type Store struct {
	dir      string
	compress bool
}

// Options configures a Store.
type Options struct {
	// Compress writes gzip-compressed documents with a .json.gz suffix.
	Compress bool
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	return &Store{dir: dir, compress: opts.Compress}, nil
}

// Dir is the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file that holds key.
func (s *Store) Path(key string) string {
	name := url.QueryEscape(key) + ".json"
	if s.compress {
		name += ".gz"
	}
	return filepath.Join(s.dir, name)
}

// Load returns the document stored under key, or cart.ErrNoData.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cart.ErrNoData
		}
		return nil, errors.Wrapf(err, "open %q", key)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if s.compress {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "gzip reader for %q", key)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %q", key)
	}
	return data, nil
}

// Save atomically replaces the document stored under key.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := data
	if s.compress {
		var buf bytes.Buffer
		gz := pgzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return errors.Wrapf(err, "compress %q", key)
		}
		if err := gz.Close(); err != nil {
			return errors.Wrapf(err, "compress %q", key)
		}
		payload = buf.Bytes()
	}

	tmp, err := os.CreateTemp(s.dir, ".cart-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %q", key)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "sync %q", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %q", key)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		return errors.Wrapf(err, "rename %q", key)
	}
	return nil
}
