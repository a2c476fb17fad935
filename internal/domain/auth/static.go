package auth

import "context"

var _ Repository = (*StaticRepository)(nil)

// StaticRepository serves keys configured at startup.
type StaticRepository struct {
	byHash map[string]APIKeyInfo
}

// NewStaticRepository hashes each raw key under pepper. Every key is granted
// ScopePlaceOrder.
func NewStaticRepository(pepper []byte, keys map[string]string) *StaticRepository {
	r := &StaticRepository{byHash: make(map[string]APIKeyInfo, len(keys))}
	for name, key := range keys {
		if key == "" {
			continue
		}
		h := HashHex(pepper, key)
		r.byHash[h] = APIKeyInfo{
			ID:      name,
			KeyHash: h,
			Name:    name,
			Scopes:  []string{ScopePlaceOrder},
		}
	}
	return r
}

func (r *StaticRepository) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	info, ok := r.byHash[hash]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return &info, nil
}
