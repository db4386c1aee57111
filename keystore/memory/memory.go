// Package memory provides an in-process keystore.Store. It is not durable
// and suits tests and single-instance deployments.
package memory

import (
	"context"
	"sync"

	"github.com/tokenbridge/idp-token-bridge/jwks"
	"github.com/tokenbridge/idp-token-bridge/keystore"
)

// Store is a mutex-guarded map from kid to key.
type Store struct {
	mu   sync.RWMutex
	keys map[string]jwks.SigningKey
}

var _ keystore.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{keys: make(map[string]jwks.SigningKey)}
}

// GetAll returns every stored key ordered by kid.
func (s *Store) GetAll(ctx context.Context) (jwks.KeySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, keystore.Wrap("get all", "", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(jwks.KeySet, 0, len(s.keys))
	for _, key := range s.keys {
		keys = append(keys, cloneKey(key))
	}
	return keys.Sorted(), nil
}

// Put upserts key.
func (s *Store) Put(ctx context.Context, key jwks.SigningKey) error {
	if err := ctx.Err(); err != nil {
		return keystore.Wrap("put", key.Kid, err)
	}

	s.mu.Lock()
	s.keys[key.Kid] = cloneKey(key)
	s.mu.Unlock()
	return nil
}

// Delete removes kid.
func (s *Store) Delete(ctx context.Context, kid string) error {
	if err := ctx.Err(); err != nil {
		return keystore.Wrap("delete", kid, err)
	}

	s.mu.Lock()
	delete(s.keys, kid)
	s.mu.Unlock()
	return nil
}

// cloneKey detaches the x5c slice from the caller's copy.
func cloneKey(key jwks.SigningKey) jwks.SigningKey {
	if key.X5c != nil {
		key.X5c = append([]string(nil), key.X5c...)
	}
	return key
}
