package validator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenbridge/idp-token-bridge/jwks"
	"github.com/tokenbridge/idp-token-bridge/keystore/memory"
)

// jwksServer advertises a key set that tests can rotate.
type jwksServer struct {
	*httptest.Server

	mu   sync.Mutex
	keys jwks.KeySet
	hits int32
}

func newJWKSServer(t *testing.T, keys ...jwks.SigningKey) *jwksServer {
	t.Helper()

	s := &jwksServer{keys: keys}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.hits, 1)

		s.mu.Lock()
		defer s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": s.keys})
	}))
	t.Cleanup(s.Close)

	return s
}

func (s *jwksServer) advertise(keys ...jwks.SigningKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
}

func TestValidator_KeyRotation(t *testing.T) {
	ctx := context.Background()
	k1 := newTestKey(t, "k1")
	k2 := newTestKey(t, "k2")

	server := newJWKSServer(t, k1.signing)
	keysURI, err := url.Parse(server.URL)
	require.NoError(t, err)

	provider, err := jwks.NewProvider(jwks.WithKeysURI(keysURI))
	require.NoError(t, err)

	store := memory.New()
	require.NoError(t, store.Put(ctx, k1.signing))

	resolver, err := jwks.NewResolver(jwks.WithFetcher(provider), jwks.WithStore(store))
	require.NoError(t, err)
	require.NoError(t, resolver.Warm(ctx))

	v, err := New(
		WithKeyResolver(resolver),
		WithIssuer(testIssuer),
		WithAudience(testAudience),
	)
	require.NoError(t, err)

	t.Run("It verifies with the warmed key without calling the identity provider", func(t *testing.T) {
		identity, err := v.ValidateToken(ctx, k1.sign(t, jwt.SigningMethodRS256, validClaims()))
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", identity.ID)
		assert.Equal(t, int32(0), atomic.LoadInt32(&server.hits))
	})

	t.Run("It picks up a key rotated in at the identity provider after one refill", func(t *testing.T) {
		server.advertise(k1.signing, k2.signing)

		identity, err := v.ValidateToken(ctx, k2.sign(t, jwt.SigningMethodRS256, validClaims()))
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", identity.ID)
		assert.Equal(t, int32(1), atomic.LoadInt32(&server.hits))

		stored, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"k1", "k2"}, stored.Kids())
		assert.Equal(t, []string{"k1", "k2"}, resolver.Cache().Keys())
	})

	t.Run("It serves the rotated key from the cache afterwards", func(t *testing.T) {
		_, err := v.ValidateToken(ctx, k2.sign(t, jwt.SigningMethodRS256, validClaims()))
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&server.hits))
	})

	t.Run("It rejects an unknown kid without asking the identity provider again", func(t *testing.T) {
		unknown := newTestKey(t, "k9")

		_, err := v.ValidateToken(ctx, unknown.sign(t, jwt.SigningMethodRS256, validClaims()))
		require.ErrorIs(t, err, ErrKeyNotFound)
		assert.ErrorIs(t, err, jwks.ErrRefillThrottled)
		assert.Equal(t, int32(1), atomic.LoadInt32(&server.hits))
	})
}
