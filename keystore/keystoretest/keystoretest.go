// Package keystoretest holds the behaviour every keystore.Store backend must
// share. Backends call Run from their own tests.
package keystoretest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenbridge/idp-token-bridge/jwks"
	"github.com/tokenbridge/idp-token-bridge/keystore"
)

// StoreFactory creates a new, empty Store for one test.
type StoreFactory func(t *testing.T) keystore.Store

// Run runs the complete Store test suite against the provided factory.
func Run(t *testing.T, factory StoreFactory) {
	t.Run("GetAll_EmptyIsNotAnError", func(t *testing.T) { testEmpty(t, factory) })
	t.Run("Put_RoundTripsEveryField", func(t *testing.T) { testRoundTrip(t, factory) })
	t.Run("Put_UpsertsByKid", func(t *testing.T) { testUpsert(t, factory) })
	t.Run("Delete_RemovesOnlyThatKid", func(t *testing.T) { testDelete(t, factory) })
	t.Run("Delete_MissingKidIsNotAnError", func(t *testing.T) { testDeleteMissing(t, factory) })
	t.Run("Concurrent_WritersConverge", func(t *testing.T) { testConcurrentWriters(t, factory) })
	t.Run("Context_CancelledIsReported", func(t *testing.T) { testCancelled(t, factory) })
}

// Key returns a fully populated key for kid.
func Key(kid string) jwks.SigningKey {
	return jwks.SigningKey{
		Kty:    "RSA",
		Use:    "sig",
		Kid:    kid,
		Alg:    "RS256",
		X5t:    "x5t-" + kid,
		N:      "modulus-" + kid,
		E:      "AQAB",
		X5c:    []string{"MIIC" + kid, "MIID" + kid},
		Issuer: "https://login.microsoftonline.com/T/v2.0",
	}
}

func newContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func testEmpty(t *testing.T, factory StoreFactory) {
	s := factory(t)

	keys, err := s.GetAll(newContext(t))
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func testRoundTrip(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := newContext(t)

	require.NoError(t, s.Put(ctx, Key("k1")))

	keys, err := s.GetAll(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(jwks.KeySet{Key("k1")}, keys); diff != "" {
		t.Errorf("unexpected keys (-want +got):\n%s", diff)
	}
}

func testUpsert(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := newContext(t)

	require.NoError(t, s.Put(ctx, Key("k1")))

	updated := Key("k1")
	updated.X5t = "rotated"
	require.NoError(t, s.Put(ctx, updated))

	keys, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "rotated", keys[0].X5t)
}

func testDelete(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := newContext(t)

	for _, kid := range []string{"a", "b", "c"} {
		require.NoError(t, s.Put(ctx, Key(kid)))
	}
	require.NoError(t, s.Delete(ctx, "a"))

	keys, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, keys.Kids())
}

func testDeleteMissing(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := newContext(t)

	require.NoError(t, s.Delete(ctx, "never-stored"))
	require.NoError(t, s.Put(ctx, Key("k1")))
	require.NoError(t, s.Delete(ctx, "k1"))
	require.NoError(t, s.Delete(ctx, "k1"))
}

func testConcurrentWriters(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := newContext(t)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				assert.NoError(t, s.Put(ctx, Key(fmt.Sprintf("k%d", i))))
			}
		}()
	}
	wg.Wait()

	keys, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, keys.Kids(), 10)
	assert.Len(t, keys, 10)
}

func testCancelled(t *testing.T, factory StoreFactory) {
	s := factory(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, keystore.ErrStore)
	assert.ErrorIs(t, err, context.Canceled)
}
