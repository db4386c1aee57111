package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenbridge/idp-token-bridge/keystore"
	"github.com/tokenbridge/idp-token-bridge/keystore/keystoretest"
)

func TestMemoryStore(t *testing.T) {
	keystoretest.Run(t, func(t *testing.T) keystore.Store {
		return New()
	})
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	s := New()
	ctx := context.Background()

	key := keystoretest.Key("k1")
	require.NoError(t, s.Put(ctx, key))
	key.X5c[0] = "mutated"

	keys, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MIICk1", keys[0].X5c[0])
}
