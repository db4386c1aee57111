package jwks

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Cache(t *testing.T) {
	t.Run("It starts empty and never fabricates keys", func(t *testing.T) {
		c := NewCache()

		_, ok := c.Get("k1")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("It replaces the whole set on LoadAll", func(t *testing.T) {
		c := NewCache()
		c.LoadAll(KeySet{stubKey("a"), stubKey("b")})
		c.LoadAll(KeySet{stubKey("b"), stubKey("c")})

		assert.Equal(t, []string{"b", "c"}, c.Keys())
		_, ok := c.Get("a")
		assert.False(t, ok)
	})

	t.Run("It is idempotent for the same set", func(t *testing.T) {
		keys := KeySet{stubKey("a"), stubKey("b")}
		c := NewCache()
		c.LoadAll(keys)
		first := c.Keys()
		c.LoadAll(keys)

		assert.Equal(t, first, c.Keys())
		got, ok := c.Get("a")
		require.True(t, ok)
		if diff := cmp.Diff(stubKey("a"), got); diff != "" {
			t.Errorf("unexpected key (-want +got):\n%s", diff)
		}
	})

	t.Run("It serves whole snapshots to concurrent readers", func(t *testing.T) {
		c := NewCache()
		oldSet := KeySet{stubKey("a"), stubKey("b")}
		newSet := KeySet{stubKey("c"), stubKey("d")}
		c.LoadAll(oldSet)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 1000; j++ {
					kids := c.Keys()
					if !cmp.Equal(kids, []string{"a", "b"}) && !cmp.Equal(kids, []string{"c", "d"}) {
						t.Errorf("torn snapshot: %v", kids)
						return
					}
				}
			}()
		}
		for j := 0; j < 100; j++ {
			if j%2 == 0 {
				c.LoadAll(newSet)
			} else {
				c.LoadAll(oldSet)
			}
		}
		wg.Wait()
	})
}

func Test_KeySet(t *testing.T) {
	set := KeySet{stubKey("c"), stubKey("a"), stubKey("b"), stubKey("a")}

	t.Run("It lists de-duplicated kids in order", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b", "c"}, set.Kids())
	})

	t.Run("It sorts without touching the receiver", func(t *testing.T) {
		sorted := set.Sorted()
		assert.Equal(t, "a", sorted[0].Kid)
		assert.Equal(t, "c", sorted[3].Kid)
		assert.Equal(t, "c", set[0].Kid)
	})

	t.Run("It reports membership", func(t *testing.T) {
		assert.True(t, set.Contains("b"))
		assert.False(t, set.Contains("z"))
	})
}
