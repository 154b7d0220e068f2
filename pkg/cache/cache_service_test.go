package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type menuEntry struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Set then get", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "menu:r1", []menuEntry{{Name: "Momo", Price: 180}}, time.Minute))

		var got []menuEntry
		require.NoError(t, c.Get(ctx, "menu:r1", &got))
		assert.Equal(t, []menuEntry{{Name: "Momo", Price: 180}}, got)
	})

	t.Run("Expired entry is a miss", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "menu:r1", menuEntry{Name: "Momo"}, -time.Second))

		var got menuEntry
		assert.ErrorIs(t, c.Get(ctx, "menu:r1", &got), ErrCacheMiss)
	})

	t.Run("Invalidate by pattern", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "menu:r1", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "menu:r2", 2, time.Minute))
		require.NoError(t, c.Set(ctx, "restaurants:list", 3, time.Minute))

		require.NoError(t, c.InvalidatePattern(ctx, "menu:*"))

		var v int
		assert.ErrorIs(t, c.Get(ctx, "menu:r1", &v), ErrCacheMiss)
		assert.ErrorIs(t, c.Get(ctx, "menu:r2", &v), ErrCacheMiss)
		assert.NoError(t, c.Get(ctx, "restaurants:list", &v))
		assert.Equal(t, 3, v)
	})

	t.Run("Delete several keys", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
		require.NoError(t, c.Delete(ctx, "a", "b"))

		var v int
		assert.ErrorIs(t, c.Get(ctx, "a", &v), ErrCacheMiss)
		assert.ErrorIs(t, c.Get(ctx, "b", &v), ErrCacheMiss)
	})
}
