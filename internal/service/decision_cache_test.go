package service

import (
	"context"
	"io"
	"testing"
	"time"

	"go-dropship-admin/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDecisionCache(t *testing.T) {
	ctx := context.Background()
	log := logger.New().WithOutput(io.Discard)

	t.Run("round trip under the observed version", func(t *testing.T) {
		cache := NewRedisDecisionCache(newMemoryStore(), time.Minute, log)

		_, version, hit := cache.Get(ctx, 5, brandSoftDelete)
		require.False(t, hit)
		require.Equal(t, "0", version)

		cache.Put(ctx, version, 5, brandSoftDelete, Deny(ReasonNoGrant))
		d, _, hit := cache.Get(ctx, 5, brandSoftDelete)
		require.True(t, hit)
		assert.Equal(t, Deny(ReasonNoGrant), d)

		_, _, hit = cache.Get(ctx, 6, brandSoftDelete)
		assert.False(t, hit, "entries are per staff member")
	})

	t.Run("decision computed before an invalidation is never served after it", func(t *testing.T) {
		cache := NewRedisDecisionCache(newMemoryStore(), time.Minute, log)

		_, staleVersion, _ := cache.Get(ctx, 5, brandSoftDelete)
		require.NoError(t, cache.Invalidate(ctx))
		cache.Put(ctx, staleVersion, 5, brandSoftDelete, Allow(ReasonGranted))

		_, version, hit := cache.Get(ctx, 5, brandSoftDelete)
		assert.False(t, hit)
		assert.Equal(t, "1", version)
	})

	t.Run("store errors are misses", func(t *testing.T) {
		store := newMemoryStore()
		cache := NewRedisDecisionCache(store, time.Minute, log)
		cache.Put(ctx, "0", 5, brandSoftDelete, Allow(ReasonGranted))

		store.fail = true
		_, version, hit := cache.Get(ctx, 5, brandSoftDelete)
		assert.False(t, hit)
		assert.Empty(t, version, "no version means the caller must not cache")
		assert.Error(t, cache.Invalidate(ctx))
	})

	t.Run("noop cache never hits", func(t *testing.T) {
		var cache DecisionCache = NoopDecisionCache{}
		cache.Put(ctx, "0", 5, brandSoftDelete, Allow(ReasonGranted))
		_, _, hit := cache.Get(ctx, 5, brandSoftDelete)
		assert.False(t, hit)
		assert.NoError(t, cache.Invalidate(ctx))
	})
}
