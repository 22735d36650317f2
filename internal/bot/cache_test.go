package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpsb/internal/models"
)

func TestIdentityCache_PutGetRemove(t *testing.T) {
	cache := NewIdentityCache()

	_, ok := cache.Get(1)
	assert.False(t, ok)

	cache.Put(&models.User{ID: 1, Role: models.RoleUser})
	got, ok := cache.Get(1)
	require.True(t, ok)
	assert.Equal(t, models.RoleUser, got.Role)

	// the cache hands out copies, not shared pointers
	got.Role = models.RoleAdmin
	fresh, _ := cache.Get(1)
	assert.Equal(t, models.RoleUser, fresh.Role)

	cache.Remove(1)
	_, ok = cache.Get(1)
	assert.False(t, ok)
}

func TestIdentityCache_RefreshReplacesSnapshot(t *testing.T) {
	cache := NewIdentityCache()
	cache.Put(&models.User{ID: 99, Role: models.RoleAdmin})

	repo := newFakeRepo()
	repo.users[1] = &models.User{ID: 1, Role: models.RoleUser}
	repo.users[2] = &models.User{ID: 2, Role: models.RoleAdmin}

	require.NoError(t, cache.Refresh(context.Background(), repo))

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(99)
	assert.False(t, ok, "stale entries are dropped on refresh")
	assert.ElementsMatch(t, []int64{1, 2}, cache.IDs())
}

func TestResolveAccess(t *testing.T) {
	tb := newTestBot()

	t.Run("unknown identity acts as guest", func(t *testing.T) {
		acc := tb.bot.resolveAccess(context.Background(), 404)
		assert.Nil(t, acc.User)
		assert.Equal(t, models.RoleGuest, acc.Role)
	})

	t.Run("repo fallback fills the cache", func(t *testing.T) {
		tb.repo.users[7] = &models.User{ID: 7, Role: models.RoleAdmin}

		acc := tb.bot.resolveAccess(context.Background(), 7)
		require.NotNil(t, acc.User)
		assert.Equal(t, models.RoleAdmin, acc.Role)

		_, ok := tb.cache.Get(7)
		assert.True(t, ok)
	})
}
