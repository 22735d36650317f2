package bot

import (
	"context"
	"fmt"
	"sync"

	"mpsb/internal/models"
)

// IdentityCache is an in-memory snapshot of all users, refreshed
// periodically outside the request path. The whole map is rebuilt and
// swapped under the lock so readers never observe a partial state.
type IdentityCache struct {
	mu    sync.RWMutex
	users map[int64]models.User
}

func NewIdentityCache() *IdentityCache {
	return &IdentityCache{users: make(map[int64]models.User)}
}

// Get returns the cached user, if present.
func (c *IdentityCache) Get(id int64) (*models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[id]
	if !ok {
		return nil, false
	}
	return &u, true
}

// Put inserts a single user, used for cache fill on repository fallback.
func (c *IdentityCache) Put(u *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[u.ID] = *u
}

// Remove drops a single user, used when an identity is deleted.
func (c *IdentityCache) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, id)
}

// IDs returns the ids of all cached users.
func (c *IdentityCache) IDs() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int64, 0, len(c.users))
	for id := range c.users {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of cached users.
func (c *IdentityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}

// Refresh rebuilds the snapshot from the repository.
func (c *IdentityCache) Refresh(ctx context.Context, repo Repository) error {
	users, err := repo.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("refresh identity cache: %w", err)
	}

	snapshot := make(map[int64]models.User, len(users))
	for _, u := range users {
		snapshot[u.ID] = u
	}

	c.mu.Lock()
	c.users = snapshot
	c.mu.Unlock()
	return nil
}
