// Package session persists each user's conversational state in Redis so
// dialogs survive restarts.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mpsb/internal/flow"
)

// Store loads and saves per-user conversation state.
type Store interface {
	// Load returns the stored state, or (nil, nil) when the user has none.
	Load(ctx context.Context, userID int64) (*flow.AppState, error)
	Save(ctx context.Context, userID int64, state *flow.AppState) error
	Reset(ctx context.Context, userID int64) error
}

// RedisStore keeps sessions as JSON under a per-user key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a store on an already-connected client. ttl of zero
// keeps sessions forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (s *RedisStore) Load(ctx context.Context, userID int64) (*flow.AppState, error) {
	raw, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", userID, err)
	}

	var state flow.AppState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// A corrupt payload is treated as no session so the dialog can
		// restart instead of wedging the user.
		zerolog.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).
			Msg("corrupt session payload, discarding")
		return nil, nil
	}
	if state.Data == nil {
		state.Data = map[string]any{}
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, userID int64, state *flow.AppState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", userID, err)
	}
	if err := s.client.Set(ctx, sessionKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", userID, err)
	}
	return nil
}

func (s *RedisStore) Reset(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("reset session %d: %w", userID, err)
	}
	return nil
}
