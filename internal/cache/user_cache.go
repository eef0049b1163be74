// Package cache holds read-through caches for reference data.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/triage-desk/ticket-router/internal/domain"
)

const userKeyPrefix = "directory:user:"

// UserCache stores directory entries by id. Get returns (nil, nil) on a miss.
type UserCache interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
}

type cachedUser struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// RedisUserCache keeps users as JSON strings with a TTL.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisUserCache returns nil when client is nil or ttl disables caching,
// so callers can pass the result straight through as an optional cache.
func NewRedisUserCache(client *redis.Client, ttl time.Duration) *RedisUserCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &RedisUserCache{client: client, ttl: ttl}
}

// Get looks a user up by id.
func (c *RedisUserCache) Get(ctx context.Context, id string) (*domain.User, error) {
	raw, err := c.client.Get(ctx, userKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// Set stores user under its id.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User) error {
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, userKeyPrefix+user.ID, raw, c.ttl).Err()
}

func encodeUser(user *domain.User) ([]byte, error) {
	return json.Marshal(cachedUser{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}

func decodeUser(raw []byte) (*domain.User, error) {
	var cu cachedUser
	if err := json.Unmarshal(raw, &cu); err != nil {
		return nil, err
	}
	if cu.ID == "" || !cu.Role.Valid() {
		return nil, errors.New("corrupt cached user")
	}
	return &domain.User{ID: cu.ID, Username: cu.Username, Role: cu.Role, CreatedAt: cu.CreatedAt}, nil
}
