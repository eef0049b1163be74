package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/triage-desk/ticket-router/internal/cache"
	"github.com/triage-desk/ticket-router/internal/config"
)

var errRedisDisabled = errors.New("redis client not configured")

// Redis holds the client behind the directory cache. An empty address
// yields a disabled handle; an unreachable server is logged and kept, since
// cache misses fall through to the store.
type Redis struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not provided; directory cache disabled")
		return &Redis{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unreachable; directory lookups go to the store", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}

	return &Redis{Client: client}
}

func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}

// DirectoryCache returns the user cache for the directory, or nil when
// redis is disabled or ttl turns caching off. The nil is an untyped
// interface so callers can test it directly.
func (r *Redis) DirectoryCache(ttl time.Duration) cache.UserCache {
	if !r.Enabled() || ttl <= 0 {
		return nil
	}
	return cache.NewRedisUserCache(r.Client, ttl)
}

func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return errRedisDisabled
	}
	return r.Client.Ping(ctx).Err()
}
