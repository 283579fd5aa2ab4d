package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrUnavailable marks cache operations attempted against an unreachable
// or unconfigured cache.
var ErrUnavailable = errors.New("cache unavailable")

// Redis is the go-redis backed Cache implementation.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection with a ping.
// Callers that get an error back should fall back to Unavailable rather
// than abort startup; the cache is an optional tier.
func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	log.Info().Str("addr", addr).Msg("connected to Redis")
	return &Redis{client: client}, nil
}

// Get reads one key. Redis errors degrade rather than fail: the cascade
// moves on to the durable store and the degradation is logged here once.
func (r *Redis) Get(ctx context.Context, key string) GetResult {
	val, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return GetResult{Value: val, Hit: true}
	case errors.Is(err, redis.Nil):
		return GetResult{}
	default:
		log.Warn().Err(err).Str("key", key).Msg("cache read degraded")
		return GetResult{Degraded: true}
	}
}

// Set stores value with an expiry. Last writer wins; there is no
// cross-tier transaction with the durable store.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Healthy checks connectivity for the health endpoint.
func (r *Redis) Healthy(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
