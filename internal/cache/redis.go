package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps a go-redis client with JSON list helpers.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// Config defines connection parameters for Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
}

// New returns a Redis client based on provided configuration.
func New(cfg Config, logger *slog.Logger) *Redis {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &Redis{
		client: redis.NewClient(opts),
		logger: logger.With("component", "redis"),
	}
}

// Client exposes the underlying go-redis client.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// PushJSON prepends value, encoded as JSON, to the list at key.
func (r *Redis) PushJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := r.client.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("redis lpush %s: %w", key, err)
	}
	return nil
}

// PopJSON blocks up to timeout for the oldest element of the list at key and
// decodes it into dest. It reports false when the wait expired empty.
func (r *Redis) PopJSON(ctx context.Context, key string, timeout time.Duration, dest any) (bool, error) {
	res, err := r.client.BRPop(ctx, timeout, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis brpop %s: %w", key, err)
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return false, fmt.Errorf("redis brpop %s: unexpected reply length %d", key, len(res))
	}
	if err := json.Unmarshal([]byte(res[1]), dest); err != nil {
		r.logger.Warn("dropping undecodable list entry", "key", key, "error", err)
		return false, fmt.Errorf("json unmarshal: %w", err)
	}
	return true, nil
}

// Len returns the length of the list at key.
func (r *Redis) Len(ctx context.Context, key string) (int64, error) {
	n, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis llen %s: %w", key, err)
	}
	return n, nil
}

// Close releases Redis resources.
func (r *Redis) Close() error {
	return r.client.Close()
}
