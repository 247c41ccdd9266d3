package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores drafts as plain string values with a sliding TTL.
type RedisKV struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisKV(rdb redis.UniversalClient, ttl time.Duration) *RedisKV {
	return &RedisKV{rdb: rdb, ttl: ttl}
}

// DialRedisKV connects to addr and verifies the server answers before returning.
func DialRedisKV(ctx context.Context, addr string, ttl time.Duration) (*RedisKV, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisKV(rdb, ttl), nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, val []byte) error {
	if err := r.rdb.Set(ctx, key, val, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Close() error { return r.rdb.Close() }
