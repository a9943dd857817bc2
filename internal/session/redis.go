package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis hash per session, with the key TTL
// refreshed on every write.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Compile-time check to ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. Sessions expire ttl after their last
// write. The prefix namespaces keys when the Redis instance is shared.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// redisKey returns the Redis key for a given session ID.
func (r *RedisStore) redisKey(id string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, id)
}

// Get implements Store.Get.
func (r *RedisStore) Get(ctx context.Context, id, field string) (string, bool, error) {
	value, err := r.client.HGet(ctx, r.redisKey(id), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading session field from redis: %w", err)
	}
	return value, true, nil
}

// Set implements Store.Set.
func (r *RedisStore) Set(ctx context.Context, id, field, value string) error {
	key := r.redisKey(id)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, field, value)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing session field to redis: %w", err)
	}
	return nil
}

// Delete implements Store.Delete.
func (r *RedisStore) Delete(ctx context.Context, id string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, r.redisKey(id), fields...).Err(); err != nil {
		return fmt.Errorf("deleting session fields from redis: %w", err)
	}
	return nil
}

// Clear implements Store.Clear.
func (r *RedisStore) Clear(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.redisKey(id)).Err(); err != nil {
		return fmt.Errorf("deleting session from redis: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
