package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis so multiple Confide instances can share
// them. Expiry rides on Redis key TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store from a redis:// URL.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Put binds a hashed token to an identity id.
func (r *RedisStore) Put(ctx context.Context, tokenHash, identityID string) error {
	if err := r.client.Set(ctx, redisKeyPrefix+tokenHash, identityID, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Get returns the identity id bound to a hashed token.
func (r *RedisStore) Get(ctx context.Context, tokenHash string) (string, bool, error) {
	identityID, err := r.client.Get(ctx, redisKeyPrefix+tokenHash).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return identityID, true, nil
}

// Touch re-arms the key's TTL.
func (r *RedisStore) Touch(ctx context.Context, tokenHash string) error {
	if err := r.client.Expire(ctx, redisKeyPrefix+tokenHash, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis expire failed: %w", err)
	}
	return nil
}

// Delete removes a session.
func (r *RedisStore) Delete(ctx context.Context, tokenHash string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// Count returns the number of live sessions. Used by the metrics refresher.
func (r *RedisStore) Count(ctx context.Context) (int64, error) {
	var count int64
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan failed: %w", err)
	}
	return count, nil
}

// Client exposes the underlying client for health checks.
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// Close releases the Redis connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
