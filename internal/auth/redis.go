package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTokenKey = "tiny-erp-mcp:tokens"

// RedisStore persists the token record under a single key, encrypted at
// rest. The key carries a TTL matching the refresh token's lifetime, so an
// abandoned installation leaves nothing behind.
type RedisStore struct {
	client        *redis.Client
	encryptionKey string
	now           func() time.Time
}

// NewRedisStore connects to Redis and verifies connectivity.
func NewRedisStore(redisURL, encryptionKey string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisStore{client: client, encryptionKey: encryptionKey, now: time.Now}, nil
}

// Save stamps, encrypts, and replaces the token key.
func (s *RedisStore) Save(pair *TokenPair) error {
	pair.stamp(s.now())

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encoding token record: %w", err)
	}

	sealed, err := sealRecord(data, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("encrypting token record: %w", err)
	}

	ttl := time.Until(time.UnixMilli(pair.RefreshTokenExpiresAt))
	if ttl <= 0 {
		ttl = time.Hour
	}

	if err := s.client.Set(context.Background(), redisTokenKey, sealed, ttl).Err(); err != nil {
		return fmt.Errorf("writing token record: %w", err)
	}
	return nil
}

// Load returns the stored pair, or (nil, nil) when absent or undecryptable.
func (s *RedisStore) Load() (*TokenPair, error) {
	sealed, err := s.client.Get(context.Background(), redisTokenKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token record: %w", err)
	}

	data, err := openRecord(sealed, s.encryptionKey)
	if err != nil {
		return nil, nil
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil || pair.AccessToken == "" {
		return nil, nil
	}
	return &pair, nil
}

// Clear deletes the token key; idempotent.
func (s *RedisStore) Clear() error {
	if err := s.client.Del(context.Background(), redisTokenKey).Err(); err != nil {
		return fmt.Errorf("clearing token record: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }
