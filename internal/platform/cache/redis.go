package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"domowner/internal/platform/errors"
)

const defaultKeyPrefix = "domowner:"

// RedisStore keeps entries in Redis so several processes share lookups.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisStoreFromURL parses a redis:// URL, connects and pings.
func NewRedisStoreFromURL(ctx context.Context, url, prefix string) (*RedisStore, error) {
	if url == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "redis cache requires a URL")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "parse redis URL: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(errors.ErrConnectionFailed, "redis ping failed: %v", err)
	}
	return NewRedisStore(client, prefix), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get")
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return errors.Wrap(s.client.Set(ctx, s.prefix+key, value, ttl).Err(), "redis set")
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return errors.Wrap(s.client.Del(ctx, s.prefix+key).Err(), "redis del")
}

// Health pings the server.
func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
