package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finhistory/internal/config"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces keys written by the rate limiter.
const DefaultPrefix = "finhistory:limiter:"

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisStorage implements fiber.Storage on top of a Redis client so limiter
// counters are shared between server instances.
type RedisStorage struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStorage{
		client:  client,
		prefix:  prefix,
		timeout: 2 * time.Second,
	}
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + k
}

func (s *RedisStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns nil, nil for a missing key as fiber.Storage requires.
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.Set(ctx, s.key(key), val, exp).Err()
}

func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.Del(ctx, s.key(key)).Err()
}

// Reset removes every key under the storage prefix.
func (s *RedisStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()

	keys, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return s.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// HealthCheck pings the Redis server.
func (s *RedisStorage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// GetStats exposes the client's connection pool statistics.
func (s *RedisStorage) GetStats() *redis.PoolStats {
	return s.client.PoolStats()
}
