package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fundlens/fundlens/pkg/errors"
)

// RedisStore implements Store on Redis. Entry expiry is delegated to Redis
// itself, so expired entries never linger: SweepExpired is a no-op and the
// per-type Expired stat is always zero. Access counters live in a companion
// key sharing the entry's TTL.
type RedisStore struct {
	client    goredis.UniversalClient
	namespace string
}

// RedisConfig holds connection settings for the Redis cache store.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	Namespace string        `yaml:"namespace"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		Namespace: "fundlens",
		Timeout:   3 * time.Second,
	}
}

// NewRedisStore creates a Redis-backed cache store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = "fundlens"
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, namespace: cfg.Namespace}, nil
}

// NewRedisStoreWithClient wraps an existing client, used in tests.
func NewRedisStoreWithClient(client goredis.UniversalClient, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "fundlens"
	}
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) redisKey(derived string) string {
	return s.namespace + ":" + derived
}

func (s *RedisStore) hitsKey(derived string) string {
	return s.namespace + ":" + derived + "#hits"
}

// Get retrieves the payload. Redis evicts expired keys itself, so a miss
// covers both absent and expired entries. Hits bump the companion counter.
func (s *RedisStore) Get(ctx context.Context, cacheType string, params Params) (json.RawMessage, bool, error) {
	key := Key(cacheType, params)

	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	// Best-effort access tracking; a lost increment never affects
	// correctness of the cached payload.
	_ = s.client.Incr(ctx, s.hitsKey(key)).Err()

	return data, true, nil
}

// Set stores value under the derived key. A zero TTL means the entry must be
// expired on its very next read, which on Redis is a plain delete.
func (s *RedisStore) Set(ctx context.Context, cacheType string, params Params, value any, ttl time.Duration) (string, error) {
	key := Key(cacheType, params)

	payload, err := json.Marshal(value)
	if err != nil {
		return "", errors.NewDataIntegrity("cache.set", "payload not serializable", err)
	}

	if ttl <= 0 {
		pipe := s.client.TxPipeline()
		pipe.Del(ctx, s.redisKey(key))
		pipe.Del(ctx, s.hitsKey(key))
		if _, err := pipe.Exec(ctx); err != nil {
			return "", fmt.Errorf("redis set (expired): %w", err)
		}
		return key, nil
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.redisKey(key), payload, ttl)
	pipe.Set(ctx, s.hitsKey(key), 0, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis set: %w", err)
	}
	return key, nil
}

// Delete removes the addressed entry.
func (s *RedisStore) Delete(ctx context.Context, cacheType string, params Params) (bool, error) {
	key := Key(cacheType, params)

	n, err := s.client.Del(ctx, s.redisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete: %w", err)
	}
	_ = s.client.Del(ctx, s.hitsKey(key)).Err()
	return n > 0, nil
}

// ClearType removes every entry of the given type by prefix scan.
func (s *RedisStore) ClearType(ctx context.Context, cacheType string) (int, error) {
	pattern := s.namespace + ":" + cacheType + ":*"
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()

	count := 0
	for iter.Next(ctx) {
		key := iter.Val()
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return count, fmt.Errorf("redis clear type: %w", err)
		}
		if !strings.HasSuffix(key, "#hits") {
			count++
		}
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("redis scan: %w", err)
	}
	return count, nil
}

// SweepExpired is a no-op: Redis expires entries natively.
func (s *RedisStore) SweepExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// Stats counts live entries per type. Expired is always zero on Redis.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	pattern := s.namespace + ":*"
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()

	stats := Stats{ByType: make(map[string]TypeStats)}
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasSuffix(key, "#hits") {
			continue
		}
		// namespace:type:hash
		parts := strings.SplitN(key, ":", 3)
		if len(parts) != 3 {
			continue
		}
		ts := stats.ByType[parts[1]]
		ts.Total++
		ts.Active++
		stats.ByType[parts[1]] = ts
		stats.TotalEntries++
	}
	if err := iter.Err(); err != nil {
		return Stats{}, fmt.Errorf("redis scan: %w", err)
	}
	return stats, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
