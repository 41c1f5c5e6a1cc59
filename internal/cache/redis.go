package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 2 * time.Second

// RedisStore is the Redis backend. Expiry is delegated to the server via
// SET EX, so entries vanish on their own. Any connectivity problem is a
// cache miss, never an error; the CLI must work with Redis down.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore for the given address and resource key.
func NewRedisStore(addr, key, baseURL string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			DialTimeout:  redisTimeout,
			ReadTimeout:  redisTimeout,
			WriteTimeout: redisTimeout,
		}),
		key: fmt.Sprintf("ftg:%s:%s", sanitizeKey(key), urlSuffix(baseURL)),
		ttl: ttl,
	}
}

// Get loads cached items into dst. Returns false on miss.
func (s *RedisStore) Get(dst any) bool {
	if disabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// Put writes items to the cache. Silently no-ops on error or when disabled.
func (s *RedisStore) Put(items any) {
	if disabled() {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	_ = s.client.Set(ctx, s.key, data, s.ttl).Err()
}

// Clear removes this cache key.
func (s *RedisStore) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	_ = s.client.Del(ctx, s.key).Err()
}
