package idem

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies when a caller passes a non-positive ttl.
const DefaultTTL = 10 * time.Minute

// Store remembers keys for a while. PutNX reports whether key was new;
// Release forgets a key so the request it guarded can be retried.
type Store interface {
	PutNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}

type redisStore struct{ r *redis.Client }

func NewRedis(rdb *redis.Client) Store {
	return &redisStore{r: rdb}
}

func (s *redisStore) PutNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.r.SetNX(ctx, "idem:"+key, "1", ttlOrDefault(ttl)).Result()
}

func (s *redisStore) Release(ctx context.Context, key string) error {
	return s.r.Del(ctx, "idem:"+key).Err()
}

type memoryStore struct{ c *cache.Cache }

func NewMemory() Store {
	return &memoryStore{c: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (s *memoryStore) PutNX(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if err := s.c.Add(key, struct{}{}, ttlOrDefault(ttl)); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *memoryStore) Release(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}
