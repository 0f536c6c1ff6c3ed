package circuits

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/umtracker/platform/pkg/common/logger"
	"github.com/umtracker/platform/pkg/common/models"
)

var ErrCacheMiss = errors.New("cache miss")

// KVStore is the slice of redis the cache needs. Tests substitute an in-memory map.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type RedisKVStore struct {
	client *redis.Client
}

func NewRedisKVStore(client *redis.Client) *RedisKVStore {
	return &RedisKVStore{client: client}
}

func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKVStore) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// CachedStore caches single-circuit lookups in front of another Store.
// Cache failures are logged and the backing store answers instead.
type CachedStore struct {
	next Store
	kv   KVStore
	ttl  time.Duration
}

func NewCachedStore(next Store, kv KVStore, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, kv: kv, ttl: ttl}
}

func cacheKey(id string) string {
	return "circuit:" + id
}

func (s *CachedStore) GetAll(ctx context.Context) ([]models.Circuit, error) {
	return s.next.GetAll(ctx)
}

func (s *CachedStore) Get(ctx context.Context, id string) (*models.Circuit, error) {
	raw, err := s.kv.Get(ctx, cacheKey(id))
	if err == nil {
		var c models.Circuit
		if jsonErr := json.Unmarshal([]byte(raw), &c); jsonErr == nil {
			return &c, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		logger.Log.WithError(err).WithField("circuit_id", id).Warn("circuit cache read failed")
	}

	c, err := s.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(c); err == nil {
		if err := s.kv.Set(ctx, cacheKey(id), string(payload), s.ttl); err != nil {
			logger.Log.WithError(err).WithField("circuit_id", id).Warn("circuit cache write failed")
		}
	}
	return c, nil
}

func (s *CachedStore) Create(ctx context.Context, c models.Circuit) error {
	return s.next.Create(ctx, c)
}

func (s *CachedStore) Update(ctx context.Context, c models.Circuit) error {
	if err := s.next.Update(ctx, c); err != nil {
		return err
	}
	s.invalidate(ctx, c.ID)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, id string) {
	if err := s.kv.Del(ctx, cacheKey(id)); err != nil {
		logger.Log.WithError(err).WithField("circuit_id", id).Warn("circuit cache invalidation failed")
	}
}
