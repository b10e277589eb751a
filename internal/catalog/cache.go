package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/config"
)

// Cache holds the catalog snapshot.
type Cache interface {
	Load(ctx context.Context) ([]Item, bool, error)
	Store(ctx context.Context, items []Item) error
	Invalidate(ctx context.Context) error
}

// MemoryCache keeps the snapshot in process.
type MemoryCache struct {
	mu     sync.RWMutex
	items  []Item
	loaded bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (m *MemoryCache) Load(context.Context) ([]Item, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loaded {
		return nil, false, nil
	}
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out, true, nil
}

func (m *MemoryCache) Store(_ context.Context, items []Item) error {
	m.mu.Lock()
	m.items = append([]Item(nil), items...)
	m.loaded = true
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Invalidate(context.Context) error {
	m.mu.Lock()
	m.items, m.loaded = nil, false
	m.mu.Unlock()
	return nil
}

// DefaultRedisKey holds the JSON-encoded snapshot.
const DefaultRedisKey = "storefront:catalog:snapshot"

// RedisCache shares one snapshot between API instances.
type RedisCache struct {
	rdb redis.UniversalClient
	key string
	ttl time.Duration
}

func NewRedisCache(rdb redis.UniversalClient, key string, ttl time.Duration) *RedisCache {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisCache{rdb: rdb, key: key, ttl: ttl}
}

func (r *RedisCache) Load(ctx context.Context) ([]Item, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	return items, true, nil
}

func (r *RedisCache) Store(ctx context.Context, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key, raw, r.ttl).Err()
}

func (r *RedisCache) Invalidate(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}

// DialRedis connects to the configured Redis and checks it answers.
func DialRedis(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{cfg.Addr()},
		DB:           cfg.DB,
		Password:     cfg.Password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr(), err)
	}
	return rdb, nil
}
