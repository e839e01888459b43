package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"noisemap/backend/services/laeq-service/internal/models"
)

// Observer receives cache hit and miss notifications.
type Observer interface {
	CacheHit()
	CacheMiss()
}

// RedisStore keeps reports in redis as JSON with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	obs    Observer
}

// NewRedisStore returns redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration, obs Observer) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, obs: obs}
}

// Get returns the cached report. A miss is (nil, false, nil).
func (s *RedisStore) Get(ctx context.Context, key string) (*models.Report, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		miss(s.obs)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var report models.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		miss(s.obs)
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	hit(s.obs)
	return &report, true, nil
}

// Set stores report under key.
func (s *RedisStore) Set(ctx context.Context, key string, report *models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

type entry struct {
	report models.Report
	exp    time.Time
}

// MemoryStore is the in-process store used when no redis address is configured.
type MemoryStore struct {
	mu  sync.RWMutex
	m   map[string]entry
	ttl time.Duration
	obs Observer
	now func() time.Time
}

// NewMemoryStore returns an in-memory store.
func NewMemoryStore(ttl time.Duration, obs Observer) *MemoryStore {
	return &MemoryStore{m: make(map[string]entry), ttl: ttl, obs: obs, now: time.Now}
}

// Get returns a copy of the cached report if it has not expired.
func (s *MemoryStore) Get(_ context.Context, key string) (*models.Report, bool, error) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok || s.now().After(e.exp) {
		miss(s.obs)
		return nil, false, nil
	}
	hit(s.obs)
	r := e.report
	return &r, true, nil
}

// Set stores a copy of report and drops expired entries.
func (s *MemoryStore) Set(_ context.Context, key string, report *models.Report) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.m {
		if now.After(e.exp) {
			delete(s.m, k)
		}
	}
	s.m[key] = entry{report: *report, exp: now.Add(s.ttl)}
	return nil
}

func hit(o Observer) {
	if o != nil {
		o.CacheHit()
	}
}

func miss(o Observer) {
	if o != nil {
		o.CacheMiss()
	}
}
