package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"shipping-charge-service/internal/metrics"
)

// Store is the shared cache for carrier code lookups and catalogs.
// Values are stored JSON encoded under a service wide key prefix.
type Store interface {
	// Get decodes the cached value into dest and reports whether the key was present
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Set caches value for ttl
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Delete removes a key
	Delete(ctx context.Context, key string) error
}

const keyPrefix = "shipping-charge:"

// NewStore returns a Redis backed store, or an in-process one when client is nil
func NewStore(client *redis.Client, logger *logrus.Entry) Store {
	if client == nil {
		return NewMemoryStore()
	}
	return &RedisStore{client: client, logger: logger}
}

// RedisStore keeps cache entries in Redis
type RedisStore struct {
	client *redis.Client
	logger *logrus.Entry
}

// Get retrieves a cached value
func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CodeCacheLookups.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.CodeCacheLookups.WithLabelValues("error").Inc()
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// A corrupt entry is treated as a miss and dropped
		s.logger.WithError(err).WithField("key", key).Warn("Dropping undecodable cache entry")
		_ = s.client.Del(ctx, keyPrefix+key).Err()
		metrics.CodeCacheLookups.WithLabelValues("error").Inc()
		return false, nil
	}
	metrics.CodeCacheLookups.WithLabelValues("hit").Inc()
	return true, nil
}

// Set caches a value
func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+key, data, ttl).Err()
}

// Delete removes a cached value
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store used when Redis is unavailable
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get retrieves a cached value
func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || (!entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)) {
		metrics.CodeCacheLookups.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		metrics.CodeCacheLookups.WithLabelValues("error").Inc()
		return false, err
	}
	metrics.CodeCacheLookups.WithLabelValues("hit").Inc()
	return true, nil
}

// Set caches a value, a zero ttl never expires
func (s *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes a cached value
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
