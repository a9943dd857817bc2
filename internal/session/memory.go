package session

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// record holds one session's fields. The cache serializes access to the
// record pointer; the mutex serializes access to the map behind it.
type record struct {
	mu     sync.RWMutex
	values map[string]string
}

// MemoryStore implements Store in process memory with TTL-based expiry.
// Access touches the TTL, so active sessions stay alive.
type MemoryStore struct {
	cache *ttlcache.Cache[string, *record]
}

// Compile-time check to ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore whose sessions expire after ttl of
// inactivity. Expired sessions are cleaned up by a background goroutine
// until Close is called.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *record](ttl),
	)

	go cache.Start()

	return &MemoryStore{
		cache: cache,
	}
}

// Get implements Store.Get.
func (m *MemoryStore) Get(ctx context.Context, id, field string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	item := m.cache.Get(id)
	if item == nil {
		return "", false, nil
	}

	rec := item.Value()
	rec.mu.RLock()
	defer rec.mu.RUnlock()

	value, ok := rec.values[field]
	return value, ok, nil
}

// Set implements Store.Set.
func (m *MemoryStore) Set(ctx context.Context, id, field, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	item, _ := m.cache.GetOrSet(id, &record{values: make(map[string]string)})

	rec := item.Value()
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.values[field] = value
	return nil
}

// Delete implements Store.Delete.
func (m *MemoryStore) Delete(ctx context.Context, id string, fields ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	item := m.cache.Get(id)
	if item == nil {
		return nil
	}

	rec := item.Value()
	rec.mu.Lock()
	defer rec.mu.Unlock()

	for _, field := range fields {
		delete(rec.values, field)
	}
	return nil
}

// Clear implements Store.Clear.
func (m *MemoryStore) Clear(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.cache.Delete(id)
	return nil
}

// Close stops the cleanup goroutine.
func (m *MemoryStore) Close() error {
	m.cache.Stop()
	return nil
}
