package lib

import (
	"time"

	"github.com/bluele/gcache"
)

// MemoryStore is an in-process LRU response cache.
type MemoryStore struct {
	c gcache.Cache
}

// NewMemoryStore returns a store holding at most size entries.
func NewMemoryStore(size int) *MemoryStore {
	return &MemoryStore{c: gcache.New(size).LRU().Build()}
}

func (m *MemoryStore) Get(key string) ([]byte, bool) {
	val, err := m.c.Get(key)
	if err != nil {
		return nil, false
	}
	b, ok := val.([]byte)
	return b, ok
}

func (m *MemoryStore) SetWithTTL(key string, value []byte, ttl time.Duration) error {
	return m.c.SetWithExpire(key, value, ttl)
}

// Stats reports entries, hit rate in percent and lookups.
func (m *MemoryStore) Stats() (int, float64, uint64) {
	return m.c.Len(true), m.c.HitRate() * 100, m.c.LookupCount()
}
