package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process Cache. Suitable for single-instance deployments;
// multi-instance deployments should use Redis so pages are computed once per
// cluster.
type Memory struct {
	c *gocache.Cache
}

// NewMemory returns an in-process cache that janitors expired entries every
// cleanupInterval.
func NewMemory(cleanupInterval time.Duration) *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// Get implements Cache. The in-process backend cannot be unavailable, so the
// error is always nil.
func (m *Memory) Get(key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v.([]byte), true, nil
}

// Put implements Cache.
func (m *Memory) Put(key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}
