// Package cache stores computed catalog results and counts under structured
// keys with tiered expiry. Backends are interchangeable (in-process or redis)
// and failures must be treated by callers as a cache miss, never as a request
// failure.
package cache

import (
	"time"

	"owo.codes/whats-this/release-catalog/lib/settings"
)

// Cache maps opaque string keys to serialized result payloads.
type Cache interface {
	// Get returns the payload stored under key and whether it was present.
	// A non-nil error means the backing store is unavailable; callers fall
	// back to direct execution.
	Get(key string) ([]byte, bool, error)

	// Put stores value under key until ttl elapses. Errors are advisory
	// for the same reason as in Get.
	Put(key string, value []byte, ttl time.Duration) error
}

// Tiers holds the three expiry tiers used by the catalog engine: short for
// volatile aggregate counts, medium for browse/search pages, long for
// poster-wall listings and category projections.
type Tiers struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// TiersFromSettings reads the three expiry tiers from the settings provider.
func TiersFromSettings(p settings.Provider) Tiers {
	return Tiers{
		Short:  p.Duration(settings.CacheExpiryShort, settings.DefaultCacheExpiryShort),
		Medium: p.Duration(settings.CacheExpiryMedium, settings.DefaultCacheExpiryMedium),
		Long:   p.Duration(settings.CacheExpiryLong, settings.DefaultCacheExpiryLong),
	}
}
