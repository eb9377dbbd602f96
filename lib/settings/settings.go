// Package settings exposes site-wide configuration values to the catalog
// engine through a narrow Provider interface. The engine never reads ambient
// configuration itself; main constructs a Provider and passes it in.
package settings

import (
	"time"

	"github.com/spf13/viper"
)

// Well-known setting keys consumed by the catalog engine.
const (
	// ShowPasswordedReleases selects the visibility policy over the
	// password status column (0, 1, 2 or 10).
	ShowPasswordedReleases = "catalog.showPasswordedReleases"

	// MaxPagerResults caps the number of rows a pagination count query is
	// allowed to scan.
	MaxPagerResults = "catalog.maxPagerResults"

	// Cache expiry tiers.
	CacheExpiryShort  = "cache.expiryShort"
	CacheExpiryMedium = "cache.expiryMedium"
	CacheExpiryLong   = "cache.expiryLong"
)

// Default values used when a key is absent from the backing store.
const (
	DefaultShowPasswordedReleases = 10
	DefaultMaxPagerResults        = 125000

	DefaultCacheExpiryShort  = 60 * time.Second
	DefaultCacheExpiryMedium = 10 * time.Minute
	DefaultCacheExpiryLong   = 24 * time.Hour
)

// Provider is a single-key read interface over the site settings store.
type Provider interface {
	// Int returns the integer value for key, or def if the key is absent.
	Int(key string, def int) int

	// Duration returns the duration value for key, or def if the key is
	// absent.
	Duration(key string, def time.Duration) time.Duration
}

// Viper is a Provider backed by a *viper.Viper instance.
type Viper struct {
	v *viper.Viper
}

// NewViper returns a Provider reading from v.
func NewViper(v *viper.Viper) *Viper {
	return &Viper{v: v}
}

// Int implements Provider.
func (p *Viper) Int(key string, def int) int {
	if !p.v.IsSet(key) {
		return def
	}
	return p.v.GetInt(key)
}

// Duration implements Provider.
func (p *Viper) Duration(key string, def time.Duration) time.Duration {
	if !p.v.IsSet(key) {
		return def
	}
	return p.v.GetDuration(key)
}

// Static is a fixed map Provider, used in tests and tooling.
type Static map[string]interface{}

// Int implements Provider.
func (s Static) Int(key string, def int) int {
	if v, ok := s[key].(int); ok {
		return v
	}
	return def
}

// Duration implements Provider.
func (s Static) Duration(key string, def time.Duration) time.Duration {
	if v, ok := s[key].(time.Duration); ok {
		return v
	}
	return def
}
