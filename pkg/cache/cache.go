// Package cache provides the byte-level cache shared by the content clients
// and the layout pipeline.
//
// # Backends
//
//   - [NullCache] stores nothing; use it to disable caching.
//   - [FileCache] keeps one JSON file per entry under a directory, for the CLI.
//   - [RedisCache] keeps entries in Redis, for several hosts sharing a cache.
//
// All backends treat a TTL of zero as "never expires".
//
// # Keys
//
// A [Keyer] builds the keys, so that every caller agrees on one layout:
//
//	k := cache.NewDefaultKeyer()
//	k.HTTPKey("strapi:", url)            // http:strapi::<url>
//	k.ItemsKey("strapi", baseURL)        // items:<sha256>
//	k.WorldKey(itemsHash, opts)          // world:<sha256>
//
// Wrap a Keyer in [NewScopedKeyer] to isolate tenants or environments.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey keys a raw HTTP response body.
	HTTPKey(namespace, key string) string

	// ItemsKey keys the normalized item list fetched from a source.
	ItemsKey(kind, location string) string

	// WorldKey keys a laid-out world.
	WorldKey(itemsHash string, opts WorldKeyOpts) string
}

// WorldKeyOpts are the layout constants that change a world's geometry.
type WorldKeyOpts struct {
	Columns     int     `json:"columns"`
	ColumnWidth float64 `json:"column_width"`
	Gap         float64 `json:"gap"`
	Jitter      float64 `json:"jitter"`
	Seed        uint64  `json:"seed"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey implements Keyer.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ItemsKey implements Keyer.
func (DefaultKeyer) ItemsKey(kind, location string) string {
	return hashKey("items", kind, location)
}

// WorldKey implements Keyer.
func (DefaultKeyer) WorldKey(itemsHash string, opts WorldKeyOpts) string {
	return hashKey("world", itemsHash, opts)
}
