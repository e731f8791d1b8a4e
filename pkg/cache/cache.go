// Package cache provides byte-level caches for catalogue snapshots and built
// layouts.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entries under a directory, for CLI use
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so that every backend agrees on the key
// space. [ScopedKeyer] prefixes keys for tenant isolation.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional TTL.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs for the cached artifact kinds.
const (
	// TTLCatalogue bounds how stale a cached catalogue snapshot may be.
	TTLCatalogue = 24 * time.Hour

	// TTLLayout applies to built layouts. Layouts are a pure function of the
	// catalogue and DNA list, so they follow the catalogue's lifetime.
	TTLLayout = 24 * time.Hour
)

// Keyer generates cache keys.
type Keyer interface {
	// CatalogueKey keys a system's catalogue snapshot.
	CatalogueKey(systemID string) string

	// LayoutKey keys a built layout.
	LayoutKey(systemID string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts are the inputs that determine a built layout.
type LayoutKeyOpts struct {
	DNAs []string `json:"dnas"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// CatalogueKey implements Keyer.
func (DefaultKeyer) CatalogueKey(systemID string) string {
	return "catalogue:" + systemID
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(systemID string, opts LayoutKeyOpts) string {
	return digestKey("layout:"+systemID, opts)
}
