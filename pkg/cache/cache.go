// Package cache stores computed layouts and rendered artifacts.
//
// Caching is keyed by content: the hash of the input graph plus the
// simulation settings for layouts, and the hash of the layout plus render
// options for artifacts. Since a seeded run is deterministic, a cached
// layout is indistinguishable from a fresh one. Running simulations are
// never cached; only finished results are.
//
// Three backends are provided:
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: disables caching
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs for cached entries.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds everything besides the graph that determines a layout.
type LayoutKeyOpts struct {
	Seed   uint64  `json:"seed"`
	Ticks  int     `json:"ticks"`
	Settle float64 `json:"settle,omitempty"`
	Params any     `json:"params"`
}

// ArtifactKeyOpts holds the render options that determine an artifact.
type ArtifactKeyOpts struct {
	Format      string `json:"format"`
	Fit         bool   `json:"fit,omitempty"`
	Detailed    bool   `json:"detailed,omitempty"`
	Interactive bool   `json:"interactive,omitempty"`
}

// DefaultKeyer produces keys of the form "layout:<sha256>" and
// "artifact:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns the key for a layout of the graph with the given hash.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey returns the key for an artifact rendered from a layout.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
