package catalogue

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/modhaus/modlayout/pkg/cache"
	"github.com/modhaus/modlayout/pkg/observability"
)

// CachedSource serves snapshots from a cache, falling back to a remote
// Source on a miss. Remote fetches are retried with backoff when the remote
// marks its failure as retryable.
type CachedSource struct {
	Remote Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Refresh skips the cache read (the result is still written back).
	Refresh bool
}

// NewCachedSource wraps remote with c. Nil arguments fall back to a
// NullCache, the default keyer and the default logger.
func NewCachedSource(remote Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *CachedSource {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachedSource{Remote: remote, Cache: c, Keyer: keyer, Logger: logger}
}

// Fetch implements Source.
func (s *CachedSource) Fetch(ctx context.Context, systemID string) (*Snapshot, error) {
	key := s.Keyer.CatalogueKey(systemID)

	if !s.Refresh {
		data, hit, err := s.Cache.Get(ctx, key)
		switch {
		case err != nil:
			s.Logger.Warn("catalogue cache read failed", "system", systemID, "err", err)
		case hit:
			var d Data
			if err := json.Unmarshal(data, &d); err == nil {
				if snap, err := NewSnapshot(d); err == nil {
					observability.Cache().OnCacheHit(ctx, "catalogue")
					s.Logger.Debug("catalogue cache hit", "system", systemID)
					return snap, nil
				}
			}
			// Undecodable entries are treated as a miss and overwritten below.
		}
		observability.Cache().OnCacheMiss(ctx, "catalogue")
	}

	var snap *Snapshot
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		snap, err = s.Remote.Fetch(ctx, systemID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if d, ok := snap.Data(systemID); ok {
		if data, err := json.Marshal(d); err == nil {
			if err := s.Cache.Set(ctx, key, data, cache.TTLCatalogue); err != nil {
				s.Logger.Warn("catalogue cache write failed", "system", systemID, "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "catalogue", len(data))
			}
		}
	}
	return snap, nil
}
