package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The HTTP server uses it so that catalogues uploaded by different clients
// never share cache entries.
//
// Example usage:
//
//	tenantKeyer := NewScopedKeyer(NewDefaultKeyer(), "tenant:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// CatalogueKey generates a prefixed key for catalogue caching.
func (k *ScopedKeyer) CatalogueKey(systemID string) string {
	return k.prefix + k.inner.CatalogueKey(systemID)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(systemID string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(systemID, opts)
}
