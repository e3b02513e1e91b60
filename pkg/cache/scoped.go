package cache

// ScopedKeyer wraps a Keyer with a prefix so different deployments can share
// one backend without colliding. The API server scopes its entries apart
// from ad-hoc CLI runs pointed at the same Redis database.
//
// Example usage:
//
//	// Server-owned entries
//	srvKeyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "srv:")
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

// NetworkKey generates a prefixed key for a generated network.
func (k *ScopedKeyer) NetworkKey(opts NetworkKeyOpts) string {
	return k.prefix + k.inner.NetworkKey(opts)
}

// RouteKey generates a prefixed key for a route answer.
func (k *ScopedKeyer) RouteKey(networkHash string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(networkHash, opts)
}

// CompareKey generates a prefixed key for a cross-mode comparison.
func (k *ScopedKeyer) CompareKey(networkHash string, opts CompareKeyOpts) string {
	return k.prefix + k.inner.CompareKey(networkHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(networkHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(networkHash, opts)
}

// Ensure ScopedKeyer implements Keyer.
var _ Keyer = (*ScopedKeyer)(nil)
