package cache

// NetworkKeyOpts identifies a generated network by its generation parameters.
// Two runs with equal options produce byte-identical networks, so the options
// are the network's cache identity.
type NetworkKeyOpts struct {
	Nodes     int
	MaxRadius float64
	Threshold float64
	Seed      uint64
	Lines     int
	StopFrac  float64
	Jitter    float64
}

// RouteKeyOpts distinguishes route queries against the same network.
// ModelHash folds the traffic model in, since costs depend on it.
type RouteKeyOpts struct {
	Mode      string
	Start     int
	End       int
	Hour      float64
	ModelHash string
}

// CompareKeyOpts distinguishes cross-mode comparisons against the same network.
type CompareKeyOpts struct {
	Start     int
	End       int
	Hour      float64
	ModelHash string
}

// ArtifactKeyOpts distinguishes rendered artifacts of the same network.
// WithRoute marks renders that overlay a highlighted route; the route
// identity fields only matter when it is set.
type ArtifactKeyOpts struct {
	Format    string
	Hour      float64
	ModelHash string
	WithRoute bool
	RouteMode string
	Start     int
	End       int
}

// Keyer derives cache keys for the pipeline stages.
// Implementations must be deterministic: equal inputs yield equal keys.
type Keyer interface {
	// NetworkKey returns the key for a generated network.
	NetworkKey(opts NetworkKeyOpts) string

	// RouteKey returns the key for a route answer on the given network.
	RouteKey(networkHash string, opts RouteKeyOpts) string

	// CompareKey returns the key for a cross-mode comparison.
	CompareKey(networkHash string, opts CompareKeyOpts) string

	// ArtifactKey returns the key for a rendered artifact.
	ArtifactKey(networkHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the structured options into namespaced keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// NetworkKey generates a key for a generated network.
func (k *DefaultKeyer) NetworkKey(opts NetworkKeyOpts) string {
	return hashKey("network", opts)
}

// RouteKey generates a key for a route answer.
func (k *DefaultKeyer) RouteKey(networkHash string, opts RouteKeyOpts) string {
	return hashKey("route", networkHash, opts)
}

// CompareKey generates a key for a cross-mode comparison.
func (k *DefaultKeyer) CompareKey(networkHash string, opts CompareKeyOpts) string {
	return hashKey("compare", networkHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(networkHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", networkHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
