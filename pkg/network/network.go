// Package network generates and represents synthetic transport networks
// embedded in hyperbolic space.
//
// A Network is a set of nodes placed in the Poincaré disk plus two kinds of
// edges: road edges, created between every node pair closer than a connection
// threshold, and transit-line edges, which chain a sampled subset of nodes
// ("stops") into scheduled lines. Road edges are walkable and drivable;
// transit eligibility is carried separately so a line segment can either ride
// on top of an existing road edge or exist as a transit-only link.
//
// Networks are immutable once generated. Same parameters and seed always
// produce an identical Network.
package network

import (
	"math"

	"github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/hyper"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Travel modes.
const (
	ModeWalk    Mode = "walk"
	ModeDrive   Mode = "drive"
	ModeTransit Mode = "transit"
)

// Node types.
const (
	TypeIntersection NodeType = "intersection"
	TypeStop         NodeType = "stop"
)

// Mode is a travel mode tag. The zero value is not a valid mode.
type Mode string

// Modes returns all travel modes in canonical order.
func Modes() []Mode {
	return []Mode{ModeWalk, ModeDrive, ModeTransit}
}

// Valid reports whether m is a recognized travel mode.
func (m Mode) Valid() bool {
	return m == ModeWalk || m == ModeDrive || m == ModeTransit
}

// String returns the mode tag.
func (m Mode) String() string { return string(m) }

// ParseMode converts a string to a Mode, rejecting unknown tags.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", errors.New(errors.ErrCodeInvalidMode, "unknown mode %q (valid: walk, drive, transit)", s)
	}
	return m, nil
}

// NodeType tags a node as a plain intersection or a transit stop.
type NodeType string

// =============================================================================
// Node and Edge
// =============================================================================

// NodeID identifies a node. IDs are sequential from 0 and double as the
// node's index into Network.Nodes.
type NodeID int

// Node is a point in the hyperbolic disk. Created once at generation time,
// immutable thereafter.
type Node struct {
	ID   NodeID      `json:"id" bson:"id"`
	Pos  hyper.Point `json:"pos" bson:"pos"`
	Type NodeType    `json:"type" bson:"type"`
}

// Edge is an unordered node pair with a fixed base length. The invariant
// U < V canonicalizes the pair so duplicate detection is a map lookup.
//
// Road edges are walk- and drive-eligible. Transit marks eligibility for the
// transit mode; an edge with Road=false and Transit=true is a transit-only
// line segment. Effective traversal cost is never stored here: it is derived
// per query from the base length, the mode and the clock.
type Edge struct {
	U          NodeID  `json:"u" bson:"u"`
	V          NodeID  `json:"v" bson:"v"`
	BaseLength float64 `json:"base_length" bson:"base_length"`
	Road       bool    `json:"road" bson:"road"`
	Transit    bool    `json:"transit" bson:"transit"`

	// Jitter is a per-edge drive congestion multiplier >= 1, sampled once at
	// generation time when Params.TrafficJitter > 0. It stays 1 otherwise.
	Jitter float64 `json:"jitter" bson:"jitter"`
}

// Eligible reports whether the edge is traversable in the given mode.
func (e Edge) Eligible(mode Mode) bool {
	switch mode {
	case ModeWalk, ModeDrive:
		return e.Road
	case ModeTransit:
		return e.Transit
	default:
		return false
	}
}

// Other returns the endpoint opposite to id. The second result is false if
// id is not an endpoint of this edge.
func (e Edge) Other(id NodeID) (NodeID, bool) {
	switch id {
	case e.U:
		return e.V, true
	case e.V:
		return e.U, true
	default:
		return 0, false
	}
}

// =============================================================================
// Params
// =============================================================================

// Params configures network generation. The zero value is not usable; start
// from DefaultParams and override.
type Params struct {
	Nodes     int     `json:"nodes" bson:"nodes" toml:"nodes"`                   // Node count N
	MaxRadius float64 `json:"max_radius" bson:"max_radius" toml:"max_radius"`    // Disk radius bound R
	Threshold float64 `json:"threshold" bson:"threshold" toml:"threshold"`       // Max hyperbolic distance for a road edge
	Seed      uint64  `json:"seed" bson:"seed" toml:"seed"`                      // RNG seed; same seed, same network
	Lines     int     `json:"transit_lines" bson:"transit_lines" toml:"transit_lines"` // Transit line count (0 disables transit)
	StopFrac  float64 `json:"stop_fraction" bson:"stop_fraction" toml:"stop_fraction"` // Fraction of nodes marked as stops

	// TrafficJitter widens the per-edge drive congestion multiplier range to
	// [1, 1+TrafficJitter]. Zero keeps drive costs exactly length/speed
	// scaled by the time-of-day factor.
	TrafficJitter float64 `json:"traffic_jitter" bson:"traffic_jitter" toml:"traffic_jitter"`
}

// DefaultParams returns the canonical generation defaults: a 200-node city
// in a radius-5 disk with threshold 3, three transit lines over 15% of the
// nodes, seed 42.
func DefaultParams() Params {
	return Params{
		Nodes:         200,
		MaxRadius:     5.0,
		Threshold:     3.0,
		Seed:          42,
		Lines:         3,
		StopFrac:      0.15,
		TrafficJitter: 0,
	}
}

// Validate rejects out-of-range parameters before any generation work
// happens. A zero Threshold passes here: it fails later as a degenerate
// network, not as an invalid parameter.
func (p Params) Validate() error {
	if p.Nodes <= 1 {
		return errors.New(errors.ErrCodeInvalidParameter, "node count must be at least 2, got %d", p.Nodes)
	}
	if !(p.MaxRadius > 0) || math.IsInf(p.MaxRadius, 1) {
		return errors.New(errors.ErrCodeInvalidParameter, "max radius must be positive and finite, got %v", p.MaxRadius)
	}
	if p.Threshold < 0 || math.IsNaN(p.Threshold) || math.IsInf(p.Threshold, 0) {
		return errors.New(errors.ErrCodeInvalidParameter, "connection threshold must be non-negative and finite, got %v", p.Threshold)
	}
	if p.Lines < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "transit line count must be non-negative, got %d", p.Lines)
	}
	if p.StopFrac < 0 || p.StopFrac > 1 || math.IsNaN(p.StopFrac) {
		return errors.New(errors.ErrCodeInvalidParameter, "stop fraction must be in [0, 1], got %v", p.StopFrac)
	}
	if p.TrafficJitter < 0 || math.IsNaN(p.TrafficJitter) || math.IsInf(p.TrafficJitter, 0) {
		return errors.New(errors.ErrCodeInvalidParameter, "traffic jitter must be non-negative and finite, got %v", p.TrafficJitter)
	}
	return nil
}

// =============================================================================
// Network
// =============================================================================

// Network is the generated node and edge set plus the parameters that
// produced it. Treat it as immutable: routing and rendering only read it.
type Network struct {
	Params Params `json:"params" bson:"params"`
	Nodes  []Node `json:"nodes" bson:"nodes"`
	Edges  []Edge `json:"edges" bson:"edges"`
}

// Node returns the node with the given ID.
func (n *Network) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(n.Nodes) {
		return Node{}, false
	}
	return n.Nodes[id], true
}

// HasNode reports whether id identifies a node in this network.
func (n *Network) HasNode(id NodeID) bool {
	return id >= 0 && int(id) < len(n.Nodes)
}

// Stops returns the IDs of all transit-stop nodes in ID order.
func (n *Network) Stops() []NodeID {
	var stops []NodeID
	for _, node := range n.Nodes {
		if node.Type == TypeStop {
			stops = append(stops, node.ID)
		}
	}
	return stops
}

// EdgeCount returns the number of edges eligible for the given mode.
func (n *Network) EdgeCount(mode Mode) int {
	count := 0
	for _, e := range n.Edges {
		if e.Eligible(mode) {
			count++
		}
	}
	return count
}

// Validate checks the structural invariants that generation guarantees:
// sequential node IDs, canonical endpoint order, no self-loops, no duplicate
// edges, every base length equal to the hyperbolic distance between its
// endpoints, and every jitter multiplier at least 1. Used by tests and when
// loading a network from external storage.
func (n *Network) Validate() error {
	for i, node := range n.Nodes {
		if node.ID != NodeID(i) {
			return errors.New(errors.ErrCodeInternal, "node at index %d has ID %d, want sequential IDs", i, node.ID)
		}
	}

	seen := make(map[[2]NodeID]struct{}, len(n.Edges))
	for _, e := range n.Edges {
		if e.U == e.V {
			return errors.New(errors.ErrCodeInternal, "self-loop on node %d", e.U)
		}
		if e.U > e.V {
			return errors.New(errors.ErrCodeInternal, "edge (%d,%d) endpoints not in canonical order", e.U, e.V)
		}
		if !n.HasNode(e.U) || !n.HasNode(e.V) {
			return errors.New(errors.ErrCodeInternal, "edge (%d,%d) references unknown node", e.U, e.V)
		}
		key := [2]NodeID{e.U, e.V}
		if _, dup := seen[key]; dup {
			return errors.New(errors.ErrCodeInternal, "duplicate edge (%d,%d)", e.U, e.V)
		}
		seen[key] = struct{}{}

		want := hyper.Distance(n.Nodes[e.U].Pos, n.Nodes[e.V].Pos)
		if math.Abs(e.BaseLength-want) > 1e-9 {
			return errors.New(errors.ErrCodeInternal,
				"edge (%d,%d) base length %v does not match endpoint distance %v", e.U, e.V, e.BaseLength, want)
		}
		if e.Jitter < 1 {
			return errors.New(errors.ErrCodeInternal, "edge (%d,%d) jitter %v below 1", e.U, e.V, e.Jitter)
		}
		if !e.Road && !e.Transit {
			return errors.New(errors.ErrCodeInternal, "edge (%d,%d) eligible for no mode", e.U, e.V)
		}
	}
	return nil
}
