// Package modegraph derives per-mode weighted adjacency views from a
// network and a traffic model.
//
// A Graph is a snapshot: one travel mode, one clock time, weights already
// computed. It is never persisted independently of its inputs, so costs can
// not go stale; rebuilding for a different hour is cheap relative to the
// routing work that follows. Connectivity queries (components, the largest
// component for node pickers) depend only on edge eligibility and are also
// available without constructing a costed snapshot.
package modegraph

import (
	"sort"

	"github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/traffic"
)

// Arc is one weighted adjacency entry. EdgeIndex points back into the
// network's edge slice for per-edge cost breakdowns.
type Arc struct {
	To        network.NodeID
	Cost      float64
	EdgeIndex int
}

// Graph is a single-mode weighted view over a network at a fixed hour.
// It reads the network and never mutates it.
type Graph struct {
	net  *network.Network
	mode network.Mode
	hour float64
	adj  [][]Arc
}

// Build constructs the weighted adjacency for one mode at one clock time.
// The mode and hour are validated here so routing can assume both are good.
func Build(net *network.Network, model traffic.Model, mode network.Mode, hour float64) (*Graph, error) {
	if !mode.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidMode, "unknown mode %q (valid: walk, drive, transit)", string(mode))
	}
	if err := errors.ValidateTimeOfDay(hour); err != nil {
		return nil, err
	}

	g := &Graph{
		net:  net,
		mode: mode,
		hour: hour,
		adj:  make([][]Arc, len(net.Nodes)),
	}

	for i, e := range net.Edges {
		if !e.Eligible(mode) {
			continue
		}
		cost := model.EdgeCost(e, mode, hour)
		g.adj[e.U] = append(g.adj[e.U], Arc{To: e.V, Cost: cost, EdgeIndex: i})
		g.adj[e.V] = append(g.adj[e.V], Arc{To: e.U, Cost: cost, EdgeIndex: i})
	}

	return g, nil
}

// Mode returns the travel mode this view was built for.
func (g *Graph) Mode() network.Mode { return g.mode }

// Hour returns the clock time this view was built for.
func (g *Graph) Hour() float64 { return g.hour }

// Network returns the underlying network.
func (g *Graph) Network() *network.Network { return g.net }

// Order returns the node count.
func (g *Graph) Order() int { return len(g.adj) }

// Neighbors returns the weighted adjacency of a node. The returned slice is
// shared with the graph; callers must not modify it.
func (g *Graph) Neighbors(id network.NodeID) []Arc {
	if id < 0 || int(id) >= len(g.adj) {
		return nil
	}
	return g.adj[id]
}

// Component returns the IDs of all nodes reachable from id in this view,
// id included, in ascending order.
func (g *Graph) Component(id network.NodeID) ([]network.NodeID, error) {
	if !g.net.HasNode(id) {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "node %d not in network", id)
	}
	visited := make([]bool, len(g.adj))
	comp := g.flood(id, visited)
	sort.Slice(comp, func(a, b int) bool { return comp[a] < comp[b] })
	return comp, nil
}

// SameComponent reports whether two nodes are mutually reachable.
func (g *Graph) SameComponent(a, b network.NodeID) (bool, error) {
	comp, err := g.Component(a)
	if err != nil {
		return false, err
	}
	if !g.net.HasNode(b) {
		return false, errors.New(errors.ErrCodeNodeNotFound, "node %d not in network", b)
	}
	for _, id := range comp {
		if id == b {
			return true, nil
		}
	}
	return false, nil
}

// LargestComponent returns the node IDs of the largest connected component
// in ascending order. Ties go to the component containing the smallest node
// ID, which the ascending scan visits first.
func (g *Graph) LargestComponent() []network.NodeID {
	visited := make([]bool, len(g.adj))
	var best []network.NodeID
	for id := range g.adj {
		if visited[id] {
			continue
		}
		comp := g.flood(network.NodeID(id), visited)
		if len(comp) > len(best) {
			best = comp
		}
	}
	sort.Slice(best, func(a, b int) bool { return best[a] < best[b] })
	return best
}

// flood collects the component of start into the shared visited set.
func (g *Graph) flood(start network.NodeID, visited []bool) []network.NodeID {
	if visited[start] {
		return nil
	}
	visited[start] = true
	comp := []network.NodeID{start}
	queue := []network.NodeID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, arc := range g.adj[cur] {
			if !visited[arc.To] {
				visited[arc.To] = true
				comp = append(comp, arc.To)
				queue = append(queue, arc.To)
			}
		}
	}
	return comp
}

// =============================================================================
// Eligibility-only connectivity
// =============================================================================

// Component returns the connected component containing id under the given
// mode's eligibility, without computing costs. Useful for node pickers that
// have no clock or traffic model in hand.
func Component(net *network.Network, mode network.Mode, id network.NodeID) ([]network.NodeID, error) {
	g, err := eligibilityGraph(net, mode)
	if err != nil {
		return nil, err
	}
	return g.Component(id)
}

// LargestComponent returns the largest connected component under the given
// mode's eligibility. Component membership is time-independent: the clock
// changes costs, never which edges exist.
func LargestComponent(net *network.Network, mode network.Mode) ([]network.NodeID, error) {
	g, err := eligibilityGraph(net, mode)
	if err != nil {
		return nil, err
	}
	return g.LargestComponent(), nil
}

// eligibilityGraph builds an uncosted view: arcs carry zero cost.
func eligibilityGraph(net *network.Network, mode network.Mode) (*Graph, error) {
	if !mode.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidMode, "unknown mode %q (valid: walk, drive, transit)", string(mode))
	}

	g := &Graph{net: net, mode: mode, adj: make([][]Arc, len(net.Nodes))}
	for i, e := range net.Edges {
		if !e.Eligible(mode) {
			continue
		}
		g.adj[e.U] = append(g.adj[e.U], Arc{To: e.V, EdgeIndex: i})
		g.adj[e.V] = append(g.adj[e.V], Arc{To: e.U, EdgeIndex: i})
	}
	return g, nil
}
