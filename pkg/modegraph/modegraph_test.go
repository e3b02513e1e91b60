package modegraph_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/hyper"
	"github.com/cityscale/hypertransit/pkg/modegraph"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/traffic"
)

// fixedNet builds a small hand-placed network with two road clusters and a
// transit spur:
//
//	0 - 1 - 2   (roads)
//	3 - 4       (road)
//	    4 = 5   (transit-only)
func fixedNet(t *testing.T) *network.Network {
	t.Helper()

	points := []hyper.Point{
		{R: 0.5, Theta: 0.0},
		{R: 1.0, Theta: 0.1},
		{R: 1.5, Theta: 0.2},
		{R: 2.0, Theta: 3.0},
		{R: 2.5, Theta: 3.1},
		{R: 3.0, Theta: 3.2},
	}

	net := &network.Network{Params: network.DefaultParams()}
	for i, p := range points {
		typ := network.TypeIntersection
		if i >= 4 {
			typ = network.TypeStop
		}
		net.Nodes = append(net.Nodes, network.Node{ID: network.NodeID(i), Pos: p, Type: typ})
	}

	addEdge := func(u, v network.NodeID, road, transit bool) {
		net.Edges = append(net.Edges, network.Edge{
			U: u, V: v,
			BaseLength: hyper.Distance(net.Nodes[u].Pos, net.Nodes[v].Pos),
			Road:       road,
			Transit:    transit,
			Jitter:     1,
		})
	}
	addEdge(0, 1, true, false)
	addEdge(1, 2, true, false)
	addEdge(3, 4, true, false)
	addEdge(4, 5, false, true)

	if err := net.Validate(); err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}
	return net
}

func ids(vals ...int) []network.NodeID {
	out := make([]network.NodeID, len(vals))
	for i, v := range vals {
		out[i] = network.NodeID(v)
	}
	return out
}

func TestBuildValidation(t *testing.T) {
	net := fixedNet(t)
	model := traffic.DefaultModel()

	if _, err := modegraph.Build(net, model, network.Mode("fly"), 8); !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("bad mode error = %v, want INVALID_MODE", err)
	}
	if _, err := modegraph.Build(net, model, network.ModeWalk, 24); !errors.Is(err, errors.ErrCodeInvalidParameter) {
		t.Errorf("bad hour error = %v, want INVALID_PARAMETER", err)
	}
	if _, err := modegraph.Build(net, model, network.ModeWalk, -1); !errors.Is(err, errors.ErrCodeInvalidParameter) {
		t.Errorf("negative hour error = %v, want INVALID_PARAMETER", err)
	}
}

func TestNeighborsMatchModel(t *testing.T) {
	net := fixedNet(t)
	model := traffic.DefaultModel()
	const hour = 8.5

	for _, mode := range network.Modes() {
		g, err := modegraph.Build(net, model, mode, hour)
		if err != nil {
			t.Fatalf("Build(%s): %v", mode, err)
		}

		for id := range net.Nodes {
			for _, arc := range g.Neighbors(network.NodeID(id)) {
				e := net.Edges[arc.EdgeIndex]
				if !e.Eligible(mode) {
					t.Errorf("%s view contains ineligible edge (%d,%d)", mode, e.U, e.V)
				}
				want := model.EdgeCost(e, mode, hour)
				if arc.Cost != want {
					t.Errorf("%s arc %d->%d cost = %v, want %v", mode, id, arc.To, arc.Cost, want)
				}
				if math.IsInf(arc.Cost, 0) || math.IsNaN(arc.Cost) || arc.Cost < 0 {
					t.Errorf("%s arc %d->%d cost %v not finite non-negative", mode, id, arc.To, arc.Cost)
				}
			}
		}
	}
}

func TestNeighborsPerMode(t *testing.T) {
	net := fixedNet(t)
	model := traffic.DefaultModel()

	walk, err := modegraph.Build(net, model, network.ModeWalk, 12)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	transit, err := modegraph.Build(net, model, network.ModeTransit, 12)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := walk.Neighbors(4); len(got) != 1 || got[0].To != 3 {
		t.Errorf("walk neighbors of 4 = %+v, want only node 3", got)
	}
	if got := transit.Neighbors(4); len(got) != 1 || got[0].To != 5 {
		t.Errorf("transit neighbors of 4 = %+v, want only node 5", got)
	}
	if got := transit.Neighbors(0); len(got) != 0 {
		t.Errorf("transit neighbors of 0 = %+v, want none", got)
	}
	if got := walk.Neighbors(99); got != nil {
		t.Errorf("neighbors of unknown node = %+v, want nil", got)
	}
}

func TestComponents(t *testing.T) {
	net := fixedNet(t)
	model := traffic.DefaultModel()

	walk, err := modegraph.Build(net, model, network.ModeWalk, 12)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tests := []struct {
		node network.NodeID
		want []network.NodeID
	}{
		{0, ids(0, 1, 2)},
		{2, ids(0, 1, 2)},
		{3, ids(3, 4)},
		{5, ids(5)},
	}
	for _, tt := range tests {
		got, err := walk.Component(tt.node)
		if err != nil {
			t.Fatalf("Component(%d): %v", tt.node, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("walk component of %d = %v, want %v", tt.node, got, tt.want)
		}
	}

	if _, err := walk.Component(42); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("unknown node error = %v, want NODE_NOT_FOUND", err)
	}

	transit, err := modegraph.Build(net, model, network.ModeTransit, 12)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got, err := transit.Component(4)
	if err != nil {
		t.Fatalf("Component: %v", err)
	}
	if !reflect.DeepEqual(got, ids(4, 5)) {
		t.Errorf("transit component of 4 = %v, want [4 5]", got)
	}
}

func TestSameComponent(t *testing.T) {
	net := fixedNet(t)
	g, err := modegraph.Build(net, traffic.DefaultModel(), network.ModeWalk, 12)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if ok, err := g.SameComponent(0, 2); err != nil || !ok {
		t.Errorf("SameComponent(0,2) = %v, %v, want true", ok, err)
	}
	if ok, err := g.SameComponent(0, 3); err != nil || ok {
		t.Errorf("SameComponent(0,3) = %v, %v, want false", ok, err)
	}
	if _, err := g.SameComponent(0, 99); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("SameComponent(0,99) error = %v, want NODE_NOT_FOUND", err)
	}
}

func TestLargestComponent(t *testing.T) {
	net := fixedNet(t)
	model := traffic.DefaultModel()

	walk, err := modegraph.Build(net, model, network.ModeWalk, 12)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := walk.LargestComponent(); !reflect.DeepEqual(got, ids(0, 1, 2)) {
		t.Errorf("walk largest component = %v, want [0 1 2]", got)
	}

	transit, err := modegraph.Build(net, model, network.ModeTransit, 12)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := transit.LargestComponent(); !reflect.DeepEqual(got, ids(4, 5)) {
		t.Errorf("transit largest component = %v, want [4 5]", got)
	}
}

func TestEligibilityHelpersMatchCostedView(t *testing.T) {
	p := network.DefaultParams()
	p.Nodes = 80
	p.Threshold = 2.0
	net, err := network.Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, mode := range network.Modes() {
		g, err := modegraph.Build(net, traffic.DefaultModel(), mode, 9)
		if err != nil {
			t.Fatalf("Build(%s): %v", mode, err)
		}

		fast, err := modegraph.LargestComponent(net, mode)
		if err != nil {
			t.Fatalf("LargestComponent(%s): %v", mode, err)
		}
		if !reflect.DeepEqual(fast, g.LargestComponent()) {
			t.Errorf("%s: eligibility-only largest component differs from costed view", mode)
		}

		comp, err := modegraph.Component(net, mode, 0)
		if err != nil {
			t.Fatalf("Component(%s): %v", mode, err)
		}
		viaGraph, err := g.Component(0)
		if err != nil {
			t.Fatalf("Component(%s): %v", mode, err)
		}
		if !reflect.DeepEqual(comp, viaGraph) {
			t.Errorf("%s: eligibility-only component differs from costed view", mode)
		}
	}

	if _, err := modegraph.LargestComponent(net, network.Mode("fly")); !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("bad mode error = %v, want INVALID_MODE", err)
	}
}

// Drive uses exactly the road edges walk uses, so their components agree and
// the walk view can never lose a drive-reachable node.
func TestWalkCoversDrive(t *testing.T) {
	p := network.DefaultParams()
	p.Nodes = 100
	net, err := network.Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	walk, err := modegraph.LargestComponent(net, network.ModeWalk)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	drive, err := modegraph.LargestComponent(net, network.ModeDrive)
	if err != nil {
		t.Fatalf("drive: %v", err)
	}
	if !reflect.DeepEqual(walk, drive) {
		t.Error("walk and drive views share all road edges; components must agree")
	}
}

// Reference regression: the default parameters keep the city well
// connected. Mean degree at threshold 3 in a radius-5 disk sits far above
// the connectivity transition, so at least half the nodes share one
// component with a margin of many standard deviations.
func TestReferenceScenarioWellConnected(t *testing.T) {
	p := network.DefaultParams() // 200 nodes, radius 5, threshold 3, seed 42
	net, err := network.Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lcc, err := modegraph.LargestComponent(net, network.ModeWalk)
	if err != nil {
		t.Fatalf("LargestComponent: %v", err)
	}
	if len(lcc) < p.Nodes/2 {
		t.Errorf("largest walk component = %d nodes, want at least %d", len(lcc), p.Nodes/2)
	}
}

// A much tighter threshold thins the graph below the connectivity
// transition but must still produce a usable (non-degenerate) network.
func TestSparseThresholdStillGenerates(t *testing.T) {
	p := network.Params{Nodes: 50, MaxRadius: 5.0, Threshold: 1.2, Seed: 42, Lines: 3, StopFrac: 0.15}
	net, err := network.Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lcc, err := modegraph.LargestComponent(net, network.ModeWalk)
	if err != nil {
		t.Fatalf("LargestComponent: %v", err)
	}
	if len(lcc) < 2 {
		t.Errorf("largest walk component = %d nodes, want at least one connected pair", len(lcc))
	}
}

func TestLargestComponentDeterministic(t *testing.T) {
	net := fixedNet(t)
	g, err := modegraph.Build(net, traffic.DefaultModel(), network.ModeWalk, 12)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(g.LargestComponent(), g.LargestComponent()) {
		t.Error("LargestComponent must be stable across calls")
	}
}
