package network

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/hyper"
)

// Generate builds a network from params. The same params always yield an
// identical network: all randomness flows through one seeded generator with
// a fixed draw order (node positions, then stop selection, then jitter).
//
// Road edges join every node pair whose hyperbolic distance is at most
// params.Threshold. Transit lines chain a sampled stop subset in angular
// order. Returns a DEGENERATE_NETWORK error when the threshold produces
// zero road edges; no partial network is ever returned.
func Generate(params Params) (*Network, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(params.Seed, params.Seed^0xdeadbeef))

	nodes := make([]Node, params.Nodes)
	for i := range nodes {
		p, err := hyper.SamplePoint(rng, params.MaxRadius)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "sampling node %d", i)
		}
		nodes[i] = Node{ID: NodeID(i), Pos: p, Type: TypeIntersection}
	}

	net := &Network{Params: params, Nodes: nodes}

	// Road edges: every pair within the connection threshold. O(N²) pair
	// enumeration is fine at demo scale (a few hundred nodes).
	index := make(map[[2]NodeID]int)
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			d := hyper.Distance(nodes[i].Pos, nodes[j].Pos)
			if d > params.Threshold {
				continue
			}
			index[[2]NodeID{NodeID(i), NodeID(j)}] = len(net.Edges)
			net.Edges = append(net.Edges, Edge{
				U: NodeID(i), V: NodeID(j),
				BaseLength: d,
				Road:       true,
				Jitter:     1,
			})
		}
	}

	if len(net.Edges) == 0 {
		return nil, errors.New(errors.ErrCodeDegenerateNetwork,
			"no node pair within threshold %v; widen the threshold or increase node density", params.Threshold)
	}

	buildTransitLines(net, rng, index)

	if params.TrafficJitter > 0 {
		for i := range net.Edges {
			if net.Edges[i].Road {
				net.Edges[i].Jitter = 1 + rng.Float64()*params.TrafficJitter
			}
		}
	}

	return net, nil
}

// buildTransitLines marks a sampled fraction of nodes as stops, orders them
// by angle, splits the ordering into params.Lines contiguous runs, and joins
// consecutive stops within each run. A segment over an existing road edge
// upgrades it to transit-eligible; otherwise a transit-only edge is added.
func buildTransitLines(net *Network, rng *rand.Rand, index map[[2]NodeID]int) {
	params := net.Params
	if params.Lines == 0 || params.StopFrac == 0 {
		return
	}

	count := int(math.Round(float64(params.Nodes) * params.StopFrac))
	if count < 2 {
		count = 2
	}
	if count > params.Nodes {
		count = params.Nodes
	}

	perm := rng.Perm(params.Nodes)
	stops := make([]NodeID, count)
	for i := 0; i < count; i++ {
		id := NodeID(perm[i])
		stops[i] = id
		net.Nodes[id].Type = TypeStop
	}

	// Angular order makes each line sweep a contiguous arc of the disk.
	sort.Slice(stops, func(a, b int) bool {
		pa, pb := net.Nodes[stops[a]].Pos, net.Nodes[stops[b]].Pos
		if pa.Theta != pb.Theta {
			return pa.Theta < pb.Theta
		}
		return stops[a] < stops[b]
	})

	lines := params.Lines
	if lines > count {
		lines = count
	}

	// Split into near-equal contiguous runs. Runs shorter than 2 stops
	// contribute no segments.
	for line := 0; line < lines; line++ {
		lo := line * count / lines
		hi := (line + 1) * count / lines
		for i := lo; i+1 < hi; i++ {
			addTransitSegment(net, index, stops[i], stops[i+1])
		}
	}
}

// addTransitSegment makes the edge between two stops transit-eligible,
// creating a transit-only edge when no road edge joins them.
func addTransitSegment(net *Network, index map[[2]NodeID]int, a, b NodeID) {
	if a == b {
		return
	}
	if a > b {
		a, b = b, a
	}
	key := [2]NodeID{a, b}
	if i, ok := index[key]; ok {
		net.Edges[i].Transit = true
		return
	}
	index[key] = len(net.Edges)
	net.Edges = append(net.Edges, Edge{
		U: a, V: b,
		BaseLength: hyper.Distance(net.Nodes[a].Pos, net.Nodes[b].Pos),
		Transit:    true,
		Jitter:     1,
	})
}
