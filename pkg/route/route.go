// Package route computes optimal paths over per-mode network views.
//
// The search is Dijkstra's algorithm with a lazy-decrease-key min-heap:
// improved distances push duplicate heap entries, and stale entries are
// skipped on pop. All edge costs are non-negative by construction (lengths
// divided by speeds, plus non-negative penalties), so no negative-weight
// validation pass is needed. Equal-cost frontier ties break toward the
// lower node ID, which makes path selection deterministic and testable.
package route

import (
	"container/heap"
	"math"

	"github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/modegraph"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/traffic"
)

// Leg is one traversed edge of a route, with the cost actually paid at the
// route's clock time. EdgeIndex points into the network's edge slice.
type Leg struct {
	From       network.NodeID `json:"from" bson:"from"`
	To         network.NodeID `json:"to" bson:"to"`
	Cost       float64        `json:"cost" bson:"cost"`
	BaseLength float64        `json:"base_length" bson:"base_length"`
	EdgeIndex  int            `json:"edge_index" bson:"edge_index"`
}

// Result is an immutable route answer: the node sequence from start to end
// inclusive, the per-leg cost breakdown, and the total cost. A start==end
// query yields a single-node path with no legs and zero cost.
type Result struct {
	Mode      network.Mode     `json:"mode" bson:"mode"`
	Hour      float64          `json:"hour" bson:"hour"`
	Path      []network.NodeID `json:"path" bson:"path"`
	Legs      []Leg            `json:"legs,omitempty" bson:"legs,omitempty"`
	TotalCost float64          `json:"total_cost" bson:"total_cost"`
}

// FindRoute computes the cheapest path between two nodes for one mode at
// one clock time.
//
// Validation happens before any search: unknown modes, hours outside
// [0, 24) and unknown node IDs fail fast. An unreachable end node returns a
// NOT_REACHABLE error carrying the query, which callers should surface as
// an expected outcome rather than a failure. Identical calls always return
// identical results.
func FindRoute(net *network.Network, model traffic.Model, mode network.Mode, start, end network.NodeID, hour float64) (*Result, error) {
	g, err := modegraph.Build(net, model, mode, hour)
	if err != nil {
		return nil, err
	}
	if !net.HasNode(start) {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "start node %d not in network", start)
	}
	if !net.HasNode(end) {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "end node %d not in network", end)
	}

	// Trivial query: no search, no legs, zero cost.
	if start == end {
		return &Result{Mode: mode, Hour: hour, Path: []network.NodeID{start}, TotalCost: 0}, nil
	}

	res := dijkstra(g, start, end)
	if res == nil {
		return nil, errors.Wrap(errors.ErrCodeNotReachable,
			&errors.NotReachableError{Start: int(start), End: int(end), Mode: string(mode)},
			"nodes %d and %d are not connected in the %s view", start, end, mode)
	}
	return res, nil
}

// dijkstra runs the search on a built view and reconstructs the path.
// Returns nil when end is unreachable from start.
func dijkstra(g *modegraph.Graph, start, end network.NodeID) *Result {
	n := g.Order()
	dist := make([]float64, n)
	prevNode := make([]network.NodeID, n)
	prevEdge := make([]int, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prevNode[i] = -1
		prevEdge[i] = -1
	}
	dist[start] = 0

	pq := frontier{{id: start, cost: 0}}
	heap.Init(&pq)

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(entry)
		u := item.id
		if visited[u] {
			continue // stale lazy-decrease-key entry
		}
		visited[u] = true
		if u == end {
			break
		}

		for _, arc := range g.Neighbors(u) {
			if visited[arc.To] {
				continue
			}
			cand := dist[u] + arc.Cost
			if cand >= dist[arc.To] {
				continue
			}
			dist[arc.To] = cand
			prevNode[arc.To] = u
			prevEdge[arc.To] = arc.EdgeIndex
			heap.Push(&pq, entry{id: arc.To, cost: cand})
		}
	}

	if math.IsInf(dist[end], 1) {
		return nil
	}

	// Walk predecessors back from end, then reverse.
	var path []network.NodeID
	for at := end; at != -1; at = prevNode[at] {
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	legs := make([]Leg, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		u, v := path[i-1], path[i]
		legs = append(legs, Leg{
			From:       u,
			To:         v,
			Cost:       dist[v] - dist[u], // exactly the increment the search added
			BaseLength: g.Network().Edges[prevEdge[v]].BaseLength,
			EdgeIndex:  prevEdge[v],
		})
	}

	return &Result{
		Mode:      g.Mode(),
		Hour:      g.Hour(),
		Path:      path,
		Legs:      legs,
		TotalCost: dist[end],
	}
}

// entry is one heap element: a node and its tentative cost at push time.
type entry struct {
	id   network.NodeID
	cost float64
}

// frontier is a min-heap of entries ordered by cost, with equal costs
// ordered by node ID so the pop sequence is fully deterministic.
type frontier []entry

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].id < f[j].id
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(entry)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}
