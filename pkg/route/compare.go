package route

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/traffic"
)

// Outcome is one mode's answer in a cross-mode comparison: either a route
// or the per-mode error (typically NOT_REACHABLE). Exactly one field is set.
type Outcome struct {
	Result *Result `json:"result,omitempty" bson:"result,omitempty"`
	Err    error   `json:"-" bson:"-"`
}

// CompareModes answers the same start/end query for every travel mode and
// returns the per-mode outcomes. The shared inputs are validated once up
// front; after that the three searches are independent reads of the same
// immutable network, so they run concurrently. A mode with no connecting
// path contributes a NOT_REACHABLE outcome instead of failing the whole
// comparison.
func CompareModes(ctx context.Context, net *network.Network, model traffic.Model, start, end network.NodeID, hour float64) (map[network.Mode]Outcome, error) {
	if err := errors.ValidateTimeOfDay(hour); err != nil {
		return nil, err
	}
	if !net.HasNode(start) {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "start node %d not in network", start)
	}
	if !net.HasNode(end) {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "end node %d not in network", end)
	}

	modes := network.Modes()
	outcomes := make([]Outcome, len(modes))

	g, _ := errgroup.WithContext(ctx)
	for i, mode := range modes {
		g.Go(func() error {
			res, err := FindRoute(net, model, mode, start, end, hour)
			outcomes[i] = Outcome{Result: res, Err: err}
			return nil
		})
	}
	// Per-mode failures are outcomes, not group errors.
	_ = g.Wait()

	out := make(map[network.Mode]Outcome, len(modes))
	for i, mode := range modes {
		out[mode] = outcomes[i]
	}
	return out, nil
}

// Best picks the cheapest successful outcome. Ties resolve in canonical
// mode order (walk, drive, transit). The boolean is false when no mode
// produced a route.
func Best(outcomes map[network.Mode]Outcome) (network.Mode, *Result, bool) {
	var (
		bestMode network.Mode
		bestRes  *Result
	)
	for _, mode := range network.Modes() {
		o, ok := outcomes[mode]
		if !ok || o.Err != nil || o.Result == nil {
			continue
		}
		if bestRes == nil || o.Result.TotalCost < bestRes.TotalCost {
			bestMode, bestRes = mode, o.Result
		}
	}
	return bestMode, bestRes, bestRes != nil
}
