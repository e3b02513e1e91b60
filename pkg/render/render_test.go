package render

import (
	"strings"
	"testing"

	"github.com/cityscale/hypertransit/pkg/hyper"
	"github.com/cityscale/hypertransit/pkg/network"
)

// testNet is a four-node network: road chain 0-1-2 with a transit edge 1-3.
func testNet() *network.Network {
	pts := []hyper.Point{
		{R: 2.0, Theta: 0.0},
		{R: 1.0, Theta: 1.0},
		{R: 1.5, Theta: 2.0},
		{R: 2.5, Theta: 4.0},
	}
	net := &network.Network{Params: network.DefaultParams()}
	for i, p := range pts {
		net.Nodes = append(net.Nodes, network.Node{ID: network.NodeID(i), Pos: p, Type: network.TypeIntersection})
	}
	net.Nodes[1].Type = network.TypeStop
	net.Nodes[3].Type = network.TypeStop

	mk := func(u, v network.NodeID, road, transit bool) network.Edge {
		return network.Edge{
			U: u, V: v,
			BaseLength: hyper.Distance(net.Nodes[u].Pos, net.Nodes[v].Pos),
			Road:       road,
			Transit:    transit,
			Jitter:     1,
		}
	}
	net.Edges = []network.Edge{
		mk(0, 1, true, false),
		mk(1, 2, true, false),
		mk(1, 3, false, true),
	}
	return net
}

func TestToDOTStructure(t *testing.T) {
	dot := ToDOT(testNet(), Options{})

	for _, want := range []string{
		"graph transport {",
		"layout=neato;",
		"outputorder=edgesfirst;",
		"0 -- 1;",
		"1 -- 2;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	// Every node is pinned: one "!" position per node
	if got := strings.Count(dot, `!"`); got != 4 {
		t.Errorf("pinned positions = %d, want 4", got)
	}

	// Node 0 sits at (2, 0) on the plot
	if !strings.Contains(dot, `0 [pos="2.0000,0.0000!"]`) {
		t.Errorf("node 0 position wrong:\n%s", dot)
	}
}

func TestToDOTColors(t *testing.T) {
	dot := ToDOT(testNet(), Options{})

	// Stops are blue markers, intersections use the default
	if !strings.Contains(dot, colorStop) {
		t.Error("stops should use the stop color")
	}
	stopLines := 0
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "color="+colorStop) {
			stopLines++
		}
	}
	if stopLines != 2 {
		t.Errorf("stop-colored nodes = %d, want 2", stopLines)
	}

	// Transit edge is green, roads stay on the edge default
	if !strings.Contains(dot, "1 -- 3 [color="+colorTransit) {
		t.Errorf("transit edge not green:\n%s", dot)
	}
	if strings.Contains(dot, "0 -- 1 [") {
		t.Error("plain road edge should carry no attributes")
	}
}

func TestToDOTHighlight(t *testing.T) {
	// Highlighting covers edges 0 and 2; red wins over transit green
	dot := ToDOT(testNet(), Options{Highlight: []int{0, 2}})

	if !strings.Contains(dot, "0 -- 1 [color="+colorRoute+", penwidth=3]") {
		t.Errorf("road edge not highlighted:\n%s", dot)
	}
	if !strings.Contains(dot, "1 -- 3 [color="+colorRoute+", penwidth=3]") {
		t.Errorf("transit edge not highlighted:\n%s", dot)
	}
	if !strings.Contains(dot, "1 -- 2;") {
		t.Error("unhighlighted edge should stay plain")
	}
}

func TestToDOTLabelsAndScale(t *testing.T) {
	dot := ToDOT(testNet(), Options{ShowLabels: true, Scale: 2})

	if !strings.Contains(dot, `xlabel="3"`) {
		t.Error("labels requested but missing")
	}
	// Scale doubles plot coordinates: node 0 moves from (2,0) to (4,0)
	if !strings.Contains(dot, `0 [pos="4.0000,0.0000!"`) {
		t.Errorf("scale not applied:\n%s", dot)
	}

	// Labels stay off by default
	if strings.Contains(ToDOT(testNet(), Options{}), "xlabel") {
		t.Error("labels should be off by default")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<?xml version="1.0"?><svg width="100pt" height="50pt" viewBox="10.00 5.00 200.00 100.00" xmlns="http://www.w3.org/2000/svg">body</svg>`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 200.00 100.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, `width="200" height="100"`) {
		t.Errorf("dimensions not rewritten: %s", out)
	}

	// SVG without a viewBox passes through untouched
	plain := []byte("<svg>x</svg>")
	if string(normalizeViewBox(plain)) != "<svg>x</svg>" {
		t.Error("missing viewBox should pass through")
	}
}
