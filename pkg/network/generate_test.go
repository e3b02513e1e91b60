package network

import (
	"bytes"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/hyper"
)

func testParams() Params {
	p := DefaultParams()
	p.Nodes = 60
	p.MaxRadius = 5.0
	p.Threshold = 1.5
	p.Seed = 42
	return p
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(testParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(testParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("same params and seed must produce identical networks")
	}

	p := testParams()
	p.Seed = 43
	c, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds should produce different networks")
	}
}

func TestGenerateInvariants(t *testing.T) {
	net, err := Generate(testParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if err := net.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if len(net.Nodes) != testParams().Nodes {
		t.Errorf("nodes = %d, want %d", len(net.Nodes), testParams().Nodes)
	}

	for _, node := range net.Nodes {
		if node.Pos.R < 0 || node.Pos.R >= testParams().MaxRadius {
			t.Errorf("node %d radius %v outside [0, %v)", node.ID, node.Pos.R, testParams().MaxRadius)
		}
	}

	for _, e := range net.Edges {
		if e.Road && e.BaseLength > testParams().Threshold {
			t.Errorf("road edge (%d,%d) length %v exceeds threshold", e.U, e.V, e.BaseLength)
		}
		want := hyper.Distance(net.Nodes[e.U].Pos, net.Nodes[e.V].Pos)
		if math.Abs(e.BaseLength-want) > 1e-12 {
			t.Errorf("edge (%d,%d) base length %v, want distance %v", e.U, e.V, e.BaseLength, want)
		}
	}
}

func TestGenerateRejectsInvalidParams(t *testing.T) {
	p := testParams()
	p.Nodes = 1
	if _, err := Generate(p); !errors.Is(err, errors.ErrCodeInvalidParameter) {
		t.Errorf("error = %v, want INVALID_PARAMETER", err)
	}
}

func TestGenerateDegenerate(t *testing.T) {
	p := testParams()
	p.Threshold = 0

	_, err := Generate(p)
	if !errors.Is(err, errors.ErrCodeDegenerateNetwork) {
		t.Fatalf("error = %v, want DEGENERATE_NETWORK", err)
	}
}

func TestGenerateTransitLines(t *testing.T) {
	p := testParams()
	p.Lines = 3
	p.StopFrac = 0.2

	net, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	wantStops := int(math.Round(float64(p.Nodes) * p.StopFrac))
	stops := net.Stops()
	if len(stops) != wantStops {
		t.Errorf("stops = %d, want %d", len(stops), wantStops)
	}

	// Chaining k stops into L open runs yields exactly k-L segments; a
	// segment over an existing road edge upgrades it rather than adding a
	// duplicate, so the transit-eligible count matches.
	transit := net.EdgeCount(ModeTransit)
	if want := len(stops) - p.Lines; transit != want {
		t.Errorf("transit edges = %d, want %d", transit, want)
	}

	for _, e := range net.Edges {
		if !e.Road && !e.Transit {
			t.Errorf("edge (%d,%d) eligible for no mode", e.U, e.V)
		}
		if e.Transit && !e.Road {
			// Transit-only segments join stops, never plain intersections.
			if net.Nodes[e.U].Type != TypeStop || net.Nodes[e.V].Type != TypeStop {
				t.Errorf("transit-only edge (%d,%d) touches a non-stop node", e.U, e.V)
			}
		}
	}
}

func TestGenerateNoTransit(t *testing.T) {
	p := testParams()
	p.Lines = 0

	net, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if got := net.EdgeCount(ModeTransit); got != 0 {
		t.Errorf("transit edges = %d, want 0", got)
	}
	if got := len(net.Stops()); got != 0 {
		t.Errorf("stops = %d, want 0", got)
	}
}

func TestGenerateJitter(t *testing.T) {
	p := testParams()
	p.TrafficJitter = 0.5

	net, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	varied := false
	for _, e := range net.Edges {
		if !e.Road {
			if e.Jitter != 1 {
				t.Errorf("transit-only edge (%d,%d) jitter = %v, want 1", e.U, e.V, e.Jitter)
			}
			continue
		}
		if e.Jitter < 1 || e.Jitter > 1+p.TrafficJitter {
			t.Errorf("edge (%d,%d) jitter %v outside [1, %v]", e.U, e.V, e.Jitter, 1+p.TrafficJitter)
		}
		if e.Jitter != 1 {
			varied = true
		}
	}
	if !varied {
		t.Error("expected at least one jittered road edge")
	}

	// Jitter must not break determinism.
	again, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !reflect.DeepEqual(net, again) {
		t.Error("jittered generation must stay deterministic")
	}
}

func TestGenerateZeroJitterKeepsUnitMultiplier(t *testing.T) {
	net, err := Generate(testParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, e := range net.Edges {
		if e.Jitter != 1 {
			t.Fatalf("edge (%d,%d) jitter = %v, want 1", e.U, e.V, e.Jitter)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	net, err := Generate(testParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(net, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if !reflect.DeepEqual(net, got) {
		t.Error("round trip changed the network")
	}
}

func TestReadJSONRejectsCorruptedBaseLength(t *testing.T) {
	net, err := Generate(testParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	net.Edges[0].BaseLength += 0.5

	var buf bytes.Buffer
	if err := WriteJSON(net, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if _, err := ReadJSON(&buf); err == nil {
		t.Fatal("expected validation error for tampered base length")
	}
}

func TestExportImportJSON(t *testing.T) {
	net, err := Generate(testParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "net.json")
	if err := ExportJSON(net, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if !reflect.DeepEqual(net, got) {
		t.Error("file round trip changed the network")
	}
}
