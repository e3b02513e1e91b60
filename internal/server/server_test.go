package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	apperrors "github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/modegraph"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return New(Options{Logger: logger})
}

// do sends a request through the full handler stack and returns the recorder.
func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// errCode pulls the error code out of an error envelope.
func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorResponse](t, rec).Error.Code
}

// smallParams keeps test generations fast.
func smallParams() map[string]any {
	return map[string]any{"nodes": 50, "threshold": 2.5, "seed": 42}
}

// reachablePair generates the test network directly and picks two
// walk-connected nodes. Determinism guarantees the server's generation
// from the same parameters produces the identical network.
func reachablePair(t *testing.T) (int, int) {
	t.Helper()
	params := network.DefaultParams()
	params.Nodes = 50
	params.Threshold = 2.5
	params.Seed = 42
	net, err := network.Generate(params)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	comp, err := modegraph.LargestComponent(net, network.ModeWalk)
	if err != nil {
		t.Fatalf("LargestComponent: %v", err)
	}
	if len(comp) < 2 {
		t.Fatalf("largest walk component too small: %d", len(comp))
	}
	return int(comp[0]), int(comp[len(comp)-1])
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want 200", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := testServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry a generated X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-chosen")
	rec2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec2, req)
	if got := rec2.Header().Get("X-Request-ID"); got != "caller-chosen" {
		t.Errorf("X-Request-ID = %q, want caller-chosen", got)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	srv := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/generate", smallParams())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[generateResponse](t, rec)
	if resp.Hash == "" {
		t.Error("hash should be set")
	}
	if resp.Stats.Nodes != 50 {
		t.Errorf("stats.nodes = %d, want 50", resp.Stats.Nodes)
	}
	if resp.Network != nil {
		t.Error("network payload should be omitted by default")
	}

	body := smallParams()
	body["include_network"] = true
	rec = do(t, srv, http.MethodPost, "/api/v1/generate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp = decodeBody[generateResponse](t, rec)
	if resp.Network == nil || len(resp.Network.Nodes) != 50 {
		t.Error("include_network should return the full payload")
	}
}

func TestGenerateRejectsInvalidParams(t *testing.T) {
	srv := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/generate", map[string]any{"nodes": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errCode(t, rec); code != "INVALID_PARAMETER" {
		t.Errorf("error code = %q, want INVALID_PARAMETER", code)
	}
}

func TestGenerateRejectsMalformedJSON(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRouteEndpoint(t *testing.T) {
	srv := testServer(t)
	start, end := reachablePair(t)

	body := smallParams()
	body["mode"] = "walk"
	body["start"] = start
	body["end"] = end
	rec := do(t, srv, http.MethodPost, "/api/v1/route", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[routeResponse](t, rec)
	if resp.Route == nil {
		t.Fatal("route should be set")
	}
	if resp.Route.Mode != network.ModeWalk {
		t.Errorf("mode = %s, want walk", resp.Route.Mode)
	}
	if len(resp.Route.Legs) == 0 {
		t.Error("route should have legs")
	}
	if resp.NetworkHash == "" {
		t.Error("network hash should be set")
	}
}

func TestRouteNotReachable(t *testing.T) {
	srv := testServer(t)

	// Without transit lines the transit layer has no edges at all.
	body := smallParams()
	body["no_transit"] = true
	body["mode"] = "transit"
	body["start"] = 0
	body["end"] = 1
	rec := do(t, srv, http.MethodPost, "/api/v1/route", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body %s", rec.Code, rec.Body)
	}
	if code := errCode(t, rec); code != "NOT_REACHABLE" {
		t.Errorf("error code = %q, want NOT_REACHABLE", code)
	}
}

func TestRouteInvalidMode(t *testing.T) {
	srv := testServer(t)

	body := smallParams()
	body["mode"] = "teleport"
	rec := do(t, srv, http.MethodPost, "/api/v1/route", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errCode(t, rec); code != "INVALID_MODE" {
		t.Errorf("error code = %q, want INVALID_MODE", code)
	}
}

func TestRouteUnknownNode(t *testing.T) {
	srv := testServer(t)

	body := smallParams()
	body["mode"] = "walk"
	body["start"] = 0
	body["end"] = 5000
	rec := do(t, srv, http.MethodPost, "/api/v1/route", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body)
	}
	if code := errCode(t, rec); code != "NODE_NOT_FOUND" {
		t.Errorf("error code = %q, want NODE_NOT_FOUND", code)
	}
}

func TestCompareEndpoint(t *testing.T) {
	srv := testServer(t)
	start, end := reachablePair(t)

	body := smallParams()
	body["start"] = start
	body["end"] = end
	rec := do(t, srv, http.MethodPost, "/api/v1/compare", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[compareResponse](t, rec)
	if len(resp.Outcomes) != len(network.Modes()) {
		t.Fatalf("outcomes = %d, want %d", len(resp.Outcomes), len(network.Modes()))
	}
	walk := resp.Outcomes[network.ModeWalk]
	if walk.Result == nil && walk.Error == "" {
		t.Error("walk outcome should carry a result or an error code")
	}
	if resp.Best == "" {
		t.Error("best mode should be set for a walk-connected pair")
	}
}

func TestRenderEndpointDOT(t *testing.T) {
	srv := testServer(t)

	body := smallParams()
	body["formats"] = []string{"dot"}
	rec := do(t, srv, http.MethodPost, "/api/v1/render", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[renderResponse](t, rec)
	dot, ok := resp.Artifacts["dot"]
	if !ok {
		t.Fatal("dot artifact missing")
	}
	if !bytes.Contains(dot, []byte("graph transport {")) {
		t.Errorf("dot artifact does not look like DOT: %.80s", dot)
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	srv := testServer(t)

	body := smallParams()
	body["formats"] = []string{"gif"}
	rec := do(t, srv, http.MethodPost, "/api/v1/render", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errCode(t, rec); code != "INVALID_FORMAT" {
		t.Errorf("error code = %q, want INVALID_FORMAT", code)
	}
}

func TestNetworksCRUD(t *testing.T) {
	srv := testServer(t)

	// Save
	body := smallParams()
	body["name"] = "downtown-grid"
	rec := do(t, srv, http.MethodPost, "/api/v1/networks", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body)
	}
	saved := decodeBody[store.Record](t, rec)
	if saved.ID == "" || saved.Name != "downtown-grid" {
		t.Fatalf("saved record = %+v", saved)
	}
	if saved.Network != nil {
		t.Error("save response should omit the network payload")
	}

	// List
	rec = do(t, srv, http.MethodGet, "/api/v1/networks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decodeBody[listNetworksResponse](t, rec)
	if list.Count != 1 || len(list.Networks) != 1 {
		t.Fatalf("list count = %d, want 1", list.Count)
	}
	if list.Networks[0].ID != saved.ID {
		t.Errorf("listed ID = %s, want %s", list.Networks[0].ID, saved.ID)
	}

	// Get with payload
	rec = do(t, srv, http.MethodGet, "/api/v1/networks/"+saved.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	got := decodeBody[store.Record](t, rec)
	if got.Network == nil || len(got.Network.Nodes) != 50 {
		t.Error("get should return the full network payload")
	}

	// Delete
	rec = do(t, srv, http.MethodDelete, "/api/v1/networks/"+saved.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	// Get after delete
	rec = do(t, srv, http.MethodGet, "/api/v1/networks/"+saved.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
	if code := errCode(t, rec); code != "NETWORK_NOT_FOUND" {
		t.Errorf("error code = %q, want NETWORK_NOT_FOUND", code)
	}
}

func TestSaveNetworkRejectsBadName(t *testing.T) {
	srv := testServer(t)

	body := smallParams()
	body["name"] = "bad name!"
	rec := do(t, srv, http.MethodPost, "/api/v1/networks", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStatusForCode(t *testing.T) {
	checks := map[apperrors.Code]int{
		apperrors.ErrCodeInvalidParameter:  http.StatusBadRequest,
		apperrors.ErrCodeInvalidMode:       http.StatusBadRequest,
		apperrors.ErrCodeInvalidFormat:     http.StatusBadRequest,
		apperrors.ErrCodeNodeNotFound:      http.StatusBadRequest,
		apperrors.ErrCodeNotFound:          http.StatusNotFound,
		apperrors.ErrCodeNetworkNotFound:   http.StatusNotFound,
		apperrors.ErrCodeNotReachable:      http.StatusUnprocessableEntity,
		apperrors.ErrCodeDegenerateNetwork: http.StatusUnprocessableEntity,
		apperrors.ErrCodeUnsupported:       http.StatusNotImplemented,
		apperrors.ErrCodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range checks {
		if got := statusForCode(code); got != want {
			t.Errorf("statusForCode(%s) = %d, want %d", code, got, want)
		}
	}
}
