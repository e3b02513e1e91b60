package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/metrics"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/pipeline"
	"github.com/cityscale/hypertransit/pkg/route"
	"github.com/cityscale/hypertransit/pkg/store"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerate builds (or fetches) a network and returns its summary.
// The full node/edge payload is included only on request.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidParameter, "invalid json body")
		return
	}

	net, hash, hit, err := s.runner.GenerateWithCacheInfo(r.Context(), req.Options)
	if err != nil {
		writeAppError(w, err)
		return
	}

	resp := generateResponse{Hash: hash, Stats: network.Summarize(net), Cached: hit}
	if req.IncludeNetwork {
		resp.Network = net
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRoute answers a single-mode route query against a generated network.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidParameter, "invalid json body")
		return
	}

	net, hash, _, err := s.runner.GenerateWithCacheInfo(r.Context(), opts)
	if err != nil {
		writeAppError(w, err)
		return
	}

	res, hit, err := s.runner.RouteWithCacheInfo(r.Context(), net, hash, opts)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, routeResponse{NetworkHash: hash, Route: res, Cached: hit})
}

// handleCompare answers the cross-mode comparison for one node pair.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidParameter, "invalid json body")
		return
	}

	net, hash, _, err := s.runner.GenerateWithCacheInfo(r.Context(), opts)
	if err != nil {
		writeAppError(w, err)
		return
	}

	cmp, hit, err := s.runner.CompareWithCacheInfo(r.Context(), net, hash, opts)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, compareResponse{
		NetworkHash: hash,
		Outcomes:    cmp.Outcomes,
		Best:        cmp.Best,
		Cached:      hit,
	})
}

// handleRender returns diagram artifacts for the requested formats,
// optionally with a route overlay.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidParameter, "invalid json body")
		return
	}

	net, hash, _, err := s.runner.GenerateWithCacheInfo(r.Context(), opts)
	if err != nil {
		writeAppError(w, err)
		return
	}

	res, err := s.resolveRouteOverlay(r, net, hash, opts)
	if err != nil {
		writeAppError(w, err)
		return
	}

	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), net, hash, res, opts)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, renderResponse{Hash: hash, Artifacts: artifacts, Cached: hit})
}

// handleListNetworks returns archived network summaries, newest first.
func (s *Server) handleListNetworks(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listNetworksResponse{Networks: records, Count: len(records)})
}

// handleSaveNetwork generates a network and archives it under a name.
func (s *Server) handleSaveNetwork(w http.ResponseWriter, r *http.Request) {
	var req saveNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidParameter, "invalid json body")
		return
	}
	if err := apperrors.ValidateNetworkName(req.Name); err != nil {
		writeAppError(w, err)
		return
	}

	net, hash, _, err := s.runner.GenerateWithCacheInfo(r.Context(), req.Options)
	if err != nil {
		writeAppError(w, err)
		return
	}

	rec := store.NewRecord(req.Name, net, hash)
	if err := s.store.Put(r.Context(), rec); err != nil {
		writeAppError(w, err)
		return
	}
	metrics.StoredNetworks.Inc()

	writeJSON(w, http.StatusCreated, rec.Summary())
}

// handleGetNetwork returns one archived record with its network payload.
func (s *Server) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteNetwork removes an archived record.
func (s *Server) handleDeleteNetwork(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	metrics.StoredNetworks.Dec()
	w.WriteHeader(http.StatusNoContent)
}

// === Helpers ===

// resolveRouteOverlay runs the route query for render requests that asked
// for one. Without the flag no overlay is drawn.
func (s *Server) resolveRouteOverlay(r *http.Request, net *network.Network, hash string, opts pipeline.Options) (*route.Result, error) {
	if !opts.WithRoute {
		return nil, nil
	}
	res, _, err := s.runner.RouteWithCacheInfo(r.Context(), net, hash, opts)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code apperrors.Code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: string(code), Message: message}})
}

// writeAppError maps a pipeline or store error onto an HTTP status with
// the code/message envelope.
func writeAppError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	writeError(w, statusForCode(code), code, apperrors.UserMessage(err))
}

// statusForCode maps domain error codes to HTTP status codes. Bad inputs
// are 400s, missing resources 404s, well-formed requests the network
// cannot satisfy 422s.
func statusForCode(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeInvalidParameter, apperrors.ErrCodeInvalidMode,
		apperrors.ErrCodeInvalidFormat, apperrors.ErrCodeNodeNotFound:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeNetworkNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeDegenerateNetwork, apperrors.ErrCodeNotReachable:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
