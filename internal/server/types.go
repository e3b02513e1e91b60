package server

import (
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/pipeline"
	"github.com/cityscale/hypertransit/pkg/route"
	"github.com/cityscale/hypertransit/pkg/store"
)

// generateRequest carries generation parameters plus API-only flags.
// Zero-valued parameters fall back to pipeline defaults.
type generateRequest struct {
	pipeline.Options
	IncludeNetwork bool `json:"include_network,omitempty"`
}

// saveNetworkRequest names a network to generate and archive.
type saveNetworkRequest struct {
	pipeline.Options
	Name string `json:"name"`
}

type generateResponse struct {
	Hash    string           `json:"hash"`
	Stats   network.Stats    `json:"stats"`
	Cached  bool             `json:"cached"`
	Network *network.Network `json:"network,omitempty"`
}

type routeResponse struct {
	NetworkHash string        `json:"network_hash"`
	Route       *route.Result `json:"route"`
	Cached      bool          `json:"cached"`
}

type compareResponse struct {
	NetworkHash string                                `json:"network_hash"`
	Outcomes    map[network.Mode]pipeline.ModeOutcome `json:"outcomes"`
	Best        network.Mode                          `json:"best,omitempty"`
	Cached      bool                                  `json:"cached"`
}

// renderResponse carries artifacts keyed by format. Byte slices marshal as
// base64 strings in JSON.
type renderResponse struct {
	Hash      string            `json:"hash"`
	Artifacts map[string][]byte `json:"artifacts"`
	Cached    bool              `json:"cached"`
}

type listNetworksResponse struct {
	Networks []*store.Record `json:"networks"`
	Count    int             `json:"count"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
