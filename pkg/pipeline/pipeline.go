// Package pipeline provides the core generation and query pipeline for
// hypertransit.
//
// This package implements the generate → query → render flow that can be
// used by CLI and API components. By centralizing this logic, we ensure
// consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Generate: Build a deterministic network from generation parameters
//  2. Query: Answer route and cross-mode comparison questions against it
//  3. Render: Produce output in various formats (DOT, SVG, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Nodes:   200,
//	    Seed:    42,
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Generate only
//	net, err := runner.Generate(ctx, opts)
//
//	// Route against an existing network
//	res, err := runner.Route(ctx, net, hash, opts)
//
//	// Compare all modes
//	cmp, err := runner.Compare(ctx, net, hash, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cityscale/hypertransit/pkg/cache"
	"github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/route"
	"github.com/cityscale/hypertransit/pkg/traffic"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultNodes is the default intersection count.
	DefaultNodes = 200

	// DefaultMaxRadius is the default disk radius bound.
	DefaultMaxRadius = 5.0

	// DefaultThreshold is the default road-edge distance threshold.
	DefaultThreshold = 3.0

	// DefaultLines is the default transit line count.
	DefaultLines = 3

	// DefaultStopFrac is the default fraction of nodes promoted to stops.
	DefaultStopFrac = 0.15

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultMode is the travel mode used when none is requested.
	DefaultMode = string(network.ModeWalk)

	// DefaultPlotScale is the default plot-to-inches factor for rendering.
	DefaultPlotScale = 1.0
)

// Format constants for output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Generation options
	Nodes     int     `json:"nodes,omitempty"`
	MaxRadius float64 `json:"max_radius,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Seed      uint64  `json:"seed,omitempty"`
	Lines     int     `json:"transit_lines,omitempty"`
	NoTransit bool    `json:"no_transit,omitempty"` // Disable transit lines entirely
	StopFrac  float64 `json:"stop_fraction,omitempty"`
	Jitter    float64 `json:"traffic_jitter,omitempty"`
	Refresh   bool    `json:"refresh,omitempty"`

	// Query options
	Mode  string  `json:"mode,omitempty"`
	Start int     `json:"start,omitempty"`
	End   int     `json:"end,omitempty"`
	Hour  float64 `json:"hour,omitempty"` // Time of day in [0, 24); zero is midnight

	// Render options
	Formats    []string `json:"formats,omitempty"`
	WithRoute  bool     `json:"with_route,omitempty"` // Overlay the Start→End route on renders
	ShowLabels bool     `json:"show_labels,omitempty"`
	PlotScale  float64  `json:"plot_scale,omitempty"`

	// Traffic model override. Nil means traffic.DefaultModel.
	Traffic *traffic.Model `json:"traffic,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Network is the generated network.
	Network *network.Network

	// NetworkHash is the content hash of the serialized network.
	NetworkHash string

	// NetStats summarizes the network's degree and length distributions.
	NetStats network.Stats

	// Route is the single-mode answer, set when a route overlay was requested.
	Route *route.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	GenerateTime time.Duration
	RouteTime    time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	NetworkHit bool // Whether the network came from cache
	RouteHit   bool // Whether the route answer came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// ModeOutcome is the serializable answer for one mode in a comparison.
// Exactly one of Result and Error is set; Error carries the error code.
type ModeOutcome struct {
	Result *route.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// CompareResult aggregates per-mode outcomes plus the winning mode.
// Best is empty when no mode produced a route.
type CompareResult struct {
	Outcomes map[network.Mode]ModeOutcome `json:"outcomes"`
	Best     network.Mode                 `json:"best,omitempty"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForGenerate(); err != nil {
		return err
	}
	if err := o.ValidateForQuery(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetGenerateDefaults fills unset generation fields.
func (o *Options) SetGenerateDefaults() {
	if o.Nodes == 0 {
		o.Nodes = DefaultNodes
	}
	if o.MaxRadius == 0 {
		o.MaxRadius = DefaultMaxRadius
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.NoTransit {
		o.Lines = 0
	} else if o.Lines == 0 {
		o.Lines = DefaultLines
	}
	if o.StopFrac == 0 {
		o.StopFrac = DefaultStopFrac
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForGenerate validates and sets defaults for network generation.
func (o *Options) ValidateForGenerate() error {
	o.SetGenerateDefaults()
	return o.Params().Validate()
}

// SetQueryDefaults fills unset query fields.
func (o *Options) SetQueryDefaults() {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForQuery validates and sets defaults for route queries.
// Node existence is checked later against the actual network.
func (o *Options) ValidateForQuery() error {
	o.SetQueryDefaults()
	if _, err := network.ParseMode(o.Mode); err != nil {
		return err
	}
	if err := errors.ValidateTimeOfDay(o.Hour); err != nil {
		return err
	}
	return o.Model().Validate()
}

// SetRenderDefaults fills unset render fields.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.PlotScale == 0 {
		o.PlotScale = DefaultPlotScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// Params assembles the generation parameters.
func (o *Options) Params() network.Params {
	return network.Params{
		Nodes:         o.Nodes,
		MaxRadius:     o.MaxRadius,
		Threshold:     o.Threshold,
		Seed:          o.Seed,
		Lines:         o.Lines,
		StopFrac:      o.StopFrac,
		TrafficJitter: o.Jitter,
	}
}

// Model returns the traffic model in effect.
func (o *Options) Model() traffic.Model {
	if o.Traffic != nil {
		return *o.Traffic
	}
	return traffic.DefaultModel()
}

// NetworkKeyOpts returns cache key options for network generation.
func (o *Options) NetworkKeyOpts() cache.NetworkKeyOpts {
	return cache.NetworkKeyOpts{
		Nodes:     o.Nodes,
		MaxRadius: o.MaxRadius,
		Threshold: o.Threshold,
		Seed:      o.Seed,
		Lines:     o.Lines,
		StopFrac:  o.StopFrac,
		Jitter:    o.Jitter,
	}
}

// RouteKeyOpts returns cache key options for a route query.
func (o *Options) RouteKeyOpts(modelHash string) cache.RouteKeyOpts {
	return cache.RouteKeyOpts{
		Mode:      o.Mode,
		Start:     o.Start,
		End:       o.End,
		Hour:      o.Hour,
		ModelHash: modelHash,
	}
}

// CompareKeyOpts returns cache key options for a cross-mode comparison.
func (o *Options) CompareKeyOpts(modelHash string) cache.CompareKeyOpts {
	return cache.CompareKeyOpts{
		Start:     o.Start,
		End:       o.End,
		Hour:      o.Hour,
		ModelHash: modelHash,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format, modelHash string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		Hour:      o.Hour,
		ModelHash: modelHash,
		WithRoute: o.WithRoute,
		RouteMode: o.Mode,
		Start:     o.Start,
		End:       o.End,
	}
}
