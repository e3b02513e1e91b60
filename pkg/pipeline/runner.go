package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/cityscale/hypertransit/pkg/cache"
	apperrors "github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/network"
	"github.com/cityscale/hypertransit/pkg/observability"
	"github.com/cityscale/hypertransit/pkg/render"
	"github.com/cityscale/hypertransit/pkg/route"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// flight coalesces concurrent generations of the same network so a
	// burst of identical API requests computes it once.
	flight singleflight.Group
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete generate → query → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Generate
	genStart := time.Now()
	net, hash, netHit, err := r.GenerateWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Network = net
	result.NetworkHash = hash
	result.NetStats = network.Summarize(net)
	result.Stats.GenerateTime = time.Since(genStart)
	result.Stats.NodeCount = len(net.Nodes)
	result.Stats.EdgeCount = len(net.Edges)
	result.CacheInfo.NetworkHit = netHit

	r.Logger.Info("generated network",
		"nodes", len(net.Nodes),
		"edges", len(net.Edges),
		"duration", result.Stats.GenerateTime)

	// Stage 2: Query (only when a route overlay was requested)
	if opts.WithRoute {
		routeStart := time.Now()
		res, routeHit, err := r.RouteWithCacheInfo(ctx, net, hash, opts)
		if err != nil {
			return nil, err
		}
		result.Route = res
		result.Stats.RouteTime = time.Since(routeStart)
		result.CacheInfo.RouteHit = routeHit

		r.Logger.Info("found route",
			"mode", res.Mode,
			"hops", len(res.Legs),
			"cost", res.TotalCost,
			"duration", result.Stats.RouteTime)
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, net, hash, result.Route, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// GenerateWithCacheInfo builds the network with caching and returns the
// network, its content hash, and cache hit info.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, opts Options) (*network.Network, string, bool, error) {
	if err := opts.ValidateForGenerate(); err != nil {
		return nil, "", false, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.NetworkKey(opts.NetworkKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			net, err := network.ReadJSON(bytes.NewReader(data))
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "network")
				return net, cache.Hash(data), true, nil // Cache hit
			}
		}
		observability.Cache().OnCacheMiss(ctx, "network")
	}

	// Generate, coalescing concurrent identical requests
	v, err, _ := r.flight.Do(cacheKey, func() (interface{}, error) {
		start := time.Now()
		observability.Pipeline().OnGenerateStart(ctx, opts.Nodes, opts.Seed)
		net, err := network.Generate(opts.Params())
		if err != nil {
			observability.Pipeline().OnGenerateComplete(ctx, 0, 0, time.Since(start), err)
			return nil, err
		}
		observability.Pipeline().OnGenerateComplete(ctx, len(net.Nodes), len(net.Edges), time.Since(start), nil)

		var buf bytes.Buffer
		if err := network.WriteJSON(net, &buf); err != nil {
			return nil, err
		}
		data := buf.Bytes()

		if !opts.Refresh {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLNetwork)
			observability.Cache().OnCacheSet(ctx, "network", len(data))
		}
		return &generated{net: net, hash: cache.Hash(data)}, nil
	})
	if err != nil {
		return nil, "", false, err
	}

	gen := v.(*generated)
	return gen.net, gen.hash, false, nil // Cache miss
}

// generated carries a network and its content hash through singleflight.
type generated struct {
	net  *network.Network
	hash string
}

// Generate is a convenience wrapper that calls GenerateWithCacheInfo and
// discards the hash and cache hit info.
func (r *Runner) Generate(ctx context.Context, opts Options) (*network.Network, error) {
	net, _, _, err := r.GenerateWithCacheInfo(ctx, opts)
	return net, err
}

// RouteWithCacheInfo answers a single-mode route query with caching and
// returns cache hit info. Unreachable pairs are returned as errors and
// never cached.
func (r *Runner) RouteWithCacheInfo(ctx context.Context, net *network.Network, networkHash string, opts Options) (*route.Result, bool, error) {
	if err := opts.ValidateForQuery(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	model := opts.Model()
	modelHash := cache.HashJSON(model)
	cacheKey := r.Keyer.RouteKey(networkHash, opts.RouteKeyOpts(modelHash))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached route.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "route")
				return &cached, true, nil // Cache hit
			}
		}
		observability.Cache().OnCacheMiss(ctx, "route")
	}

	mode, err := network.ParseMode(opts.Mode)
	if err != nil {
		return nil, false, err
	}
	start := time.Now()
	observability.Pipeline().OnRouteStart(ctx, opts.Mode)
	res, err := route.FindRoute(net, model, mode, network.NodeID(opts.Start), network.NodeID(opts.End), opts.Hour)
	if err != nil {
		observability.Pipeline().OnRouteComplete(ctx, opts.Mode, 0, time.Since(start), err)
		return nil, false, err
	}
	observability.Pipeline().OnRouteComplete(ctx, opts.Mode, len(res.Legs), time.Since(start), nil)

	if data, err := json.Marshal(res); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLRoute)
		observability.Cache().OnCacheSet(ctx, "route", len(data))
	}
	return res, false, nil // Cache miss
}

// Route is a convenience wrapper that calls RouteWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Route(ctx context.Context, net *network.Network, networkHash string, opts Options) (*route.Result, error) {
	res, _, err := r.RouteWithCacheInfo(ctx, net, networkHash, opts)
	return res, err
}

// CompareWithCacheInfo answers the cross-mode comparison with caching and
// returns cache hit info. Per-mode failures are folded into the result as
// error codes, so the comparison itself caches even when some modes cannot
// connect the pair.
func (r *Runner) CompareWithCacheInfo(ctx context.Context, net *network.Network, networkHash string, opts Options) (*CompareResult, bool, error) {
	opts.SetQueryDefaults()
	r.applyLogger(&opts)

	model := opts.Model()
	if err := model.Validate(); err != nil {
		return nil, false, err
	}
	modelHash := cache.HashJSON(model)
	cacheKey := r.Keyer.CompareKey(networkHash, opts.CompareKeyOpts(modelHash))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached CompareResult
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "compare")
				return &cached, true, nil // Cache hit
			}
		}
		observability.Cache().OnCacheMiss(ctx, "compare")
	}

	outcomes, err := route.CompareModes(ctx, net, model, network.NodeID(opts.Start), network.NodeID(opts.End), opts.Hour)
	if err != nil {
		return nil, false, err
	}

	cmp := &CompareResult{Outcomes: make(map[network.Mode]ModeOutcome, len(outcomes))}
	for mode, o := range outcomes {
		if o.Err != nil {
			cmp.Outcomes[mode] = ModeOutcome{Error: string(apperrors.GetCode(o.Err))}
			continue
		}
		cmp.Outcomes[mode] = ModeOutcome{Result: o.Result}
	}
	if best, _, ok := route.Best(outcomes); ok {
		cmp.Best = best
	}

	if data, err := json.Marshal(cmp); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLRoute)
		observability.Cache().OnCacheSet(ctx, "compare", len(data))
	}
	return cmp, false, nil // Cache miss
}

// Compare is a convenience wrapper that calls CompareWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Compare(ctx context.Context, net *network.Network, networkHash string, opts Options) (*CompareResult, error) {
	cmp, _, err := r.CompareWithCacheInfo(ctx, net, networkHash, opts)
	return cmp, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info. res may be nil; when set, its legs are drawn as the highlighted
// route.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, net *network.Network, networkHash string, res *route.Result, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	modelHash := cache.HashJSON(opts.Model())

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(networkHash, opts.ArtifactKeyOpts(format, modelHash))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil // All artifacts from cache
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	// Render all formats
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	rendered, err := renderFormats(net, res, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(networkHash, opts.ArtifactKeyOpts(format, modelHash))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, net *network.Network, networkHash string, res *route.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, net, networkHash, res, opts)
	return artifacts, err
}

// renderFormats produces every requested format from one DOT conversion.
func renderFormats(net *network.Network, res *route.Result, opts Options) (map[string][]byte, error) {
	renderOpts := render.Options{
		ShowLabels: opts.ShowLabels,
		Scale:      opts.PlotScale,
	}
	if res != nil {
		for _, leg := range res.Legs {
			renderOpts.Highlight = append(renderOpts.Highlight, leg.EdgeIndex)
		}
	}
	dot := render.ToDOT(net, renderOpts)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatDOT:
			artifacts[format] = []byte(dot)
		case FormatSVG:
			svg, err := render.RenderSVG(dot)
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			artifacts[format] = svg
		case FormatPNG:
			png, err := render.RenderPNG(dot, 2.0)
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = png
		case FormatPDF:
			pdf, err := render.RenderPDF(dot)
			if err != nil {
				return nil, fmt.Errorf("render pdf: %w", err)
			}
			artifacts[format] = pdf
		default:
			return nil, ValidateFormat(format)
		}
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
