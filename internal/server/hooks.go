package server

import (
	"context"
	"time"

	apperrors "github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/metrics"
	"github.com/cityscale/hypertransit/pkg/observability"
)

// RegisterMetricsHooks bridges observability events into the Prometheus
// collectors, so generations and route queries are counted no matter which
// endpoint (or embedding binary) triggered them. Call once at startup;
// repeated calls are harmless.
func RegisterMetricsHooks() {
	observability.SetPipelineHooks(promPipelineHooks{})
	observability.SetCacheHooks(promCacheHooks{})
}

// promPipelineHooks counts computed generations and route queries.
type promPipelineHooks struct {
	observability.NoopPipelineHooks
}

func (promPipelineHooks) OnGenerateComplete(_ context.Context, _, _ int, _ time.Duration, err error) {
	if err != nil {
		return
	}
	metrics.GenerationsTotal.WithLabelValues("miss").Inc()
}

func (promPipelineHooks) OnRouteComplete(_ context.Context, mode string, _ int, _ time.Duration, err error) {
	outcome := "ok"
	switch {
	case apperrors.Is(err, apperrors.ErrCodeNotReachable):
		outcome = "not_reachable"
	case err != nil:
		outcome = "error"
	}
	metrics.RouteQueriesTotal.WithLabelValues(mode, outcome).Inc()
}

// promCacheHooks counts cache activity per key type. Network cache hits
// double as the cached half of the generation counter.
type promCacheHooks struct {
	observability.NoopCacheHooks
}

func (promCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	metrics.CacheOpsTotal.WithLabelValues(keyType, "hit").Inc()
	if keyType == "network" {
		metrics.GenerationsTotal.WithLabelValues("hit").Inc()
	}
}

func (promCacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	metrics.CacheOpsTotal.WithLabelValues(keyType, "miss").Inc()
}
