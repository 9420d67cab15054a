package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHitsGauge   = "hyperast.cache.hits"
	metricCacheMissesGauge = "hyperast.cache.misses"
)

// CacheStatsProvider is satisfied by any cache that tracks cumulative hits
// and misses, e.g. [github.com/hyperast/hyperast-go/pkg/decomp.Cache].
type CacheStatsProvider interface {
	CacheHits() int64
	CacheMisses() int64
}

// RegisterCacheMetrics registers async gauges that poll blob and diff cache
// providers on every collection. Either provider may be nil, in which case
// its "blob"/"diff" data point is simply omitted.
func RegisterCacheMetrics(mt metric.Meter, blob, diffCache CacheStatsProvider) error {
	hits, err := mt.Int64ObservableGauge(metricCacheHitsGauge,
		metric.WithDescription("Cumulative cache hits by cache name"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheHitsGauge, err)
	}

	misses, err := mt.Int64ObservableGauge(metricCacheMissesGauge,
		metric.WithDescription("Cumulative cache misses by cache name"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheMissesGauge, err)
	}

	_, err = mt.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		if blob != nil {
			obs.ObserveInt64(hits, blob.CacheHits(), metric.WithAttributes(attribute.String(attrCache, "blob")))
			obs.ObserveInt64(misses, blob.CacheMisses(), metric.WithAttributes(attribute.String(attrCache, "blob")))
		}

		if diffCache != nil {
			obs.ObserveInt64(hits, diffCache.CacheHits(), metric.WithAttributes(attribute.String(attrCache, "diff")))
			obs.ObserveInt64(misses, diffCache.CacheMisses(), metric.WithAttributes(attribute.String(attrCache, "diff")))
		}

		return nil
	}, hits, misses)
	if err != nil {
		return fmt.Errorf("register cache metrics callback: %w", err)
	}

	return nil
}
