package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hyperast/hyperast-go/pkg/alg/stats"
)

const (
	metricDocumentsTotal = "hyperast.ingest.documents.total"
	metricNodesTotal     = "hyperast.ingest.nodes.total"
	metricIngestDuration = "hyperast.ingest.duration.seconds"
	metricCacheHitsTotal = "hyperast.cache.hits.total"

	metricCacheMissesTotal = "hyperast.cache.misses.total"

	attrCache = "cache"
)

// IngestMetrics holds OTel instruments for pkg/ingest and pkg/decomp
// activity: documents/nodes interned, ingest latency, and view-cache hit
// rate (SPEC_FULL.md §B).
type IngestMetrics struct {
	documentsTotal metric.Int64Counter
	nodesTotal     metric.Int64Counter
	ingestDuration metric.Float64Histogram
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
}

// IngestStats holds the statistics for a single Build call, decoupled from
// the store's own types so the metrics package doesn't import pkg/ingest.
type IngestStats struct {
	Documents       int64
	Nodes           int
	IngestDurations []time.Duration
	ViewCacheHits   int64
	ViewCacheMisses int64
	DiffCacheHits   int64
	DiffCacheMisses int64
}

// NewIngestMetrics creates ingest metric instruments from the given meter.
func NewIngestMetrics(mt metric.Meter) (*IngestMetrics, error) {
	documents, err := mt.Int64Counter(metricDocumentsTotal,
		metric.WithDescription("Total documents ingested"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDocumentsTotal, err)
	}

	nodes, err := mt.Int64Counter(metricNodesTotal,
		metric.WithDescription("Total nodes inserted into the node store"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricNodesTotal, err)
	}

	ingestDur, err := mt.Float64Histogram(metricIngestDuration,
		metric.WithDescription("Per-document ingest duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricIngestDuration, err)
	}

	hits, err := mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("Cache hits by type"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricCacheMissesTotal,
		metric.WithDescription("Cache misses by type"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMissesTotal, err)
	}

	return &IngestMetrics{
		documentsTotal: documents,
		nodesTotal:     nodes,
		ingestDuration: ingestDur,
		cacheHits:      hits,
		cacheMisses:    misses,
	}, nil
}

// RecordRun records statistics for a completed ingest run. Safe to call on
// a nil receiver (no-op), so callers can hold a possibly-nil *IngestMetrics
// without branching at every call site.
func (im *IngestMetrics) RecordRun(ctx context.Context, run IngestStats) {
	if im == nil {
		return
	}

	im.documentsTotal.Add(ctx, run.Documents)
	im.nodesTotal.Add(ctx, int64(run.Nodes))

	for _, d := range run.IngestDurations {
		im.ingestDuration.Record(ctx, d.Seconds())
	}

	viewAttrs := metric.WithAttributes(attribute.String(attrCache, "view"))
	im.cacheHits.Add(ctx, run.ViewCacheHits, viewAttrs)
	im.cacheMisses.Add(ctx, run.ViewCacheMisses, viewAttrs)

	diffAttrs := metric.WithAttributes(attribute.String(attrCache, "diff"))
	im.cacheHits.Add(ctx, run.DiffCacheHits, diffAttrs)
	im.cacheMisses.Add(ctx, run.DiffCacheMisses, diffAttrs)
}

// DurationSummary is a statistical summary of a batch of ingest durations,
// grounded on the teacher's quality/metrics.go mean/median/p95 reporting.
type DurationSummary struct {
	Mean   time.Duration
	Median time.Duration
	P95    time.Duration
	Max    time.Duration
}

// Summarize reduces a batch of ingest durations to a [DurationSummary].
// Returns the zero value for an empty batch.
func (run IngestStats) Summarize() DurationSummary {
	if len(run.IngestDurations) == 0 {
		return DurationSummary{}
	}

	seconds := make([]float64, len(run.IngestDurations))
	for i, d := range run.IngestDurations {
		seconds[i] = d.Seconds()
	}

	return DurationSummary{
		Mean:   time.Duration(stats.Mean(seconds) * float64(time.Second)),
		Median: time.Duration(stats.Median(seconds) * float64(time.Second)),
		P95:    time.Duration(stats.Percentile(seconds, stats.PercentileP95) * float64(time.Second)),
		Max:    time.Duration(stats.Max(seconds) * float64(time.Second)),
	}
}
