// Package metrics wraps a Prometheus registry behind an OpenTelemetry
// MeterProvider, exposing the instruments the storage core emits.
// Adapted from the reference telemetry package's exporter wiring.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config controls whether metrics are collected and where they are
// exposed.
type Config struct {
	Enabled        bool   `yaml:"enabled"`
	PrometheusPort int    `yaml:"prometheus_port"`
	ServiceName    string `yaml:"service_name"`
}

// ShutdownFunc releases the metrics exporter's resources.
type ShutdownFunc func(ctx context.Context) error

// Registry holds the instruments emitted by the storage core.
type Registry struct {
	meter    metric.Meter
	Replacer *Replacer
	Buffer   *BufferPool
	BTree    *BTree
}

// Replacer instruments the LRU-K replacer.
type Replacer struct {
	evictableFrames metric.Int64Gauge
	evictionsTotal  metric.Int64Counter
}

// IncEvictions records one frame having been evicted.
func (r *Replacer) IncEvictions() {
	if r == nil {
		return
	}
	r.evictionsTotal.Add(context.Background(), 1)
}

// SetSize records the current count of evictable frames.
func (r *Replacer) SetSize(n int) {
	if r == nil {
		return
	}
	r.evictableFrames.Record(context.Background(), int64(n))
}

// BufferPool instruments the buffer pool manager.
type BufferPool struct {
	requestsTotal  metric.Int64Counter
	dirtyEvictions metric.Int64Counter
	poolExhausted  metric.Int64Counter
}

// RecordHit records a page request satisfied from the pool.
func (b *BufferPool) RecordHit() {
	if b == nil {
		return
	}
	b.requestsTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", "hit")))
}

// RecordMiss records a page request that required a disk read.
func (b *BufferPool) RecordMiss() {
	if b == nil {
		return
	}
	b.requestsTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", "miss")))
}

// IncDirtyEvictions records a victim frame that needed a flush before reuse.
func (b *BufferPool) IncDirtyEvictions() {
	if b == nil {
		return
	}
	b.dirtyEvictions.Add(context.Background(), 1)
}

// IncPoolExhausted records a NewPage/FetchPage call that found no frame
// available.
func (b *BufferPool) IncPoolExhausted() {
	if b == nil {
		return
	}
	b.poolExhausted.Add(context.Background(), 1)
}

// BTree instruments the B+ tree index.
type BTree struct {
	splitsTotal metric.Int64Counter
}

// IncLeafSplit records a leaf page split.
func (t *BTree) IncLeafSplit() {
	if t == nil {
		return
	}
	t.splitsTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", "leaf")))
}

// IncInternalSplit records an internal page split.
func (t *BTree) IncInternalSplit() {
	if t == nil {
		return
	}
	t.splitsTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", "internal")))
}

// New builds a Registry backed by a Prometheus exporter reachable on
// PrometheusPort at /metrics. If disabled, every instrument is backed by
// a no-op meter and every call above is safe but inert.
func New(config Config) (*Registry, ShutdownFunc, error) {
	if !config.Enabled {
		return newRegistry(noop.NewMeterProvider().Meter(""))
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	go func() {
		addr := fmt.Sprintf(":%d", config.PrometheusPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(addr, mux)
	}()

	reg, err := newRegistryFromMeter(provider.Meter(config.ServiceName))
	if err != nil {
		return nil, nil, err
	}
	return reg, func(ctx context.Context) error { return provider.Shutdown(ctx) }, nil
}

func newRegistry(m metric.Meter) (*Registry, ShutdownFunc, error) {
	reg, err := newRegistryFromMeter(m)
	if err != nil {
		return nil, nil, err
	}
	return reg, func(ctx context.Context) error { return nil }, nil
}

func newRegistryFromMeter(m metric.Meter) (*Registry, error) {
	evictableFrames, err := m.Int64Gauge("replacer_evictable_frames")
	if err != nil {
		return nil, err
	}
	evictionsTotal, err := m.Int64Counter("replacer_evictions_total")
	if err != nil {
		return nil, err
	}
	requestsTotal, err := m.Int64Counter("bpm_page_requests_total")
	if err != nil {
		return nil, err
	}
	dirtyEvictions, err := m.Int64Counter("bpm_dirty_evictions_total")
	if err != nil {
		return nil, err
	}
	poolExhausted, err := m.Int64Counter("bpm_pool_exhausted_total")
	if err != nil {
		return nil, err
	}
	splitsTotal, err := m.Int64Counter("btree_splits_total")
	if err != nil {
		return nil, err
	}

	return &Registry{
		meter: m,
		Replacer: &Replacer{
			evictableFrames: evictableFrames,
			evictionsTotal:  evictionsTotal,
		},
		Buffer: &BufferPool{
			requestsTotal:  requestsTotal,
			dirtyEvictions: dirtyEvictions,
			poolExhausted:  poolExhausted,
		},
		BTree: &BTree{splitsTotal: splitsTotal},
	}, nil
}

