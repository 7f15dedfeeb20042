// Package metrics provides internal metrics collection for the inference
// client. This package is internal and should not be imported by external
// projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records inference-operation metrics. A nil *Collector is a
// valid no-op, so wiring metrics stays optional.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a collector registered on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	return &Collector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inference_requests_total",
				Help:      "Total inference operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "inference_request_duration_seconds",
				Help:      "Inference operation duration in seconds, retries included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inference_retries_total",
				Help:      "Total retry attempts by operation",
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookup_cache_hits_total",
				Help:      "Video-lookup cache hits",
			},
		),
		cacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookup_cache_misses_total",
				Help:      "Video-lookup cache misses",
			},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// ObserveRequest records one completed operation.
func (c *Collector) ObserveRequest(operation, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(operation, outcome).Inc()
	c.requestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// IncRetry records one retry attempt for an operation.
func (c *Collector) IncRetry(operation string) {
	if c == nil {
		return
	}
	c.retriesTotal.WithLabelValues(operation).Inc()
}

// CacheHit records a lookup-cache hit.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

// CacheMiss records a lookup-cache miss.
func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheMisses.Inc()
}
