package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rollupProcessed *prometheus.CounterVec
	rollupWritten   *prometheus.CounterVec
	rollupSkipped   *prometheus.CounterVec
	tierSelected    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		rollupProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickvault_rollup_rows_processed_total",
				Help: "Source rows consumed by rollup builds",
			},
			[]string{"source", "target"},
		),
		rollupWritten: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickvault_rollup_buckets_written_total",
				Help: "Bucket rows upserted by rollup builds",
			},
			[]string{"source", "target"},
		),
		rollupSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickvault_rollup_rows_skipped_total",
				Help: "Malformed source rows skipped by rollup builds",
			},
			[]string{"source", "target"},
		),
		tierSelected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickvault_tier_selected_total",
				Help: "Resolution tier chosen per points query",
			},
			[]string{"tier"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickvault_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tickvault_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRollupRows records row counters for one rollup build.
func (r *Recorder) RecordRollupRows(source, target string, processed, written, skipped int64) {
	r.rollupProcessed.WithLabelValues(source, target).Add(float64(processed))
	r.rollupWritten.WithLabelValues(source, target).Add(float64(written))
	r.rollupSkipped.WithLabelValues(source, target).Add(float64(skipped))
}

// RecordTierSelected records which tier answered a points query.
func (r *Recorder) RecordTierSelected(width string) {
	r.tierSelected.WithLabelValues(width).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
