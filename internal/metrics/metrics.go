// Package metrics records lab outcomes in a Prometheus registry. The registry
// is exported over HTTP by the server and written as a textfile by
// --metrics-file.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/partition"
	"github.com/agbru/parreduce/internal/reduce"
	"github.com/agbru/parreduce/internal/workload"
)

// Namespace prefixes every metric defined by this package.
const Namespace = "parreduce"

// Registry owns a private Prometheus registry and the lab metrics.
type Registry struct {
	reg *prometheus.Registry

	runs              *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	mismatches        *prometheus.CounterVec
	failures          *prometheus.CounterVec
	speedup           *prometheus.GaugeVec
	partitions        *prometheus.CounterVec
	partitionDuration *prometheus.HistogramVec
}

// New creates a registry with the lab metrics, the Go runtime collector, the
// process collector and heap gauges read through a MemoryCollector.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Completed lab runs by verdict.",
		}, []string{"lab", "verdict"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "reduction_duration_seconds",
			Help:      "Best elapsed time of a reduction path.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
		}, []string{"lab", "mode"}),
		mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "mismatches_total",
			Help:      "Runs whose parallel result differed from the sequential one.",
		}, []string{"lab"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "failures_total",
			Help:      "Lab runs that returned an error, by kind.",
		}, []string{"lab", "kind"}),
		speedup: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "speedup_ratio",
			Help:      "Sequential over parallel time of the last run.",
		}, []string{"lab"}),
		partitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "partitions_total",
			Help:      "Partitions folded and merged on the parallel path.",
		}, []string{"lab"}),
		partitionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "partition_duration_seconds",
			Help:      "Fold and merge time of a single partition.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"lab"}),
	}

	mc := NewMemoryCollector()
	r.reg.MustRegister(
		r.runs, r.duration, r.mismatches, r.failures, r.speedup, r.partitions, r.partitionDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "heap_alloc_bytes",
			Help:      "Bytes of allocated heap objects.",
		}, func() float64 { return float64(mc.Snapshot().HeapAlloc) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "heap_objects",
			Help:      "Number of allocated heap objects.",
		}, func() float64 { return float64(mc.Snapshot().HeapObjects) }),
	)
	return r
}

// Registerer exposes the underlying registry for additional collectors.
func (r *Registry) Registerer() prometheus.Registerer { return r.reg }

// Gatherer exposes the underlying registry for exporters.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObserveOutcome records a completed lab run.
func (r *Registry) ObserveOutcome(o workload.Outcome) {
	r.runs.WithLabelValues(o.Lab, o.Verdict.String()).Inc()
	r.duration.WithLabelValues(o.Lab, reduce.ModeSequential.String()).Observe(o.SequentialTime.Seconds())
	r.duration.WithLabelValues(o.Lab, reduce.ModeParallel.String()).Observe(o.ParallelTime.Seconds())
	r.speedup.WithLabelValues(o.Lab).Set(o.Speedup())
	if !o.Match() {
		r.mismatches.WithLabelValues(o.Lab).Inc()
	}
}

// ObserveFailure records a lab run that returned err.
func (r *Registry) ObserveFailure(lab string, err error) {
	if err == nil {
		return
	}
	r.failures.WithLabelValues(lab, FailureKind(err)).Inc()
}

// PartitionObserver returns an engine observer counting the partitions of
// lab and their fold time. The lab's series appear with its first partition,
// so a lab rejected before reducing exports none.
func (r *Registry) PartitionObserver(lab string) reduce.Observer {
	return reduce.ObserverFunc(func(_ partition.Partition, elapsed time.Duration) {
		r.partitions.WithLabelValues(lab).Inc()
		r.partitionDuration.WithLabelValues(lab).Observe(elapsed.Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path in the text format read by the
// node exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return apperrors.WrapError(prometheus.WriteToTextfile(path, r.reg), "writing metrics to %s", path)
}

// FailureKind classifies err for the failures_total kind label.
func FailureKind(err error) string {
	switch apperrors.ExitCodeFor(err) {
	case apperrors.ExitErrorConfig:
		return "invalid"
	case apperrors.ExitErrorWorkload:
		return "workload"
	case apperrors.ExitErrorTimeout:
		return "timeout"
	case apperrors.ExitErrorCanceled:
		return "canceled"
	default:
		return "other"
	}
}
