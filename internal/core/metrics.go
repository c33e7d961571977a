package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the import collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	files          *prometheus.CounterVec
	records        *prometheus.CounterVec
	batches        prometheus.Counter
	flushDuration  prometheus.Histogram
	fileDuration   *prometheus.HistogramVec
	lastRunSeconds prometheus.Gauge
}

// NewMetrics registers the import collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		files: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poi_import",
			Name:      "files_total",
			Help:      "Files attempted, by outcome (completed, skipped, failed).",
		}, []string{"outcome"}),
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poi_import",
			Name:      "records_flushed_total",
			Help:      "Records written in successfully flushed batches, by source format.",
		}, []string{"format"}),
		batches: f.NewCounter(prometheus.CounterOpts{
			Namespace: "poi_import",
			Name:      "batches_flushed_total",
			Help:      "Successful insert-many calls.",
		}),
		flushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "poi_import",
			Name:      "batch_flush_duration_seconds",
			Help:      "Duration of insert-many calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		fileDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "poi_import",
			Name:      "file_duration_seconds",
			Help:      "Wall-clock time spent per file, by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"outcome"}),
		lastRunSeconds: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "poi_import",
			Name:      "last_run_duration_seconds",
			Help:      "Elapsed time of the most recent import run.",
		}),
	}
}

func (m *Metrics) observeBatch(records int, format Format, d time.Duration) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.records.WithLabelValues(string(format)).Add(float64(records))
	m.flushDuration.Observe(d.Seconds())
}

func (m *Metrics) observeFile(res FileResult) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(string(res.Phase)).Inc()
	m.fileDuration.WithLabelValues(string(res.Phase)).Observe(res.Duration.Seconds())
}

func (m *Metrics) observeRun(d time.Duration) {
	if m == nil {
		return
	}
	m.lastRunSeconds.Set(d.Seconds())
}
