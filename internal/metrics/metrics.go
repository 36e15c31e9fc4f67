// Package metrics exposes Prometheus metrics for the ingestion loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all watcher metrics.
	Namespace = "projectwatcher"

	// Subsystem is the subsystem for ingestion metrics.
	Subsystem = "ingest"
)

// Metrics holds the ingestion counters. A nil *Metrics records nothing.
type Metrics struct {
	RecordsIngested     prometheus.Counter
	DuplicatesSkipped   prometheus.Counter
	RecordsEvicted      prometheus.Counter
	Notifications       prometheus.Counter
	FetchFailures       *prometheus.CounterVec
	SweepDuration       prometheus.Histogram
	RecordsStored       prometheus.Gauge
	PagesFetchedInSweep prometheus.Gauge
}

// New creates and registers the metrics with reg, or the default registerer when nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RecordsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "records_ingested_total",
			Help:      "Total number of projects inserted into the store",
		}),
		DuplicatesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "duplicates_skipped_total",
			Help:      "Total number of candidates skipped because their URL was already stored",
		}),
		RecordsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "records_evicted_total",
			Help:      "Total number of projects removed by retention",
		}),
		Notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "notifications_total",
			Help:      "Total number of alerts fired for new projects",
		}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "fetch_failures_total",
			Help:      "Total number of failed listing page fetches",
		}, []string{"kind"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a full sweep including retention",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		RecordsStored: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "records_stored",
			Help:      "Number of projects in the store after the last retention pass",
		}),
		PagesFetchedInSweep: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "pages_fetched_last_sweep",
			Help:      "Number of page fetch attempts in the last sweep",
		}),
	}
}

func (m *Metrics) Ingested() {
	if m != nil {
		m.RecordsIngested.Inc()
	}
}

func (m *Metrics) Duplicate() {
	if m != nil {
		m.DuplicatesSkipped.Inc()
	}
}

func (m *Metrics) Evicted(n int) {
	if m != nil && n > 0 {
		m.RecordsEvicted.Add(float64(n))
	}
}

func (m *Metrics) Notified() {
	if m != nil {
		m.Notifications.Inc()
	}
}

// FetchFailed counts a failed page fetch; kind is "transient" or "permanent"
func (m *Metrics) FetchFailed(kind string) {
	if m != nil {
		m.FetchFailures.WithLabelValues(kind).Inc()
	}
}

// SweepDone records the outcome of a finished sweep
func (m *Metrics) SweepDone(d time.Duration, attempts, stored int) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(d.Seconds())
	m.PagesFetchedInSweep.Set(float64(attempts))
	m.RecordsStored.Set(float64(stored))
}
