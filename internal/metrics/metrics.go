// Package metrics holds the Prometheus collectors for document loading and
// viewer sessions. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "apidocs"

	OutcomeOK        = "ok"
	OutcomeRetrieval = "retrieval_error"
	OutcomeDecode    = "decode_error"
	OutcomeMalformed = "malformed_document"
	OutcomeCanceled  = "canceled"
	OutcomeOther     = "error"
)

// Metrics contains the collectors shared by the engine and the viewer.
type Metrics struct {
	LoadsTotal          *prometheus.CounterVec // by outcome
	LoadDuration        prometheus.Histogram
	EndpointsPerDoc     prometheus.Histogram
	DiscardedSelections prometheus.Counter
	ActiveSessions      prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil registerer
// disables metrics.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		LoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "loads_total",
			Help:      "Total number of document loads by outcome",
		}, []string{"outcome"}),

		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "load_duration_seconds",
			Help:      "Time to fetch, decode and extract a document",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),

		EndpointsPerDoc: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "endpoints_per_document",
			Help:      "Number of endpoints extracted from successfully loaded documents",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),

		DiscardedSelections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "viewer",
			Name:      "discarded_loads_total",
			Help:      "Loads that completed after a newer selection and were dropped",
		}),

		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "viewer",
			Name:      "active_sessions",
			Help:      "Number of open viewer sessions",
		}),
	}

	collectors := []prometheus.Collector{
		m.LoadsTotal,
		m.LoadDuration,
		m.EndpointsPerDoc,
		m.DiscardedSelections,
		m.ActiveSessions,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordLoad records one finished load. endpoints is ignored unless the
// outcome is OutcomeOK.
func (m *Metrics) RecordLoad(outcome string, d time.Duration, endpoints int) {
	if m == nil {
		return
	}
	m.LoadsTotal.WithLabelValues(outcome).Inc()
	m.LoadDuration.Observe(d.Seconds())
	if outcome == OutcomeOK {
		m.EndpointsPerDoc.Observe(float64(endpoints))
	}
}

// RecordDiscard counts a superseded load result.
func (m *Metrics) RecordDiscard() {
	if m == nil {
		return
	}
	m.DiscardedSelections.Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}
