// Package metrics exposes Prometheus metrics for extraction runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/batch"
)

const namespace = "formskema"

// Collector holds the extraction metrics. It implements batch.Observer.
type Collector struct {
	DocumentsTotal   *prometheus.CounterVec
	IssuesTotal      *prometheus.CounterVec
	WarningsTotal    *prometheus.CounterVec
	DocumentDuration *prometheus.HistogramVec

	SkippedTotal    prometheus.Counter
	SinkErrorsTotal prometheus.Counter
	RunsTotal       prometheus.Counter
	LastRunFinished prometheus.Gauge
}

var _ batch.Observer = (*Collector)(nil)

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		DocumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Documents processed, by outcome status",
			},
			[]string{"status"},
		),
		IssuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "issues_total",
				Help:      "Issues on invalid documents, by code",
			},
			[]string{"code"},
		),
		WarningsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "warnings_total",
				Help:      "Warnings on processed documents, by code",
			},
			[]string{"code"},
		),
		DocumentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_duration_seconds",
				Help:      "Time to extract and validate one document",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"status"},
		),
		SkippedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_total",
				Help:      "Source entries skipped without extraction",
			},
		),
		SinkErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_errors_total",
				Help:      "Outcomes the sink failed to persist",
			},
		),
		RunsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed batch runs",
			},
		),
		LastRunFinished: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_finished_timestamp",
				Help:      "Unix timestamp of the last completed batch run",
			},
		),
	}
}

// Observe records one document outcome.
func (c *Collector) Observe(out formskema.Outcome) {
	status := out.Status()
	c.DocumentsTotal.WithLabelValues(status).Inc()
	c.DocumentDuration.WithLabelValues(status).Observe(out.Duration.Seconds())
	for _, it := range out.Issues {
		c.IssuesTotal.WithLabelValues(it.Code).Inc()
	}
	for _, w := range out.Warnings {
		c.WarningsTotal.WithLabelValues(w.Code).Inc()
	}
}

// RecordRun records the counters only the run tally knows about.
func (c *Collector) RecordRun(t batch.Tally) {
	c.RunsTotal.Inc()
	c.SkippedTotal.Add(float64(t.Skipped))
	c.SinkErrorsTotal.Add(float64(t.SinkErrors))
	if !t.End.IsZero() {
		c.LastRunFinished.Set(float64(t.End.Unix()))
	}
}
