// Package metrics exports pipeline metrics in Prometheus format.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kamusis/answerhub/internal/dispatch"
)

const namespace = "answerhub"

// Exporter holds the pipeline collectors and the registry they live in.
type Exporter struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	requestLatency prometheus.Histogram
	matchScore     prometheus.Histogram
	extractions    *prometheus.CounterVec
	dispatches     *prometheus.CounterVec
	dispatchTime   *prometheus.HistogramVec
	catalogEntries prometheus.Gauge
}

// New registers every collector in a fresh registry, together with the Go
// runtime and process collectors.
func New() *Exporter {
	reg := prometheus.NewRegistry()
	e := &Exporter{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Answer requests by outcome.",
		}, []string{"status"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end answer latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		matchScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "score",
			Help:      "Cosine similarity of the selected catalog entry.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "total",
			Help:      "Parameter extraction attempts by status.",
		}, []string{"status"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Handler invocations by handler, convention and status.",
		}, []string{"handler", "convention", "status"}),
		dispatchTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Handler execution time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
		catalogEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "entries",
			Help:      "Entries in the loaded catalog.",
		}),
	}
	reg.MustRegister(
		e.requests, e.requestLatency, e.matchScore, e.extractions,
		e.dispatches, e.dispatchTime, e.catalogEntries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return e
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ObserveDispatch implements dispatch.Observer.
func (e *Exporter) ObserveDispatch(handler string, convention dispatch.Convention, err error, elapsed time.Duration) {
	status := "ok"
	switch {
	case errors.Is(err, dispatch.ErrBadCall):
		status = "bad_call"
	case err != nil:
		status = "error"
	}
	e.dispatches.WithLabelValues(handler, string(convention), status).Inc()
	e.dispatchTime.WithLabelValues(handler).Observe(elapsed.Seconds())
}

// ObserveRequest records one finished answer request.
func (e *Exporter) ObserveRequest(status string, elapsed time.Duration) {
	e.requests.WithLabelValues(status).Inc()
	e.requestLatency.Observe(elapsed.Seconds())
}

// ObserveMatch records the score of a selected catalog entry.
func (e *Exporter) ObserveMatch(score float64) {
	e.matchScore.Observe(score)
}

// ObserveExtraction records an extraction outcome.
func (e *Exporter) ObserveExtraction(status string) {
	e.extractions.WithLabelValues(status).Inc()
}

// SetCatalogSize records the size of the active catalog.
func (e *Exporter) SetCatalogSize(n int) {
	e.catalogEntries.Set(float64(n))
}
