// Package metrics provides Prometheus metrics for the formsync service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service metrics. Each collector owns its registry so
// several can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Form and submission metrics
	Operations      *prometheus.CounterVec
	Warnings        *prometheus.CounterVec
	SubmissionBytes prometheus.Histogram

	// Document metrics
	DocumentReloads      prometheus.Counter
	DocumentReloadErrors prometheus.Counter
	Submissions          prometheus.Counter
}

// New creates a collector with all metrics registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "formsync",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "formsync",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "formsync",
				Name:      "operations_total",
				Help:      "Flatten and apply runs by outcome",
			},
			[]string{"operation", "outcome"},
		),
		Warnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "formsync",
				Name:      "warnings_total",
				Help:      "Warnings reported while walking forms, by kind",
			},
			[]string{"kind"},
		),
		SubmissionBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "formsync",
				Name:      "submission_bytes",
				Help:      "Size of accepted submissions in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
			},
		),
		DocumentReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "formsync",
				Name:      "document_reloads_total",
				Help:      "Successful reloads of the form document",
			},
		),
		DocumentReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "formsync",
				Name:      "document_reload_errors_total",
				Help:      "Failed reloads of the form document",
			},
		),
		Submissions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "formsync",
				Name:      "submissions_total",
				Help:      "Submissions stored",
			},
		),
	}
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveOperation records one flatten or apply run and its warnings.
func (c *Collector) ObserveOperation(operation string, err error, warningKinds []string) {
	if c == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case len(warningKinds) > 0:
		outcome = "warnings"
	}
	c.Operations.WithLabelValues(operation, outcome).Inc()
	for _, kind := range warningKinds {
		c.Warnings.WithLabelValues(kind).Inc()
	}
}

// StatusLabel groups HTTP status codes for the requests_total label.
func StatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
