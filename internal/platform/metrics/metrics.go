// Package metrics exposes Prometheus counters for reading mutations,
// classifications, exports and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bptracker/bptracker/internal/domain/reading"
)

const (
	metricPrefix = "bptracker_"

	resultSuccess = "success"
	resultError   = "error"
)

// Metrics implements reading.Recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	mutations      *prometheus.CounterVec
	categories     *prometheus.CounterVec
	dateRejections prometheus.Counter
	exports        *prometheus.CounterVec
	exportLatency  *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

var _ reading.Recorder = (*Metrics)(nil)

// New registers every collector on reg. Pass prometheus.DefaultRegisterer
// in the server and a fresh registry in tests.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	m := &Metrics{
		gatherer: gatherer,
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reading_mutations_total",
				Help: "Reading create, update and delete operations by result",
			},
			[]string{"op", "result"},
		),
		categories: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reading_category_total",
				Help: "Stored readings by classification",
			},
			[]string{"kind", "category"},
		),
		dateRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "date_parse_failures_total",
				Help: "Date inputs that could not be normalized",
			},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Print and export renders by format and result",
			},
			[]string{"format", "result"},
		),
		exportLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export render latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.mutations, m.categories, m.dateRejections,
		m.exports, m.exportLatency, m.httpRequests, m.httpLatency,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveMutation(op, result string) {
	m.mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) ObserveCategories(bp, pulse reading.Category) {
	m.categories.WithLabelValues("bp", bp.Label).Inc()
	m.categories.WithLabelValues("pulse", pulse.Label).Inc()
}

func (m *Metrics) ObserveDateRejected() {
	m.dateRejections.Inc()
}

func (m *Metrics) ObserveExport(format string, elapsed time.Duration, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	m.exports.WithLabelValues(format, result).Inc()
	m.exportLatency.WithLabelValues(format).Observe(elapsed.Seconds())
}

// Middleware counts requests by matched route so path parameters do not
// explode the label space.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			m.httpLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
