// Package metrics holds the gateway's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of collectors bound to a private registry so several
// servers can coexist in one process (tests do this).
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	grants          *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	searchResults   prometheus.Histogram
	upstreamErrors  *prometheus.CounterVec
}

// New creates Metrics with Go runtime and process collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgegate_http_requests_total",
				Help: "Total number of HTTP requests handled, by route and status",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgegate_http_request_duration_seconds",
				Help:    "Time to first byte plus body relay, by route",
				Buckets: []float64{.005, .025, .1, .5, 1, 2.5, 10, 30, 120},
			},
			[]string{"route"},
		),
		grants: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgegate_credential_grants_total",
				Help: "Credentials accepted by the gate, by grant kind",
			},
			[]string{"kind"},
		),
		rejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgegate_credential_rejections_total",
				Help: "Credentials rejected by the gate, by response status",
			},
			[]string{"status"},
		),
		searchResults: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "edgegate_search_results",
				Help:    "Number of successful per-query results returned by /search",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),
		upstreamErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgegate_upstream_errors_total",
				Help: "Transport failures talking to an upstream, by target",
			},
			[]string{"target"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Grant counts an accepted credential.
func (m *Metrics) Grant(kind string) {
	m.grants.WithLabelValues(kind).Inc()
}

// Reject counts a rejected credential.
func (m *Metrics) Reject(status int) {
	m.rejections.WithLabelValues(strconv.Itoa(status)).Inc()
}

// SearchResults records the size of one aggregated search response.
func (m *Metrics) SearchResults(n int) {
	m.searchResults.Observe(float64(n))
}

// UpstreamError counts a transport failure for target ("relay", "webdav").
func (m *Metrics) UpstreamError(target string) {
	m.upstreamErrors.WithLabelValues(target).Inc()
}
