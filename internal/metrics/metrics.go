// Package metrics holds the Prometheus collectors of the storefront.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	requestCounter      *prometheus.CounterVec
	requestLatency      *prometheus.HistogramVec
	cartMutations       *prometheus.CounterVec
	persistenceFailures prometheus.Counter
	checkouts           *prometheus.CounterVec
	activeSessions      prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests
// so repeated construction does not panic.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flore_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flore_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		cartMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flore_cart_mutations_total",
				Help: "Cart and favorites mutations by operation",
			},
			[]string{"operation"},
		),
		persistenceFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flore_persistence_failures_total",
				Help: "Mutations whose state could not be written to storage",
			},
		),
		checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flore_checkouts_total",
				Help: "Checkout attempts by result",
			},
			[]string{"result"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "flore_active_sessions",
				Help: "Shopper sessions currently held in memory",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.requestCounter,
		m.requestLatency,
		m.cartMutations,
		m.persistenceFailures,
		m.checkouts,
		m.activeSessions,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) CartMutation(operation string) {
	m.cartMutations.WithLabelValues(operation).Inc()
}

func (m *Metrics) PersistenceFailure() {
	m.persistenceFailures.Inc()
}

func (m *Metrics) Checkout(result string) {
	m.checkouts.WithLabelValues(result).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
