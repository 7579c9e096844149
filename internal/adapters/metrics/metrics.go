// Package metrics exposes Prometheus collectors for the roster service on a
// private registry. *Metrics satisfies the observer interfaces of the
// storage, live store, sync store and outbox layers, so wiring is a matter
// of passing the same value everywhere.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roster/internal/domain/apperr"
)

// Metrics holds all Prometheus metric collectors for the roster service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Storage metrics.
	DBQueryDuration *prometheus.HistogramVec

	// Live sync metrics.
	LiveWatches    *prometheus.GaugeVec
	MutationsTotal *prometheus.CounterVec

	// Notification metrics.
	DeliveriesTotal *prometheus.CounterVec

	RateLimitRejectionsTotal prometheus.Counter
	AuthFailuresTotal        *prometheus.CounterVec

	ServerStartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roster_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roster_db_query_duration_seconds",
			Help:    "SQLite statement duration in seconds.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, 1},
		}, []string{"op"}),

		LiveWatches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roster_live_watches",
			Help: "Number of open live subscriptions.",
		}, []string{"kind"}),

		MutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_mutations_total",
			Help: "Total number of roster mutations by outcome.",
		}, []string{"op", "outcome"}),

		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_notice_deliveries_total",
			Help: "Total number of processed outbox entries by final status.",
		}, []string{"kind", "status"}),

		RateLimitRejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roster_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_auth_failures_total",
			Help: "Total number of rejected identity tokens.",
		}, []string{"reason"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roster_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.LiveWatches,
		m.MutationsTotal,
		m.DeliveriesTotal,
		m.RateLimitRejectionsTotal,
		m.AuthFailuresTotal,
		m.ServerStartTime,
	)
	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDB exposes the connection pool statistics of db.
func (m *Metrics) RegisterDB(db *sql.DB) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, "roster"))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served HTTP request. route is the matched
// route pattern, never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveQuery records one SQL statement.
func (m *Metrics) ObserveQuery(op string, d time.Duration) {
	m.DBQueryDuration.WithLabelValues(op).Observe(d.Seconds())
}

// WatchOpened counts a live subscription.
func (m *Metrics) WatchOpened(kind string) {
	m.LiveWatches.WithLabelValues(kind).Inc()
}

// WatchClosed uncounts a live subscription.
func (m *Metrics) WatchClosed(kind string) {
	m.LiveWatches.WithLabelValues(kind).Dec()
}

// ObserveMutation counts a roster mutation. The outcome label is "ok" or
// the error's kind.
func (m *Metrics) ObserveMutation(op string, err error) {
	m.MutationsTotal.WithLabelValues(op, Outcome(err)).Inc()
}

// ObserveDelivery counts an outbox entry reaching status.
func (m *Metrics) ObserveDelivery(kind, status string) {
	m.DeliveriesTotal.WithLabelValues(kind, status).Inc()
}

// IncRateLimitRejection counts a request refused by the rate limiter.
func (m *Metrics) IncRateLimitRejection() {
	m.RateLimitRejectionsTotal.Inc()
}

// IncAuthFailure counts a rejected identity token.
func (m *Metrics) IncAuthFailure(reason string) {
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// Outcome labels err for metrics: "ok", an apperr kind, or "error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := apperr.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
