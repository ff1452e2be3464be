// Package observability wires Prometheus metrics for the HTTP surface and
// the bookkeeping engine.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics collects the application's Prometheus metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	transactionsPosted  *prometheus.CounterVec
	ledgerEntriesTotal  prometheus.Counter
	assignmentsTotal    prometheus.Counter
	assignmentsAmount   prometheus.Counter
	integrityScansTotal *prometheus.CounterVec
}

// NewMetrics initialises the registry with the base HTTP and ledger metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "microbooks_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "microbooks_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	posted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "microbooks_transactions_posted_total",
		Help: "Transactions posted to the ledger by transaction type.",
	}, []string{"type"})
	entries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "microbooks_ledger_entries_total",
		Help: "Ledger entries written by posting.",
	})
	assignments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "microbooks_assignments_total",
		Help: "Assignments recorded against clearable transactions.",
	})
	assignedAmount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "microbooks_assignments_amount_total",
		Help: "Cumulative amount cleared through assignments.",
	})
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "microbooks_ledger_integrity_scans_total",
		Help: "Ledger integrity scans by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(requests, duration, posted, entries, assignments, assignedAmount, scans)
	return &Metrics{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:       requests,
		requestDuration:     duration,
		transactionsPosted:  posted,
		ledgerEntriesTotal:  entries,
		assignmentsTotal:    assignments,
		assignmentsAmount:   assignedAmount,
		integrityScansTotal: scans,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// TransactionPosted counts a successful posting and its ledger entries.
func (m *Metrics) TransactionPosted(transactionType string, entries int) {
	if m == nil {
		return
	}
	m.transactionsPosted.WithLabelValues(transactionType).Inc()
	m.ledgerEntriesTotal.Add(float64(entries))
}

// AssignmentRecorded counts a clearance and accumulates the cleared amount.
func (m *Metrics) AssignmentRecorded(amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.assignmentsTotal.Inc()
	value, _ := amount.Float64()
	m.assignmentsAmount.Add(value)
}

// IntegrityScan counts a ledger integrity scan by outcome ("clean" or "drift").
func (m *Metrics) IntegrityScan(outcome string) {
	if m == nil {
		return
	}
	m.integrityScansTotal.WithLabelValues(outcome).Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
