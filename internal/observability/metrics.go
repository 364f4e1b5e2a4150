// Package observability collects Prometheus metrics for the application.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the Prometheus registry and application metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	quotationsCreated  *prometheus.CounterVec
	quotationsAccepted *prometheus.CounterVec
	liquidationsTotal  prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cotizador_http_requests_total",
		Help: "Number of HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cotizador_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cotizador_quotations_created_total",
		Help: "Quotations created per company prefix.",
	}, []string{"company"})
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cotizador_quotations_accepted_total",
		Help: "Quotations accepted per company prefix.",
	}, []string{"company"})
	liquidations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cotizador_liquidations_total",
		Help: "Liquidation payments recorded.",
	})
	registry.MustRegister(requests, duration, created, accepted, liquidations)
	return &Metrics{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:      requests,
		requestDuration:    duration,
		quotationsCreated:  created,
		quotationsAccepted: accepted,
		liquidationsTotal:  liquidations,
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

// Middleware records metrics for every HTTP request.
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

// QuotationCreated increments the created counter for a company prefix.
func (m *Metrics) QuotationCreated(prefix string) {
	if m == nil {
		return
	}
	m.quotationsCreated.WithLabelValues(prefix).Inc()
}

// QuotationAccepted increments the accepted counter for a company prefix.
func (m *Metrics) QuotationAccepted(prefix string) {
	if m == nil {
		return
	}
	m.quotationsAccepted.WithLabelValues(prefix).Inc()
}

// LiquidationRecorded increments the liquidation counter.
func (m *Metrics) LiquidationRecorded() {
	if m == nil {
		return
	}
	m.liquidationsTotal.Inc()
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
