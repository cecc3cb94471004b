// Package metrics provides Prometheus instrumentation for the lot engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Action outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected" // validation failure or busy lot; ledger never called
	OutcomeFailed   = "failed"   // ledger rejected the submission
)

var (
	// ActionsTotal counts lot actions by kind and outcome.
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wheel_actions_total",
		Help: "Lot actions processed, by kind and outcome",
	}, []string{"kind", "outcome"})

	// SubmitLatency tracks ledger submission latency by action kind.
	SubmitLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wheel_submit_latency_seconds",
		Help:    "Ledger submission latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// OpenLots tracks lots currently not closed, by status.
	OpenLots = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wheel_lots",
		Help: "Lots in the collection, by derived status",
	}, []string{"status"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wheel_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wheel_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and durations. Uses the chi route
// pattern, not the raw URL, to keep label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
