package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "HTTP requests by method, chi route pattern, status and outcome.",
	}, []string{"method", "route", "status", "outcome"})

	// Buckets span cache hits up to slow Storefront API round trips.
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "HTTP request duration by method and chi route pattern.",
		Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})
)

// Request outcomes. busy and rate_limited are split from other 4xx so the
// mutation guards can be watched apart from bad input.
const (
	OutcomeOK            = "ok"
	OutcomeClientError   = "client_error"
	OutcomeBusy          = "busy"
	OutcomeRateLimited   = "rate_limited"
	OutcomeUpstreamError = "upstream_error"
	OutcomeServerError   = "server_error"
)

func outcome(status int) string {
	switch {
	case status < 400:
		return OutcomeOK
	case status == http.StatusConflict:
		return OutcomeBusy
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case status < 500:
		return OutcomeClientError
	case status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return OutcomeUpstreamError
	default:
		return OutcomeServerError
	}
}

// PrometheusMetrics records request metrics labelled by chi route pattern, so
// /products/{handle} stays one series. Unrouted requests use "unmatched".
func PrometheusMetrics() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode), outcome(rw.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
