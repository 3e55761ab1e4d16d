package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meteredRouter(status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics())
	r.Get("/api/v1/storefront/products/{handle}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	r.Post("/api/v1/storefront/cart/lines", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	r.Get("/api/v1/storefront/cart", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	return r
}

func requests(method, route, status, outcome string) float64 {
	return testutil.ToFloat64(httpRequestsTotal.WithLabelValues(method, route, status, outcome))
}

func TestOutcome(t *testing.T) {
	tests := map[int]string{
		http.StatusOK:                  OutcomeOK,
		http.StatusAccepted:            OutcomeOK,
		http.StatusBadRequest:          OutcomeClientError,
		http.StatusNotFound:            OutcomeClientError,
		http.StatusConflict:            OutcomeBusy,
		http.StatusTooManyRequests:     OutcomeRateLimited,
		http.StatusBadGateway:          OutcomeUpstreamError,
		http.StatusGatewayTimeout:      OutcomeUpstreamError,
		http.StatusInternalServerError: OutcomeServerError,
	}
	for status, want := range tests {
		assert.Equal(t, want, outcome(status), "status %d", status)
	}
}

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	route := "/api/v1/storefront/products/{handle}"
	before := requests(http.MethodGet, route, "200", OutcomeOK)

	r := meteredRouter(http.StatusOK)
	for _, handle := range []string{"tee-black", "tee-white"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/storefront/products/"+handle, nil))
	}

	assert.Equal(t, before+2, requests(http.MethodGet, route, "200", OutcomeOK))
}

func TestPrometheusMetrics_BusyMutation(t *testing.T) {
	route := "/api/v1/storefront/cart/lines"
	before := requests(http.MethodPost, route, "409", OutcomeBusy)

	meteredRouter(http.StatusConflict).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, route, nil))

	assert.Equal(t, before+1, requests(http.MethodPost, route, "409", OutcomeBusy))
}

func TestPrometheusMetrics_ImplicitOK(t *testing.T) {
	route := "/api/v1/storefront/cart"
	before := requests(http.MethodGet, route, "200", OutcomeOK)

	meteredRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, route, nil))

	assert.Equal(t, before+1, requests(http.MethodGet, route, "200", OutcomeOK))
}

func TestPrometheusMetrics_ObservesDuration(t *testing.T) {
	route := "/api/v1/storefront/products/{handle}"
	meteredRouter(http.StatusBadGateway).ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/api/v1/storefront/products/tee-black", nil))

	observer, err := httpRequestDuration.GetMetricWithLabelValues(http.MethodGet, route)
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, observer.(prometheus.Metric).Write(&m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}

func TestPrometheusMetrics_InFlightReturnsToZero(t *testing.T) {
	var during float64
	r := chi.NewRouter()
	r.Use(PrometheusMetrics())
	r.Get("/api/v1/storefront/cart", func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(httpRequestsInFlight)
	})
	base := testutil.ToFloat64(httpRequestsInFlight)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/storefront/cart", nil))

	assert.Equal(t, base+1, during)
	assert.Equal(t, base, testutil.ToFloat64(httpRequestsInFlight))
}
