package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exporter
}

func tracedRouter(status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Tracing("storefront-service"))
	reply := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(status) }
	r.Get("/api/v1/storefront/products/{handle}", reply)
	r.Get("/api/v1/storefront/cart/mutations/{key}", reply)
	r.Post("/api/v1/storefront/cart/lines", reply)
	r.Delete("/api/v1/storefront/cart/gift-cards/{id}", reply)
	return r
}

func onlySpan(t *testing.T, exporter *tracetest.InMemoryExporter) tracetest.SpanStub {
	t.Helper()
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	return spans[0]
}

func attrs(span tracetest.SpanStub) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(span.Attributes))
	for _, kv := range span.Attributes {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing_NamesSpanAfterRoute(t *testing.T) {
	exporter := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/products/tee-black", nil)
	tracedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	span := onlySpan(t, exporter)
	assert.Equal(t, "GET /api/v1/storefront/products/{handle}", span.Name)
	a := attrs(span)
	assert.Equal(t, "/api/v1/storefront/products/{handle}", a["http.route"].AsString())
	assert.Equal(t, "tee-black", a[AttrProductHandle].AsString())
	assert.Equal(t, int64(200), a["http.status_code"].AsInt64())
}

func TestTracing_RecordsSessionAndMutationKey(t *testing.T) {
	exporter := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/cart/mutations/gift-card-add", nil)
	req.Header.Set(SessionHeader, "sess-1")
	tracedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	a := attrs(onlySpan(t, exporter))
	assert.Equal(t, "sess-1", a[AttrSessionID].AsString())
	assert.Equal(t, "gift-card-add", a[AttrMutationKey].AsString())
}

func TestTracing_GiftCardIDParam(t *testing.T) {
	exporter := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/storefront/cart/gift-cards/gc-1", nil)
	tracedRouter(http.StatusAccepted).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "gc-1", attrs(onlySpan(t, exporter))[AttrGiftCardID].AsString())
}

func TestTracing_MalformedSessionIsNotRecorded(t *testing.T) {
	exporter := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/products/tee-black", nil)
	req.Header.Set(SessionHeader, "bad\x00id")
	tracedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	_, ok := attrs(onlySpan(t, exporter))[AttrSessionID]
	assert.False(t, ok)
}

func TestTracing_BusyMutationAddsEvent(t *testing.T) {
	exporter := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/storefront/cart/lines", nil)
	tracedRouter(http.StatusConflict).ServeHTTP(httptest.NewRecorder(), req)

	span := onlySpan(t, exporter)
	require.Len(t, span.Events, 1)
	assert.Equal(t, "mutation.busy", span.Events[0].Name)
	assert.Equal(t, codes.Unset, span.Status.Code)
}

func TestTracing_BadGatewayMarksError(t *testing.T) {
	exporter := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/products/tee-black", nil)
	tracedRouter(http.StatusBadGateway).ServeHTTP(httptest.NewRecorder(), req)

	span := onlySpan(t, exporter)
	assert.Equal(t, codes.Error, span.Status.Code)
	assert.Equal(t, "Bad Gateway", span.Status.Description)
}

func TestTracing_ContinuesInboundTrace(t *testing.T) {
	exporter := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/products/tee-black", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	tracedRouter(http.StatusOK).ServeHTTP(rec, req)

	span := onlySpan(t, exporter)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", span.Parent.SpanID().String())
	assert.Contains(t, rec.Header().Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}
