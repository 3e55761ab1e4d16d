package tracing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func recordedSpan(t *testing.T, err error) sdktrace.ReadOnlySpan {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "storefront.ProductByHandle")
	RecordError(span, err)
	span.End()

	ro, ok := span.(sdktrace.ReadOnlySpan)
	require.True(t, ok, "expected sdk span, got %T", span)
	return ro
}

func attr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestInitTracer_Disabled(t *testing.T) {
	prev := otel.GetTracerProvider()

	shutdown, err := InitTracer(context.Background(), Config{ServiceName: "storefront"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, prev, otel.GetTracerProvider(), "disabled tracing must not replace the global provider")
}

func TestInitTracer_Enabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := InitTracer(context.Background(), Config{
		ServiceName:    "storefront-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "127.0.0.1:0",
		Insecure:       true,
		SampleRate:     1.0,
		Enabled:        true,
	})
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	// The collector is unreachable; only the flush may fail.
	_ = shutdown(context.Background())
}

func TestSamplerFor(t *testing.T) {
	cases := map[float64]string{
		1.0:  sdktrace.AlwaysSample().Description(),
		2.0:  sdktrace.AlwaysSample().Description(),
		0.0:  sdktrace.NeverSample().Description(),
		-1.0: sdktrace.NeverSample().Description(),
		0.5:  sdktrace.TraceIDRatioBased(0.5).Description(),
	}
	for rate, want := range cases {
		assert.Equal(t, want, samplerFor(rate).Description(), "rate %v", rate)
	}
}

func TestRecordError_TagsKind(t *testing.T) {
	span := recordedSpan(t, fmt.Errorf("fetch tee-black: %w", apperrors.NotFound("product", "tee-black")))

	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Len(t, span.Events(), 1)
	kind, ok := attr(span, AttrErrorKind)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", kind.AsString())
}

func TestRecordError_TransportKind(t *testing.T) {
	kind, ok := attr(recordedSpan(t, apperrors.Transport("storefront request timed out", nil)), AttrErrorKind)
	require.True(t, ok)
	assert.Equal(t, "TRANSPORT_ERROR", kind.AsString())
}

func TestRecordError_CanceledIsNotAFailure(t *testing.T) {
	span := recordedSpan(t, fmt.Errorf("http POST shop.example.com: %w", context.Canceled))

	assert.Equal(t, codes.Unset, span.Status().Code)
	assert.Empty(t, span.Events())
	canceled, ok := attr(span, "storefront.canceled")
	require.True(t, ok)
	assert.True(t, canceled.AsBool())
}

func TestRecordError_Nil(t *testing.T) {
	span := recordedSpan(t, nil)
	assert.Equal(t, codes.Unset, span.Status().Code)
	assert.Empty(t, span.Attributes())
}
