package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Span attributes set on storefront requests.
const (
	AttrSessionID     = attribute.Key("storefront.session_id")
	AttrProductHandle = attribute.Key("storefront.product_handle")
	AttrMutationKey   = attribute.Key("storefront.mutation_key")
	AttrGiftCardID    = attribute.Key("storefront.gift_card_id")
)

// routeParamAttrs maps chi URL parameters to span attributes.
var routeParamAttrs = map[string]attribute.Key{
	"handle": AttrProductHandle,
	"key":    AttrMutationKey,
	"id":     AttrGiftCardID,
}

// Tracing starts a server span per request, continuing an inbound W3C trace
// context. The span is named after the chi route pattern once routing is done
// and carries the shopper session and the storefront route parameters.
// A 409 on a mutation is recorded as a "mutation.busy" event, and 5xx
// responses mark the span as failed.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer("github.com/utafrali/storefront/" + serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			propagator := otel.GetTextMapPropagator()
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			attrs := []attribute.KeyValue{
				semconv.HTTPMethod(r.Method),
				semconv.HTTPTarget(r.URL.RequestURI()),
				semconv.UserAgentOriginal(r.UserAgent()),
			}
			if id := strings.TrimSpace(r.Header.Get(SessionHeader)); validSessionID(id) {
				attrs = append(attrs, AttrSessionID.String(id))
			}

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					span.SetName(r.Method + " " + pattern)
					span.SetAttributes(semconv.HTTPRoute(pattern))
				}
				for i, name := range rctx.URLParams.Keys {
					if key, ok := routeParamAttrs[name]; ok && i < len(rctx.URLParams.Values) {
						span.SetAttributes(key.String(rctx.URLParams.Values[i]))
					}
				}
			}

			span.SetAttributes(semconv.HTTPStatusCode(rw.statusCode))
			switch {
			case rw.statusCode == http.StatusConflict && r.Method != http.MethodGet:
				span.AddEvent("mutation.busy")
			case rw.statusCode >= 500:
				span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
			}
		})
	}
}
