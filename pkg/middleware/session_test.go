package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
)

func TestSession_StoresIDInContext(t *testing.T) {
	var gotSession, gotLogSession string
	handler := Session()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = SessionIDFromContext(r.Context())
		gotLogSession = logger.SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(SessionHeader, "  sess-123  ")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "sess-123", gotSession)
	assert.Equal(t, "sess-123", gotLogSession)
}

func TestSession_RejectsMissingOrMalformed(t *testing.T) {
	for name, header := range map[string]string{
		"missing":   "",
		"too long":  strings.Repeat("x", maxSessionIDLength+1),
		"non-ascii": "séance",
		"spaces":    "a b",
	} {
		t.Run(name, func(t *testing.T) {
			called := false
			handler := Session()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if header != "" {
				req.Header.Set(SessionHeader, header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var resp httputil.Response
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "INVALID_SESSION", resp.Error.Code)
		})
	}
}

func TestNoStore_SetsHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	NoStore()(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestCacheControl_OnlyGet(t *testing.T) {
	rr := httptest.NewRecorder()
	CacheControl(60)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, "public, max-age=60", rr.Header().Get("Cache-Control"))

	rr = httptest.NewRecorder()
	CacheControl(60)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/products", nil))
	assert.Empty(t, rr.Header().Get("Cache-Control"))
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	handler := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	ctx := logger.WithCorrelationID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "corr-9")
	req := httptest.NewRequest(http.MethodGet, "/quickview", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.Equal(t, "corr-9", resp.Error.RequestID)
}

func TestRequestLogging_SetsCorrelationHeader(t *testing.T) {
	handler := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "corr-in", logger.CorrelationIDFromContext(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set(CorrelationHeader, "corr-in")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "corr-in", rr.Header().Get(CorrelationHeader))

	rr = httptest.NewRecorder()
	RequestLogging(logger.Discard())(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.NotEmpty(t, rr.Header().Get(CorrelationHeader))
}
