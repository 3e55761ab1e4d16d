package httpclient

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      1 * time.Second, // Short for tests.
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func doGet(t *testing.T, cb *CircuitBreakerClient, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return cb.Do(context.Background(), req)
}

func TestCircuitBreaker_ClosedState_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	client := New(Config{Timeout: 5 * time.Second, MaxConnsPerHost: 10})
	cb := NewCircuitBreakerClient(client, testCBConfig("test-closed"), testLogger())

	resp, err := doGet(t, cb, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_5xxIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Config{Timeout: 5 * time.Second, MaxConnsPerHost: 10})
	cb := NewCircuitBreakerClient(client, testCBConfig("test-5xx"), testLogger())

	_, err := doGet(t, cb, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestCircuitBreaker_TripsOnFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(Config{Timeout: 5 * time.Second, MaxConnsPerHost: 10})
	cb := NewCircuitBreakerClient(client, testCBConfig("test-trip"), testLogger())

	for i := 0; i < 3; i++ {
		_, err := doGet(t, cb, server.URL)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	// Rejected without reaching the server.
	rejected := testutil.ToFloat64(circuitBreakerRejections.WithLabelValues("test-trip"))
	_, err := doGet(t, cb, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, rejected+1, testutil.ToFloat64(circuitBreakerRejections.WithLabelValues("test-trip")))
	assert.Equal(t, float64(2), testutil.ToFloat64(circuitBreakerState.WithLabelValues("test-trip")))
}

func TestCircuitBreaker_CallerCancelDoesNotTrip(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := New(Config{Timeout: 5 * time.Second, MaxConnsPerHost: 10})
	cb := NewCircuitBreakerClient(client, testCBConfig("test-cancel"), testLogger())

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		req, err := http.NewRequest(http.MethodGet, server.URL, http.NoBody)
		require.NoError(t, err)
		time.AfterFunc(10*time.Millisecond, cancel)
		_, err = cb.Do(ctx, req)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		cancel()
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenToClosedRecovery(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testCBConfig("test-recovery")
	cfg.Timeout = 100 * time.Millisecond

	client := New(Config{Timeout: 5 * time.Second, MaxConnsPerHost: 10})
	cb := NewCircuitBreakerClient(client, cfg, testLogger())

	for i := 0; i < 3; i++ {
		_, _ = doGet(t, cb, server.URL)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(150 * time.Millisecond)
	failing.Store(false)

	resp, err := doGet(t, cb, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_4xxNotCountedAsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad query"}]}`))
	}))
	defer server.Close()

	client := New(Config{Timeout: 5 * time.Second, MaxConnsPerHost: 10})
	cb := NewCircuitBreakerClient(client, testCBConfig("test-4xx"), testLogger())

	for i := 0; i < 5; i++ {
		resp, err := doGet(t, cb, server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("storefront")
	assert.Equal(t, "storefront", cfg.Name)
	assert.Equal(t, uint32(5), cfg.MinRequests)
	assert.Equal(t, 0.5, cfg.FailureRatio)
}

func TestStateToFloat(t *testing.T) {
	assert.Equal(t, float64(0), stateToFloat(gobreaker.StateClosed))
	assert.Equal(t, float64(1), stateToFloat(gobreaker.StateHalfOpen))
	assert.Equal(t, float64(2), stateToFloat(gobreaker.StateOpen))
}
