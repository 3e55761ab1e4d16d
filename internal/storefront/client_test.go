package storefront

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
)

type capturedRequest struct {
	Path      string
	Token     string
	Query     string
	Variables map[string]any
}

// newTestClient starts a TLS server answering every GraphQL call with handler.
func newTestClient(t *testing.T, handler func(w http.ResponseWriter, req capturedRequest)) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		body, _ := io.ReadAll(r.Body)
		var gql graphQLRequest
		assert.NoError(t, json.Unmarshal(body, &gql))
		handler(w, capturedRequest{
			Path:      r.URL.Path,
			Token:     r.Header.Get(TokenHeader),
			Query:     gql.Query,
			Variables: gql.Variables,
		})
	}))
	t.Cleanup(srv.Close)

	doer := httpclient.New(httpclient.Config{Timeout: 5 * time.Second, Transport: srv.Client().Transport})
	cfg := Config{Token: "public-token", Domain: strings.TrimPrefix(srv.URL, "https://")}
	return NewClient(cfg, doer, logger.Discard()), &calls
}

func writeData(w http.ResponseWriter, data string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"data":` + data + `}`))
}

func TestNewClient_DefaultVersion(t *testing.T) {
	c := NewClient(Config{Token: "t", Domain: "shop.example.com"}, httpclient.New(httpclient.DefaultConfig()), nil)
	assert.Equal(t, "https://shop.example.com/api/2025-10/graphql.json", c.Endpoint())

	c = NewClient(Config{Token: "t", Domain: "shop.example.com", Version: "2024-10"}, nil, nil)
	assert.Equal(t, "https://shop.example.com/api/2024-10/graphql.json", c.Endpoint())
}

func TestClient_MissingCredentialsSkipsNetwork(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no token", Config{Domain: "shop.example.com"}},
		{"no domain", Config{Token: "t"}},
		{"nothing", Config{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			doer := doerFunc(func(ctx context.Context, req *http.Request) (*http.Response, error) {
				atomic.AddInt32(&calls, 1)
				return nil, nil
			})
			c := NewClient(tt.cfg, doer, logger.Discard())

			_, err := c.ProductByHandle(context.Background(), "tee-black")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrTransport)
			assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
		})
	}
}

type doerFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

func (f doerFunc) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

func TestClient_SendsEndpointAndToken(t *testing.T) {
	var got capturedRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, req capturedRequest) {
		got = req
		writeData(w, `{"product":`+teeBlackJSON+`}`)
	})

	_, err := c.ProductByHandle(context.Background(), "tee-black")
	require.NoError(t, err)
	assert.Equal(t, "/api/2025-10/graphql.json", got.Path)
	assert.Equal(t, "public-token", got.Token)
	assert.Contains(t, got.Query, "product(handle: $handle)")
	assert.Equal(t, "tee-black", got.Variables["handle"])
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `oops`, apperrors.ErrTransport},
		{"throttled", http.StatusTooManyRequests, ``, apperrors.ErrTransport},
		{"bad token", http.StatusUnauthorized, ``, apperrors.ErrTransport},
		{"not found", http.StatusNotFound, ``, apperrors.ErrNotFound},
		{"bad request", http.StatusBadRequest, `{"errors":[{"message":"bad query"}]}`, apperrors.ErrInvalidResponse},
		{"malformed json", http.StatusOK, `{"data":`, apperrors.ErrInvalidResponse},
		{"graphql errors", http.StatusOK, `{"errors":[{"message":"Throttled"}]}`, apperrors.ErrInvalidResponse},
		{"no data", http.StatusOK, `{"data":null}`, apperrors.ErrInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.ProductByHandle(context.Background(), "tee-black")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_NetworkFailureIsTransport(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	domain := strings.TrimPrefix(srv.URL, "https://")
	transport := srv.Client().Transport
	srv.Close()

	doer := httpclient.New(httpclient.Config{Timeout: time.Second, Transport: transport})
	c := NewClient(Config{Token: "t", Domain: domain}, doer, logger.Discard())

	_, err := c.ProductByHandle(context.Background(), "tee-black")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestClient_TimeoutIsTransport(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		time.Sleep(200 * time.Millisecond)
		writeData(w, `{"shop":{"name":"Slow Shop"}}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Ping(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "storefront request timed out", appErr.Message)
}

func TestClient_CircuitOpenIsTransport(t *testing.T) {
	c, serverCalls := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		w.WriteHeader(http.StatusBadGateway)
	})

	cbCfg := httpclient.DefaultCircuitBreakerConfig("storefront-test")
	cbCfg.MinRequests = 2
	cbCfg.FailureRatio = 1
	base := c.doer.(*httpclient.Client)
	c.doer = httpclient.NewCircuitBreakerClient(base, cbCfg, logger.Discard())

	for i := 0; i < 2; i++ {
		_, err := c.ProductByHandle(context.Background(), "tee-black")
		require.Error(t, err)
	}

	_, err := c.ProductByHandle(context.Background(), "tee-black")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
	assert.ErrorIs(t, err, httpclient.ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(serverCalls))
}

func TestClient_Ping(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, req capturedRequest) {
		assert.Contains(t, req.Query, "shop")
		writeData(w, `{"shop":{"name":"Test Shop"}}`)
	})
	assert.NoError(t, c.Ping(context.Background()))
}
