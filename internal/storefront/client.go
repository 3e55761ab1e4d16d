// Package storefront talks to the commerce backend's Storefront GraphQL API.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
)

// DefaultAPIVersion is used when no API version is configured.
const DefaultAPIVersion = "2025-10"

// TokenHeader carries the public storefront access token.
const TokenHeader = "X-Shopify-Storefront-Access-Token"

const (
	serviceName     = "storefront"
	maxResponseBody = 4 << 20
)

// Doer executes HTTP requests. *httpclient.Client and
// *httpclient.CircuitBreakerClient satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config identifies the backend store.
type Config struct {
	Token   string
	Domain  string
	Version string
}

// Client is a Storefront GraphQL client. It performs a single attempt per
// call; failures are surfaced to the caller.
type Client struct {
	cfg    Config
	doer   Doer
	logger *slog.Logger
	tracer trace.Tracer
}

// NewClient creates a storefront client.
func NewClient(cfg Config, doer Doer, logger *slog.Logger) *Client {
	if cfg.Version == "" {
		cfg.Version = DefaultAPIVersion
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		doer:   doer,
		logger: logger,
		tracer: tracing.Tracer("github.com/utafrali/storefront/internal/storefront"),
	}
}

// Endpoint returns the GraphQL endpoint URL.
func (c *Client) Endpoint() string {
	return fmt.Sprintf("https://%s/api/%s/graphql.json", c.cfg.Domain, c.cfg.Version)
}

// Configured reports whether both token and domain are set.
func (c *Client) Configured() bool {
	return c.cfg.Token != "" && c.cfg.Domain != ""
}

// Ping checks that the backend answers a trivial query. It is used as a
// non-critical readiness check.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Shop struct {
			Name string `json:"name"`
		} `json:"shop"`
	}
	return c.execute(ctx, "Ping", `query Ping { shop { name } }`, nil, &out)
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage           `json:"data"`
	Errors []httpclient.GraphQLError `json:"errors"`
}

// execute sends one GraphQL operation and decodes its data into out.
func (c *Client) execute(ctx context.Context, operation, query string, vars map[string]any, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "storefront."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("graphql.operation.name", operation)),
	)
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(operation, outcome(err)).Observe(time.Since(start).Seconds())
		tracing.RecordError(span, err)
		span.End()
	}()

	if !c.Configured() {
		return apperrors.Transport("storefront credentials not configured", nil)
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return apperrors.Internal(fmt.Errorf("marshal %s request: %w", operation, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return apperrors.Transport("build storefront request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(TokenHeader, c.cfg.Token)

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		if httpclient.IsTimeout(err) {
			return apperrors.Transport("storefront request timed out", err)
		}
		return apperrors.Transport("storefront request failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return apperrors.Transport("read storefront response", err)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return apperrors.InvalidResponse("storefront returned malformed JSON")
	}
	if len(envelope.Errors) > 0 {
		return apperrors.InvalidResponse("storefront: " + httpclient.JoinGraphQLErrors(envelope.Errors))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return apperrors.InvalidResponse("storefront response has no data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperrors.InvalidResponse(fmt.Sprintf("decode %s data: %v", operation, err))
	}

	c.logger.DebugContext(ctx, "storefront call completed",
		slog.String("operation", operation),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperrors.Kind(err)
}
