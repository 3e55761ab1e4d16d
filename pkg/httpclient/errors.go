package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// maxErrorBody caps how much of an error response body is read.
const maxErrorBody = 1 << 20

// GraphQLError is a single entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// graphQLErrorBody is the shape of an error-only GraphQL response.
type graphQLErrorBody struct {
	Errors []GraphQLError `json:"errors"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into the storefront error taxonomy:
//
//	404             -> NotFound
//	401, 403        -> Transport (credentials rejected)
//	429, 5xx        -> Transport
//	other 4xx       -> InvalidResponse, carrying GraphQL error messages if any
//
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.Transport(
			fmt.Sprintf("%s returned status %d", serviceName, resp.StatusCode),
			fmt.Errorf("read body: %w", err),
		)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(serviceName, "resource")
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return apperrors.Transport(
			fmt.Sprintf("%s rejected credentials (status %d)", serviceName, resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return apperrors.Transport(
			fmt.Sprintf("%s returned status %d", serviceName, resp.StatusCode), nil)
	}

	if msgs := GraphQLMessages(bodyBytes); msgs != "" {
		return apperrors.InvalidResponse(fmt.Sprintf("%s: %s", serviceName, msgs))
	}
	return apperrors.InvalidResponse(
		fmt.Sprintf("%s returned status %d: %s", serviceName, resp.StatusCode, truncate(string(bodyBytes), 256)))
}

// GraphQLMessages extracts the joined messages of a GraphQL "errors" array
// from body. It returns "" when body carries no GraphQL errors.
func GraphQLMessages(body []byte) string {
	var parsed graphQLErrorBody
	if json.Unmarshal(body, &parsed) != nil || len(parsed.Errors) == 0 {
		return ""
	}
	return JoinGraphQLErrors(parsed.Errors)
}

// JoinGraphQLErrors joins the messages of errs with "; ".
func JoinGraphQLErrors(errs []GraphQLError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
