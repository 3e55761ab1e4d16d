package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

// MaxFirst is the largest page size the storefront backend accepts.
const MaxFirst = 100

// Params holds cursor pagination parameters extracted from query strings.
type Params struct {
	First int    `json:"first"`
	After string `json:"after,omitempty"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{First: 20}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Invalid or out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if first := r.URL.Query().Get("first"); first != "" {
		if v, err := strconv.Atoi(first); err == nil && v > 0 && v <= MaxFirst {
			p.First = v
		}
	}

	p.After = strings.TrimSpace(r.URL.Query().Get("after"))
	return p
}

// Result wraps a cursor-paginated response.
type Result[T any] struct {
	Data        []T    `json:"data"`
	EndCursor   string `json:"end_cursor,omitempty"`
	HasNextPage bool   `json:"has_next_page"`
}

// NewResult creates a paginated result. A nil data slice is returned as empty.
func NewResult[T any](data []T, endCursor string, hasNextPage bool) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Data:        data,
		EndCursor:   endCursor,
		HasNextPage: hasNextPage,
	}
}
