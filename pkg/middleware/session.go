package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
)

// SessionHeader carries the shopper session identifier.
const SessionHeader = "X-Session-ID"

// maxSessionIDLength bounds the accepted session identifier.
const maxSessionIDLength = 128

type contextKeyType string

const sessionIDKey contextKeyType = "session_id"

// Session rejects requests without a usable X-Session-ID header and stores
// the identifier in the request context.
func Session() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(SessionHeader))
			if !validSessionID(id) {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:      "INVALID_SESSION",
						Message:   "missing or malformed " + SessionHeader + " header",
						RequestID: logger.CorrelationIDFromContext(r.Context()),
					},
				})
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, id)
			ctx = logger.WithSessionID(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext extracts the session ID set by the Session middleware.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
