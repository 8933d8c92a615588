package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

// SessionIDKey is the context key for the diagnostic session ID.
const SessionIDKey contextKey = "session_id"

// SessionExtractor extracts the session ID from the request.
// It checks the X-Session-Id header, then the session query parameter,
// and falls back to a generated ID so every request belongs to a session.
func SessionExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := strings.TrimSpace(r.Header.Get("X-Session-Id"))

		if session == "" {
			session = strings.TrimSpace(r.URL.Query().Get("session"))
		}

		if session == "" {
			session = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID retrieves the session ID from the request context.
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(SessionIDKey).(string); ok {
		return v
	}
	return ""
}
