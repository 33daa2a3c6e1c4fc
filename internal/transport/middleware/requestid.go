package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/backoffice-crm/backoffice-crm/pkg/logger"
)

// RequestID propagates an inbound trace id or mints a fresh one, and scopes
// the request logger with it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)

		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
