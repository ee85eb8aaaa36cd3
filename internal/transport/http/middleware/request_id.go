package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"workpulse/internal/requestctx"
)

// RequestID tags every request with an id so batch-trigger log lines and
// trigger_runs rows can be correlated with the scheduler call that caused them.
// An inbound X-Request-ID is trusted if present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := requestctx.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
