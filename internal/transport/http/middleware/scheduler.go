package middleware

import (
	"crypto/subtle"
	"net/http"

	"workpulse/internal/transport/http/api"
)

// SchedulerSecret guards the trigger endpoints. Only the external
// scheduler carries the shared secret; everything else gets 403.
func SchedulerSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-Scheduler-Secret")
			if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				api.Fail(w, http.StatusForbidden, "forbidden", "invalid scheduler secret", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
