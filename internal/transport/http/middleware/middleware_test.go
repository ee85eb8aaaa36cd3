package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func signToken(t *testing.T, secret string, claims tokenClaims) string {
	t.Helper()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSchedulerSecretRejectsMissingHeader(t *testing.T) {
	handler := SchedulerSecret("topsecret")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triggers/drain", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSchedulerSecretRejectsWrongSecret(t *testing.T) {
	handler := SchedulerSecret("topsecret")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triggers/drain", nil)
	req.Header.Set("X-Scheduler-Secret", "guess")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSchedulerSecretAcceptsMatch(t *testing.T) {
	handler := SchedulerSecret("topsecret")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triggers/drain", nil)
	req.Header.Set("X-Scheduler-Secret", "topsecret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSchedulerSecretRejectsWhenUnconfigured(t *testing.T) {
	handler := SchedulerSecret("")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triggers/drain", nil)
	req.Header.Set("X-Scheduler-Secret", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when no secret configured, got %d", rec.Code)
	}
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	handler := RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scoring/config", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id header")
	}
}

func TestRequestIDKeepsInbound(t *testing.T) {
	handler := RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scoring/config", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected inbound request id kept, got %q", got)
	}
}

func TestAuthPopulatesUserContext(t *testing.T) {
	secret := "jwt-secret"
	var captured UserContext
	var present bool
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, present = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token := signToken(t, secret, tokenClaims{UserID: "u1", TeamID: "t1", Admin: true})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/insights/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !present {
		t.Fatalf("expected user context")
	}
	if captured.UserID != "u1" || captured.TeamID != "t1" || !captured.Admin {
		t.Fatalf("unexpected user context %+v", captured)
	}
}

func TestAuthIgnoresBadToken(t *testing.T) {
	handler := Auth("jwt-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatalf("expected anonymous context for bad token")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/insights/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}
}

func TestRequireUserRejectsAnonymous(t *testing.T) {
	handler := RequireUser(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/insights/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	secret := "jwt-secret"
	handler := Auth(secret)(RequireAdmin(okHandler()))

	token := signToken(t, secret, tokenClaims{UserID: "u1", TeamID: "t1"})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
