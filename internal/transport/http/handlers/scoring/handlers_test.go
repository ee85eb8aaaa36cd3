package scoringhandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"workpulse/internal/domain/scoring"
	"workpulse/internal/transport/http/middleware"
)

type memScoringStore struct {
	mu      sync.Mutex
	userIDs []string
	saved   []scoring.WeeklyReport
}

func (s *memScoringStore) GetConfig(ctx context.Context) (scoring.ScoringConfig, error) {
	return scoring.ScoringConfig{CompletionWeight: 40, TimelinessWeight: 30, QualityWeight: 20, KRAAlignmentWeight: 10}, nil
}

func (s *memScoringStore) UpdateConfig(ctx context.Context, cfg scoring.ScoringConfig) error {
	return nil
}

func (s *memScoringStore) ListUserWorkItems(ctx context.Context, userID string, start, end time.Time) ([]scoring.WorkItem, error) {
	return nil, nil
}

func (s *memScoringStore) UpsertWeeklyReport(ctx context.Context, report scoring.WeeklyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, report)
	return nil
}

func (s *memScoringStore) GetWeeklyReport(ctx context.Context, userID string, weekStart time.Time) (scoring.WeeklyReport, error) {
	return scoring.WeeklyReport{}, nil
}

func (s *memScoringStore) ListRecentReports(ctx context.Context, userID string, limit int) ([]scoring.WeeklyReport, error) {
	return nil, nil
}

func (s *memScoringStore) ListUserIDs(ctx context.Context) ([]string, error) {
	return s.userIDs, nil
}

func (s *memScoringStore) ListTeams(ctx context.Context) ([]scoring.Team, error) {
	return nil, nil
}

func (s *memScoringStore) ListTeamMemberIDs(ctx context.Context, teamID string) ([]string, error) {
	return nil, nil
}

func (s *memScoringStore) savedReports() []scoring.WeeklyReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scoring.WeeklyReport(nil), s.saved...)
}

const testJWTSecret = "report-test-secret"

func bearerToken(t *testing.T, userID string, admin bool) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   userID,
		"admin": admin,
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func newReportRouter(t *testing.T, store *memScoringStore) chi.Router {
	t.Helper()
	handler := NewHandler(scoring.NewService(store, 4))

	router := chi.NewRouter()
	router.Use(middleware.Auth(testJWTSecret))
	router.Route("/api/v1", handler.RegisterRoutes)
	return router
}

func TestGenerateWeeklyMidweekDateSnapsToCalendarWeek(t *testing.T) {
	store := &memScoringStore{}
	router := newReportRouter(t, store)

	// 2026-08-26 is a Wednesday; the persisted window must still be the
	// surrounding Monday-Sunday week.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/weekly", strings.NewReader(`{"weekStart":"2026-08-26"}`))
	req.Header.Set("Authorization", bearerToken(t, "u1", false))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	saved := store.savedReports()
	if len(saved) != 1 {
		t.Fatalf("expected one persisted report, got %d", len(saved))
	}
	wantStart := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, time.August, 30, 23, 59, 59, 0, time.UTC)
	if !saved[0].WeekStart.Equal(wantStart) {
		t.Fatalf("expected week start %v, got %v", wantStart, saved[0].WeekStart)
	}
	if !saved[0].WeekEnd.Equal(wantEnd) {
		t.Fatalf("expected week end %v, got %v", wantEnd, saved[0].WeekEnd)
	}
}

func TestAdminReportMidweekDateSnapsToCalendarWeek(t *testing.T) {
	store := &memScoringStore{userIDs: []string{"u1"}}
	router := newReportRouter(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/admin?type=users&weekStart=2026-08-26", nil)
	req.Header.Set("Authorization", bearerToken(t, "admin1", true))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	saved := store.savedReports()
	if len(saved) != 1 {
		t.Fatalf("expected one persisted report, got %d", len(saved))
	}
	wantEnd := time.Date(2026, time.August, 30, 23, 59, 59, 0, time.UTC)
	if !saved[0].WeekEnd.Equal(wantEnd) {
		t.Fatalf("expected week end %v, got %v", wantEnd, saved[0].WeekEnd)
	}
}

func TestGenerateWeeklyForOtherUserRequiresElevation(t *testing.T) {
	store := &memScoringStore{}
	router := newReportRouter(t, store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/weekly", strings.NewReader(`{"userId":"u2","weekStart":"2026-08-24"}`))
	req.Header.Set("Authorization", bearerToken(t, "u1", false))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(store.savedReports()) != 0 {
		t.Fatalf("expected no persisted report, got %d", len(store.savedReports()))
	}
}
