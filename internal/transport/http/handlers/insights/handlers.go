package insightshandler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"workpulse/internal/domain/intelligence"
	"workpulse/internal/domain/scoring"
	"workpulse/internal/platform/jobs"
	"workpulse/internal/transport/http/api"
	"workpulse/internal/transport/http/middleware"
)

type Handler struct {
	Scoring *scoring.Service
	Intel   *intelligence.Service
	Jobs    *jobs.Recorder
}

func NewHandler(scoringSvc *scoring.Service, intelSvc *intelligence.Service, recorder *jobs.Recorder) *Handler {
	return &Handler{Scoring: scoringSvc, Intel: intelSvc, Jobs: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/insights", func(r chi.Router) {
		r.With(middleware.RequireUser).Get("/me", h.handleMyInsights)
	})
	r.Route("/intelligence", func(r chi.Router) {
		r.With(middleware.RequireUser).Get("/summary", h.handleSummary)
		r.With(middleware.RequireAdmin).Get("/runs", h.handleRecentRuns)
	})
}

type personalInsightsView struct {
	Reports  []scoring.WeeklyReport    `json:"reports"`
	Insights intelligence.UserInsights `json:"insights"`
}

func (h *Handler) handleMyInsights(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	reports, err := h.Scoring.RecentReports(r.Context(), user.UserID, 8)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "insights_failed", "failed to load recent reports", middleware.GetRequestID(r.Context()))
		return
	}
	insights, err := h.Intel.PersonalInsights(r.Context(), user.UserID, time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "insights_failed", "failed to load insights", middleware.GetRequestID(r.Context()))
		return
	}
	if reports == nil {
		reports = []scoring.WeeklyReport{}
	}
	api.Success(w, personalInsightsView{Reports: reports, Insights: insights}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Intel.GenerateIntelligenceSummary(r.Context(), time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "summary_failed", "failed to generate summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid limit", middleware.GetRequestID(r.Context()))
			return
		}
		limit = parsed
	}

	runs, err := h.Jobs.ListRecentRuns(r.Context(), limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "runs_failed", "failed to list trigger runs", middleware.GetRequestID(r.Context()))
		return
	}
	if runs == nil {
		runs = []jobs.RunRecord{}
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}
