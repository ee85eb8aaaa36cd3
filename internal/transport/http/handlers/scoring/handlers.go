package scoringhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workpulse/internal/domain/scoring"
	"workpulse/internal/transport/http/api"
	"workpulse/internal/transport/http/middleware"
)

type Handler struct {
	Service *scoring.Service
}

func NewHandler(service *scoring.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/scoring", func(r chi.Router) {
		r.With(middleware.RequireUser).Get("/config", h.handleGetConfig)
		r.With(middleware.RequireAdmin).Put("/config", h.handleUpdateConfig)
	})
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequireUser).Post("/weekly", h.handleGenerateWeekly)
		r.With(middleware.RequireAdmin).Get("/admin", h.handleAdminReport)
	})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Service.GetConfig(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "config_read_failed", "failed to read scoring config", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, cfg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		CompletionWeight   int `json:"completionWeight"`
		TimelinessWeight   int `json:"timelinessWeight"`
		QualityWeight      int `json:"qualityWeight"`
		KRAAlignmentWeight int `json:"kraAlignmentWeight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	updated, err := h.Service.UpdateConfig(r.Context(), scoring.ScoringConfig{
		CompletionWeight:   payload.CompletionWeight,
		TimelinessWeight:   payload.TimelinessWeight,
		QualityWeight:      payload.QualityWeight,
		KRAAlignmentWeight: payload.KRAAlignmentWeight,
	}, user.UserID)
	if err != nil {
		if errors.Is(err, scoring.ErrInvalidWeights) || errors.Is(err, scoring.ErrWeightOutOfRange) {
			api.Fail(w, http.StatusBadRequest, "invalid_weights", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "config_update_failed", "failed to update scoring config", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerateWeekly(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		UserID    string `json:"userId"`
		WeekStart string `json:"weekStart"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.UserID == "" {
		payload.UserID = user.UserID
	}
	if payload.UserID != user.UserID && !user.Admin && !user.Manager {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	at := time.Now()
	if payload.WeekStart != "" {
		parsed, err := time.Parse(time.DateOnly, payload.WeekStart)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid week start", middleware.GetRequestID(r.Context()))
			return
		}
		at = parsed
	}
	weekStart := scoring.WeekStart(at)
	weekEnd := scoring.WeekEnd(weekStart)

	report, err := h.Service.GenerateWeeklyReport(r.Context(), payload.UserID, weekStart, weekEnd)
	if err != nil {
		if errors.Is(err, scoring.ErrInvalidWeights) || errors.Is(err, scoring.ErrWeightOutOfRange) {
			api.Fail(w, http.StatusConflict, "invalid_config", "scoring config is invalid", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to generate weekly report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdminReport(w http.ResponseWriter, r *http.Request) {
	reportType := r.URL.Query().Get("type")
	if reportType == "" {
		reportType = scoring.ReportTypeOverview
	}

	at := time.Now()
	if weekParam := r.URL.Query().Get("weekStart"); weekParam != "" {
		parsed, err := time.Parse(time.DateOnly, weekParam)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid week start", middleware.GetRequestID(r.Context()))
			return
		}
		at = parsed
	}
	weekStart := scoring.WeekStart(at)
	weekEnd := scoring.WeekEnd(weekStart)

	report, err := h.Service.GenerateAdminReport(r.Context(), reportType, weekStart, weekEnd)
	if err != nil {
		if errors.Is(err, scoring.ErrUnknownReportType) {
			api.Fail(w, http.StatusBadRequest, "unknown_report_type", "unknown report type", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to generate admin report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}
