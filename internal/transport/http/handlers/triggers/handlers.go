package triggershandler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workpulse/internal/domain/intelligence"
	"workpulse/internal/domain/queue"
	"workpulse/internal/platform/jobs"
	"workpulse/internal/transport/http/api"
	"workpulse/internal/transport/http/middleware"
)

// Handler exposes the scheduler-facing trigger endpoints. Every batch
// runs inside the trigger-run recorder so failures and counts land in
// the audit table.
type Handler struct {
	Queue     *queue.Service
	Intel     *intelligence.Service
	Jobs      *jobs.Recorder
	Secret    string
	BatchSize int
}

func NewHandler(queueSvc *queue.Service, intelSvc *intelligence.Service, recorder *jobs.Recorder, secret string, batchSize int) *Handler {
	return &Handler{Queue: queueSvc, Intel: intelSvc, Jobs: recorder, Secret: secret, BatchSize: batchSize}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/triggers", func(r chi.Router) {
		r.Use(middleware.SchedulerSecret(h.Secret))
		r.Post("/drain", h.handleDrain)
		r.Post("/overdue", h.handleOverdue)
		r.Post("/analyze", h.handleAnalyze)
		r.Post("/snapshots", h.handleSnapshots)
		r.Post("/enqueue", h.handleEnqueue)
	})
}

func (h *Handler) handleDrain(w http.ResponseWriter, r *http.Request) {
	maxItems := h.BatchSize
	var payload struct {
		MaxItems int `json:"maxItems"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && payload.MaxItems > 0 {
		maxItems = payload.MaxItems
	}

	result, err := h.Jobs.Run(r.Context(), jobs.TriggerDrain, func(ctx context.Context) (any, error) {
		return h.Queue.Drain(ctx, maxItems)
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "drain_failed", "queue drain failed", middleware.GetRequestID(r.Context()))
		return
	}
	drain := result.(queue.DrainResult)
	api.Batch(w, drain.Processed, drain.Errors, nil, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	result, err := h.Jobs.Run(r.Context(), jobs.TriggerOverdue, func(ctx context.Context) (any, error) {
		return h.Intel.MarkOverdue(ctx, time.Now())
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overdue_failed", "overdue marking failed", middleware.GetRequestID(r.Context()))
		return
	}
	marked := result.(intelligence.AnalysisResult)
	api.Batch(w, marked.Detected, marked.Errors, nil, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	result, err := h.Jobs.Run(r.Context(), jobs.TriggerAnalyze, func(ctx context.Context) (any, error) {
		return h.Intel.RunDailyAnalyses(ctx, time.Now()), nil
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "analysis_failed", "daily analyses failed", middleware.GetRequestID(r.Context()))
		return
	}
	daily := result.(intelligence.DailyResult)
	processed, _ := daily.Counts()
	var errs []string
	errs = append(errs, daily.Chronic.Errors...)
	errs = append(errs, daily.Trends.Errors...)
	errs = append(errs, daily.Risks.Errors...)
	for name, msg := range daily.Failed {
		errs = append(errs, name+": "+msg)
	}
	api.Batch(w, processed, errs, daily, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	result, err := h.Jobs.Run(r.Context(), jobs.TriggerSnapshots, func(ctx context.Context) (any, error) {
		return h.Intel.CreateWeeklySnapshots(ctx, time.Now())
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "snapshot_failed", "weekly snapshots failed", middleware.GetRequestID(r.Context()))
		return
	}
	snapshots := result.(intelligence.AnalysisResult)
	api.Batch(w, snapshots.Detected, snapshots.Errors, nil, middleware.GetRequestID(r.Context()))
}

// handleEnqueue is the intake hook the upstream work-item system calls
// when an item changes: it invalidates the affected (user, week) pair.
func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID    string `json:"userId"`
		WeekStart string `json:"weekStart"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.UserID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "user id required", middleware.GetRequestID(r.Context()))
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

	if err := h.Queue.Enqueue(r.Context(), payload.UserID, at); err != nil {
		api.Fail(w, http.StatusInternalServerError, "enqueue_failed", "failed to enqueue recalculation", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "enqueued"}, middleware.GetRequestID(r.Context()))
}
