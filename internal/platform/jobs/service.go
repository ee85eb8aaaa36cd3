package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"workpulse/internal/platform/metrics"
)

const (
	TriggerDrain     = "queue_drain"
	TriggerOverdue   = "overdue_marking"
	TriggerAnalyze   = "daily_analysis"
	TriggerSnapshots = "weekly_snapshots"
)

// Recorder wraps every scheduled invocation in a trigger_runs row so
// operators can audit what each cadence did and how it ended.
type Recorder struct {
	DB      *pgxpool.Pool
	Metrics *metrics.Collector
}

func NewRecorder(db *pgxpool.Pool, collector *metrics.Collector) *Recorder {
	return &Recorder{DB: db, Metrics: collector}
}

// Run executes fn under a trigger_runs record. The record moves from
// running to completed or failed with the result details attached.
// Without a pool only the metrics side runs.
func (r *Recorder) Run(ctx context.Context, triggerType string, fn func(context.Context) (any, error)) (any, error) {
	started := time.Now()
	runID := ""
	if r.DB == nil {
		details, err := fn(ctx)
		if r.Metrics != nil {
			processed, itemErrors := resultCounts(details)
			r.Metrics.RecordRun(err != nil, processed, itemErrors, time.Since(started))
		}
		return details, err
	}
	if err := r.DB.QueryRow(ctx, `
    INSERT INTO trigger_runs (trigger_type, status)
    VALUES ($1, $2)
    RETURNING id
  `, triggerType, "running").Scan(&runID); err != nil {
		slog.Warn("trigger run insert failed", "triggerType", triggerType, "err", err)
	}

	details, err := fn(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("trigger details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := r.DB.Exec(ctx, `
      UPDATE trigger_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("trigger run update failed", "err", updErr)
		}
	}
	if r.Metrics != nil {
		processed, itemErrors := resultCounts(details)
		r.Metrics.RecordRun(err != nil, processed, itemErrors, time.Since(started))
	}
	return details, err
}

type counted interface {
	Counts() (processed, itemErrors int)
}

func resultCounts(details any) (int, int) {
	if c, ok := details.(counted); ok {
		return c.Counts()
	}
	return 0, 0
}

// ListRecentRuns backs the operational view of trigger history.
func (r *Recorder) ListRecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.Query(ctx, `
    SELECT id, trigger_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM trigger_runs
    ORDER BY started_at DESC
    LIMIT $1
  `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var record RunRecord
		var detailsJSON []byte
		if err := rows.Scan(&record.ID, &record.TriggerType, &record.Status, &detailsJSON, &record.StartedAt, &record.CompletedAt); err != nil {
			return nil, err
		}
		record.Details = json.RawMessage(detailsJSON)
		records = append(records, record)
	}
	return records, rows.Err()
}

type RunRecord struct {
	ID          string          `json:"id"`
	TriggerType string          `json:"triggerType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}
