package queue

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Enqueue upserts a pending request keyed by (user, week). A row that
// is already queued or processing absorbs the new request.
func (s *Store) Enqueue(ctx context.Context, userID string, weekStart time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO recalculation_queue (user_id, week_start, status, enqueued_at)
    VALUES ($1, $2, $3, now())
    ON CONFLICT (user_id, week_start) DO NOTHING
  `, userID, weekStart, StatusQueued)
	return err
}

// ClaimBatch moves up to maxItems queued rows to processing and
// returns them, oldest first. SKIP LOCKED keeps overlapping drains
// from claiming the same request twice. Processing rows claimed before
// staleBefore are claimed again: a drain that died mid-run must not
// strand its batch forever.
func (s *Store) ClaimBatch(ctx context.Context, maxItems int, staleBefore time.Time) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    UPDATE recalculation_queue
    SET status = $1, claimed_at = now()
    WHERE id IN (
      SELECT id FROM recalculation_queue
      WHERE status = $2
         OR (status = $1 AND claimed_at < $3)
      ORDER BY enqueued_at
      LIMIT $4
      FOR UPDATE SKIP LOCKED
    )
    RETURNING id, user_id, week_start, status, enqueued_at, claimed_at, COALESCE(last_error, '')
  `, StatusProcessing, StatusQueued, staleBefore, maxItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		var request Request
		if err := rows.Scan(&request.ID, &request.UserID, &request.WeekStart, &request.Status, &request.EnqueuedAt, &request.ClaimedAt, &request.LastError); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// Complete removes a finished request from the backlog.
func (s *Store) Complete(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM recalculation_queue WHERE id = $1`, id)
	return err
}

// Release returns a failed request to the backlog for the next drain.
func (s *Store) Release(ctx context.Context, id string, lastError string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE recalculation_queue
    SET status = $1, claimed_at = NULL, last_error = NULLIF($2, '')
    WHERE id = $3
  `, StatusQueued, lastError, id)
	return err
}

func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM recalculation_queue WHERE status = $1`, StatusQueued).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
