package intelligence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"workpulse/internal/domain/scoring"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) UserDueStats(ctx context.Context, windowStart, windowEnd time.Time) ([]UserDueStats, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.user_id,
           COUNT(1),
           COUNT(1) FILTER (WHERE w.status NOT IN ('completed','cancelled') AND w.due_date < $2)
    FROM work_items w
    CROSS JOIN LATERAL unnest(w.assignees) AS a(user_id)
    WHERE w.due_date BETWEEN $1 AND $2
      AND w.status <> 'cancelled'
    GROUP BY a.user_id
    ORDER BY a.user_id
  `, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []UserDueStats
	for rows.Next() {
		var stat UserDueStats
		if err := rows.Scan(&stat.UserID, &stat.TotalDue, &stat.OverdueCount); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func (s *Store) InsertChronicPattern(ctx context.Context, pattern ChronicOverduePattern) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO chronic_overdue_patterns (user_id, window_start, window_end, total_due, overdue_count, overdue_percentage, detected_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, pattern.UserID, pattern.WindowStart, pattern.WindowEnd, pattern.TotalDue, pattern.OverdueCount, pattern.OverduePercentage, pattern.DetectedAt)
	return err
}

func (s *Store) TeamWindowStats(ctx context.Context, windowStart, windowEnd time.Time) ([]TeamWindowStats, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.id, t.name,
           COUNT(w.id),
           COUNT(w.id) FILTER (WHERE w.status = 'completed' AND w.completed_at IS NOT NULL),
           COUNT(w.id) FILTER (WHERE w.status NOT IN ('completed','cancelled') AND w.due_date < $2)
    FROM teams t
    JOIN users u ON u.team_id = t.id
    JOIN work_items w ON u.id = ANY(w.assignees)
    WHERE w.due_date BETWEEN $1 AND $2
      AND w.status <> 'cancelled'
    GROUP BY t.id, t.name
    ORDER BY t.name
  `, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []TeamWindowStats
	for rows.Next() {
		var stat TeamWindowStats
		if err := rows.Scan(&stat.TeamID, &stat.TeamName, &stat.TasksAssigned, &stat.TasksCompleted, &stat.OverdueCount); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func (s *Store) UpsertDepartmentTrend(ctx context.Context, trend DepartmentTrend) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO department_trends (team_id, window_start, window_end, tasks_assigned, tasks_completed,
                                   overdue_count, completion_rate, prior_completion_rate, direction, computed_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    ON CONFLICT (team_id, window_start) DO UPDATE
    SET window_end = EXCLUDED.window_end,
        tasks_assigned = EXCLUDED.tasks_assigned,
        tasks_completed = EXCLUDED.tasks_completed,
        overdue_count = EXCLUDED.overdue_count,
        completion_rate = EXCLUDED.completion_rate,
        prior_completion_rate = EXCLUDED.prior_completion_rate,
        direction = EXCLUDED.direction,
        computed_at = EXCLUDED.computed_at
  `, trend.TeamID, trend.WindowStart, trend.WindowEnd, trend.TasksAssigned, trend.TasksCompleted,
		trend.OverdueCount, trend.CompletionRate, trend.PriorCompletionRate, trend.Direction, trend.ComputedAt)
	return err
}

func (s *Store) ListOpenDueItems(ctx context.Context) ([]scoring.WorkItem, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT w.id, w.title, w.kind, w.assignees, w.creator_id, w.status, w.priority,
           w.created_at, w.due_date, w.completed_at, w.revision_count,
           COALESCE(w.goal_id::text, ''),
           COALESCE(g.status NOT IN ('completed','cancelled'), false),
           w.reverted, w.overdue
    FROM work_items w
    LEFT JOIN work_items g ON g.id = w.goal_id
    WHERE w.status NOT IN ('completed','cancelled')
      AND w.due_date IS NOT NULL
    ORDER BY w.due_date
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []scoring.WorkItem
	for rows.Next() {
		var item scoring.WorkItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Kind, &item.Assignees, &item.CreatorID, &item.Status, &item.Priority,
			&item.CreatedAt, &item.DueDate, &item.CompletedAt, &item.RevisionCount,
			&item.GoalID, &item.GoalActive, &item.Reverted, &item.Overdue); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) DelayRates(ctx context.Context) (map[string]float64, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.user_id,
           COUNT(1) FILTER (WHERE w.completed_at > w.due_date)::float8 / COUNT(1)
    FROM work_items w
    CROSS JOIN LATERAL unnest(w.assignees) AS a(user_id)
    WHERE w.status = 'completed'
      AND w.due_date IS NOT NULL
      AND w.completed_at IS NOT NULL
    GROUP BY a.user_id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := map[string]float64{}
	for rows.Next() {
		var userID string
		var rate float64
		if err := rows.Scan(&userID, &rate); err != nil {
			return nil, err
		}
		rates[userID] = rate
	}
	return rates, rows.Err()
}

func (s *Store) UpsertRiskAssessment(ctx context.Context, assessment TaskRiskAssessment) error {
	factorsJSON, err := json.Marshal(assessment.Factors)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO task_risk_assessments (work_item_id, assignees, risk_score, tier, factors_json, computed_at)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (work_item_id) DO UPDATE
    SET assignees = EXCLUDED.assignees,
        risk_score = EXCLUDED.risk_score,
        tier = EXCLUDED.tier,
        factors_json = EXCLUDED.factors_json,
        computed_at = EXCLUDED.computed_at
  `, assessment.WorkItemID, assessment.Assignees, assessment.RiskScore, assessment.Tier, factorsJSON, assessment.ComputedAt)
	return err
}

func (s *Store) ListUsersWithReportsSince(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT user_id FROM weekly_reports WHERE week_start >= $1 ORDER BY user_id
  `, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) RecentReportTotals(ctx context.Context, userID string, limit int) ([]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT total_score FROM weekly_reports WHERE user_id = $1 ORDER BY week_start DESC LIMIT $2
  `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []int
	for rows.Next() {
		var total int
		if err := rows.Scan(&total); err != nil {
			return nil, err
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

func (s *Store) UpsertSnapshot(ctx context.Context, snapshot PerformanceSnapshot) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO performance_snapshots (user_id, iso_week, overall_score, trend, snapshot_at)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (user_id, iso_week) DO UPDATE
    SET overall_score = EXCLUDED.overall_score,
        trend = EXCLUDED.trend,
        snapshot_at = EXCLUDED.snapshot_at
  `, snapshot.UserID, snapshot.ISOWeek, snapshot.OverallScore, snapshot.Trend, snapshot.SnapshotAt)
	return err
}

// MarkOverdueItems flags open items whose due date has passed and
// returns the distinct assignees touched so their current week can be
// re-enqueued for scoring.
func (s *Store) MarkOverdueItems(ctx context.Context, asOf time.Time) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    WITH flagged AS (
      UPDATE work_items
      SET overdue = true
      WHERE overdue = false
        AND due_date < $1
        AND status NOT IN ('completed','cancelled')
      RETURNING assignees
    )
    SELECT DISTINCT a.user_id
    FROM flagged
    CROSS JOIN LATERAL unnest(flagged.assignees) AS a(user_id)
    ORDER BY a.user_id
  `, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ChronicUserCount(ctx context.Context, since time.Time) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(DISTINCT user_id) FROM chronic_overdue_patterns WHERE detected_at >= $1
  `, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// OpenRiskTierCounts excludes the low tier, which downstream views
// filter out by default.
func (s *Store) OpenRiskTierCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT tier, COUNT(1) FROM task_risk_assessments WHERE tier <> 'low' GROUP BY tier
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var tier string
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, err
		}
		counts[tier] = count
	}
	return counts, rows.Err()
}

func (s *Store) LatestTrendDirections(ctx context.Context) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT direction, COUNT(1)
    FROM (
      SELECT DISTINCT ON (team_id) direction
      FROM department_trends
      ORDER BY team_id, window_start DESC
    ) latest
    GROUP BY direction
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var direction string
		var count int
		if err := rows.Scan(&direction, &count); err != nil {
			return nil, err
		}
		counts[direction] = count
	}
	return counts, rows.Err()
}

func (s *Store) UserSnapshots(ctx context.Context, userID string, limit int) ([]PerformanceSnapshot, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT user_id, iso_week, overall_score, trend, snapshot_at
    FROM performance_snapshots
    WHERE user_id = $1
    ORDER BY snapshot_at DESC
    LIMIT $2
  `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []PerformanceSnapshot
	for rows.Next() {
		var snapshot PerformanceSnapshot
		if err := rows.Scan(&snapshot.UserID, &snapshot.ISOWeek, &snapshot.OverallScore, &snapshot.Trend, &snapshot.SnapshotAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

func (s *Store) LatestChronicPattern(ctx context.Context, userID string, since time.Time) (*ChronicOverduePattern, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, window_start, window_end, total_due, overdue_count, overdue_percentage, detected_at
    FROM chronic_overdue_patterns
    WHERE user_id = $1 AND detected_at >= $2
    ORDER BY detected_at DESC
    LIMIT 1
  `, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var pattern ChronicOverduePattern
	if err := rows.Scan(&pattern.ID, &pattern.UserID, &pattern.WindowStart, &pattern.WindowEnd,
		&pattern.TotalDue, &pattern.OverdueCount, &pattern.OverduePercentage, &pattern.DetectedAt); err != nil {
		return nil, err
	}
	return &pattern, nil
}

func (s *Store) UserOpenRisks(ctx context.Context, userID string) ([]TaskRiskAssessment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.work_item_id, r.assignees, r.risk_score, r.tier, r.factors_json, r.computed_at
    FROM task_risk_assessments r
    JOIN work_items w ON w.id = r.work_item_id
    WHERE $1 = ANY(r.assignees)
      AND w.status NOT IN ('completed','cancelled')
    ORDER BY r.risk_score DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []TaskRiskAssessment
	for rows.Next() {
		var assessment TaskRiskAssessment
		var factorsJSON []byte
		if err := rows.Scan(&assessment.WorkItemID, &assessment.Assignees, &assessment.RiskScore,
			&assessment.Tier, &factorsJSON, &assessment.ComputedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(factorsJSON, &assessment.Factors); err != nil {
			return nil, err
		}
		assessments = append(assessments, assessment)
	}
	return assessments, rows.Err()
}

func (s *Store) SnapshotUserCount(ctx context.Context, isoWeek string) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM performance_snapshots WHERE iso_week = $1
  `, isoWeek).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
