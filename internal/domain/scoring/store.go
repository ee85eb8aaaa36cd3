package scoring

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

func (s *Store) GetConfig(ctx context.Context) (ScoringConfig, error) {
	var cfg ScoringConfig
	var updatedBy *string
	if err := s.DB.QueryRow(ctx, `
    SELECT completion_weight, timeliness_weight, quality_weight, kra_alignment_weight, updated_by, updated_at
    FROM scoring_config
    WHERE id = 1
  `).Scan(&cfg.CompletionWeight, &cfg.TimelinessWeight, &cfg.QualityWeight, &cfg.KRAAlignmentWeight, &updatedBy, &cfg.UpdatedAt); err != nil {
		return ScoringConfig{}, err
	}
	if updatedBy != nil {
		cfg.UpdatedBy = *updatedBy
	}
	return cfg, nil
}

func (s *Store) UpdateConfig(ctx context.Context, cfg ScoringConfig) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE scoring_config
    SET completion_weight = $1, timeliness_weight = $2, quality_weight = $3, kra_alignment_weight = $4,
        updated_by = $5, updated_at = $6
    WHERE id = 1
  `, cfg.CompletionWeight, cfg.TimelinessWeight, cfg.QualityWeight, cfg.KRAAlignmentWeight, nullIfEmpty(cfg.UpdatedBy), cfg.UpdatedAt)
	return err
}

func (s *Store) ListUserWorkItems(ctx context.Context, userID string, start, end time.Time) ([]WorkItem, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT w.id, w.title, w.kind, w.assignees, w.creator_id, w.status, w.priority,
           w.created_at, w.due_date, w.completed_at, w.revision_count,
           COALESCE(w.goal_id::text, ''),
           COALESCE(g.status NOT IN ('completed','cancelled'), false),
           w.reverted, w.overdue
    FROM work_items w
    LEFT JOIN work_items g ON g.id = w.goal_id
    WHERE $1 = ANY(w.assignees)
      AND ((w.created_at BETWEEN $2 AND $3)
        OR (w.completed_at BETWEEN $2 AND $3)
        OR (w.due_date BETWEEN $2 AND $3))
    ORDER BY w.created_at
  `, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(row rowScanner) (WorkItem, error) {
	var item WorkItem
	if err := row.Scan(&item.ID, &item.Title, &item.Kind, &item.Assignees, &item.CreatorID, &item.Status, &item.Priority,
		&item.CreatedAt, &item.DueDate, &item.CompletedAt, &item.RevisionCount,
		&item.GoalID, &item.GoalActive, &item.Reverted, &item.Overdue); err != nil {
		return WorkItem{}, err
	}
	return item, nil
}

func (s *Store) UpsertWeeklyReport(ctx context.Context, report WeeklyReport) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO weekly_reports (user_id, week_start, week_end, tasks_assigned, tasks_completed,
                                on_time_completion, delay_count, completion_score, timeliness_score,
                                quality_score, kra_alignment_score, total_score, generated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    ON CONFLICT (user_id, week_start) DO UPDATE
    SET week_end = EXCLUDED.week_end,
        tasks_assigned = EXCLUDED.tasks_assigned,
        tasks_completed = EXCLUDED.tasks_completed,
        on_time_completion = EXCLUDED.on_time_completion,
        delay_count = EXCLUDED.delay_count,
        completion_score = EXCLUDED.completion_score,
        timeliness_score = EXCLUDED.timeliness_score,
        quality_score = EXCLUDED.quality_score,
        kra_alignment_score = EXCLUDED.kra_alignment_score,
        total_score = EXCLUDED.total_score,
        generated_at = EXCLUDED.generated_at
  `, report.UserID, report.WeekStart, report.WeekEnd, report.TasksAssigned, report.TasksCompleted,
		report.OnTimeCompletion, report.DelayCount, report.Breakdown.CompletionScore, report.Breakdown.TimelinessScore,
		report.Breakdown.QualityScore, report.Breakdown.KRAAlignmentScore, report.Breakdown.TotalScore, report.GeneratedAt)
	return err
}

func (s *Store) GetWeeklyReport(ctx context.Context, userID string, weekStart time.Time) (WeeklyReport, error) {
	var report WeeklyReport
	if err := s.DB.QueryRow(ctx, `
    SELECT user_id, week_start, week_end, tasks_assigned, tasks_completed, on_time_completion,
           delay_count, completion_score, timeliness_score, quality_score, kra_alignment_score,
           total_score, generated_at
    FROM weekly_reports
    WHERE user_id = $1 AND week_start = $2
  `, userID, weekStart).Scan(&report.UserID, &report.WeekStart, &report.WeekEnd, &report.TasksAssigned,
		&report.TasksCompleted, &report.OnTimeCompletion, &report.DelayCount, &report.Breakdown.CompletionScore,
		&report.Breakdown.TimelinessScore, &report.Breakdown.QualityScore, &report.Breakdown.KRAAlignmentScore,
		&report.Breakdown.TotalScore, &report.GeneratedAt); err != nil {
		return WeeklyReport{}, err
	}
	return report, nil
}

func (s *Store) ListRecentReports(ctx context.Context, userID string, limit int) ([]WeeklyReport, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT user_id, week_start, week_end, tasks_assigned, tasks_completed, on_time_completion,
           delay_count, completion_score, timeliness_score, quality_score, kra_alignment_score,
           total_score, generated_at
    FROM weekly_reports
    WHERE user_id = $1
    ORDER BY week_start DESC
    LIMIT $2
  `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []WeeklyReport
	for rows.Next() {
		var report WeeklyReport
		if err := rows.Scan(&report.UserID, &report.WeekStart, &report.WeekEnd, &report.TasksAssigned,
			&report.TasksCompleted, &report.OnTimeCompletion, &report.DelayCount, &report.Breakdown.CompletionScore,
			&report.Breakdown.TimelinessScore, &report.Breakdown.QualityScore, &report.Breakdown.KRAAlignmentScore,
			&report.Breakdown.TotalScore, &report.GeneratedAt); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM users ORDER BY id`)
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

func (s *Store) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, name FROM teams ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var team Team
		if err := rows.Scan(&team.ID, &team.Name); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (s *Store) ListTeamMemberIDs(ctx context.Context, teamID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM users WHERE team_id = $1 ORDER BY id`, teamID)
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

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
