package scoring

import (
	"context"
	"time"
)

type StoreAPI interface {
	GetConfig(ctx context.Context) (ScoringConfig, error)
	UpdateConfig(ctx context.Context, cfg ScoringConfig) error
	ListUserWorkItems(ctx context.Context, userID string, start, end time.Time) ([]WorkItem, error)
	UpsertWeeklyReport(ctx context.Context, report WeeklyReport) error
	GetWeeklyReport(ctx context.Context, userID string, weekStart time.Time) (WeeklyReport, error)
	ListRecentReports(ctx context.Context, userID string, limit int) ([]WeeklyReport, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	ListTeams(ctx context.Context) ([]Team, error)
	ListTeamMemberIDs(ctx context.Context, teamID string) ([]string, error)
}
