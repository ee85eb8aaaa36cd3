package intelligence

import (
	"context"
	"time"

	"workpulse/internal/domain/scoring"
)

type StoreAPI interface {
	UserDueStats(ctx context.Context, windowStart, windowEnd time.Time) ([]UserDueStats, error)
	InsertChronicPattern(ctx context.Context, pattern ChronicOverduePattern) error
	TeamWindowStats(ctx context.Context, windowStart, windowEnd time.Time) ([]TeamWindowStats, error)
	UpsertDepartmentTrend(ctx context.Context, trend DepartmentTrend) error
	ListOpenDueItems(ctx context.Context) ([]scoring.WorkItem, error)
	DelayRates(ctx context.Context) (map[string]float64, error)
	UpsertRiskAssessment(ctx context.Context, assessment TaskRiskAssessment) error
	ListUsersWithReportsSince(ctx context.Context, since time.Time) ([]string, error)
	RecentReportTotals(ctx context.Context, userID string, limit int) ([]int, error)
	UpsertSnapshot(ctx context.Context, snapshot PerformanceSnapshot) error
	MarkOverdueItems(ctx context.Context, asOf time.Time) ([]string, error)
	ChronicUserCount(ctx context.Context, since time.Time) (int, error)
	OpenRiskTierCounts(ctx context.Context) (map[string]int, error)
	LatestTrendDirections(ctx context.Context) (map[string]int, error)
	SnapshotUserCount(ctx context.Context, isoWeek string) (int, error)
	UserSnapshots(ctx context.Context, userID string, limit int) ([]PerformanceSnapshot, error)
	LatestChronicPattern(ctx context.Context, userID string, since time.Time) (*ChronicOverduePattern, error)
	UserOpenRisks(ctx context.Context, userID string) ([]TaskRiskAssessment, error)
}
