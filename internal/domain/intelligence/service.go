package intelligence

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"workpulse/internal/domain/scoring"
)

// Enqueuer feeds invalidated (user, week) pairs back into the
// recalculation backlog after overdue marking.
type Enqueuer interface {
	Enqueue(ctx context.Context, userID string, at time.Time) error
}

type Settings struct {
	LookbackDays     int
	ThresholdPercent int
	TrendWindowDays  int
	NoiseMargin      int
}

func (s Settings) withDefaults() Settings {
	if s.LookbackDays <= 0 {
		s.LookbackDays = DefaultLookbackDays
	}
	if s.ThresholdPercent <= 0 {
		s.ThresholdPercent = DefaultThresholdPercent
	}
	if s.TrendWindowDays <= 0 {
		s.TrendWindowDays = DefaultTrendWindowDays
	}
	if s.NoiseMargin <= 0 {
		s.NoiseMargin = DefaultNoiseMargin
	}
	return s
}

type Service struct {
	store    StoreAPI
	enqueuer Enqueuer
	settings Settings
}

func NewService(store StoreAPI, enqueuer Enqueuer, settings Settings) *Service {
	return &Service{store: store, enqueuer: enqueuer, settings: settings.withDefaults()}
}

// DetectChronicOverduePatterns persists a pattern record for every
// user whose overdue share inside the lookback window reaches the
// threshold. Users below threshold leave no trace.
func (s *Service) DetectChronicOverduePatterns(ctx context.Context, lookbackDays, thresholdPercent int, now time.Time) (AnalysisResult, error) {
	if lookbackDays <= 0 {
		lookbackDays = s.settings.LookbackDays
	}
	if thresholdPercent <= 0 {
		thresholdPercent = s.settings.ThresholdPercent
	}
	windowEnd := now.UTC()
	windowStart := windowEnd.AddDate(0, 0, -lookbackDays)

	stats, err := s.store.UserDueStats(ctx, windowStart, windowEnd)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("user due stats: %w", err)
	}

	var result AnalysisResult
	for _, stat := range stats {
		if stat.TotalDue == 0 {
			continue
		}
		pct := int(math.Round(100 * float64(stat.OverdueCount) / float64(stat.TotalDue)))
		if pct < thresholdPercent {
			continue
		}
		pattern := ChronicOverduePattern{
			UserID:            stat.UserID,
			WindowStart:       windowStart,
			WindowEnd:         windowEnd,
			TotalDue:          stat.TotalDue,
			OverdueCount:      stat.OverdueCount,
			OverduePercentage: pct,
			DetectedAt:        windowEnd,
		}
		if err := s.store.InsertChronicPattern(ctx, pattern); err != nil {
			slog.Warn("chronic pattern insert failed", "userId", stat.UserID, "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", stat.UserID, err))
			continue
		}
		result.Detected++
	}
	return result, nil
}

// AnalyzeDepartmentTrends compares each team's completion rate in the
// current window against the immediately preceding window of equal
// length. Movement inside the noise margin counts as flat.
func (s *Service) AnalyzeDepartmentTrends(ctx context.Context, windowDays int, now time.Time) (AnalysisResult, error) {
	if windowDays <= 0 {
		windowDays = s.settings.TrendWindowDays
	}
	windowEnd := now.UTC()
	windowStart := windowEnd.AddDate(0, 0, -windowDays)
	priorStart := windowStart.AddDate(0, 0, -windowDays)

	current, err := s.store.TeamWindowStats(ctx, windowStart, windowEnd)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("current window stats: %w", err)
	}
	prior, err := s.store.TeamWindowStats(ctx, priorStart, windowStart)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("prior window stats: %w", err)
	}
	priorByTeam := make(map[string]TeamWindowStats, len(prior))
	for _, stat := range prior {
		priorByTeam[stat.TeamID] = stat
	}

	var result AnalysisResult
	for _, stat := range current {
		rate := completionRate(stat)
		priorRate := completionRate(priorByTeam[stat.TeamID])
		trend := DepartmentTrend{
			TeamID:              stat.TeamID,
			TeamName:            stat.TeamName,
			WindowStart:         windowStart,
			WindowEnd:           windowEnd,
			TasksAssigned:       stat.TasksAssigned,
			TasksCompleted:      stat.TasksCompleted,
			OverdueCount:        stat.OverdueCount,
			CompletionRate:      rate,
			PriorCompletionRate: priorRate,
			Direction:           trendDirection(rate, priorRate, s.settings.NoiseMargin),
			ComputedAt:          windowEnd,
		}
		if err := s.store.UpsertDepartmentTrend(ctx, trend); err != nil {
			slog.Warn("trend upsert failed", "teamId", stat.TeamID, "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("team %s: %v", stat.TeamID, err))
			continue
		}
		result.Detected++
	}
	return result, nil
}

func completionRate(stat TeamWindowStats) int {
	if stat.TasksAssigned == 0 {
		return 0
	}
	return int(math.Round(100 * float64(stat.TasksCompleted) / float64(stat.TasksAssigned)))
}

func trendDirection(rate, priorRate, margin int) string {
	switch {
	case rate > priorRate+margin:
		return TrendUp
	case rate < priorRate-margin:
		return TrendDown
	default:
		return TrendFlat
	}
}

// AssessTaskRisks scores every open work item that has a due date and
// persists one assessment per item. An item with several assignees
// inherits the worst delay rate among them.
func (s *Service) AssessTaskRisks(ctx context.Context, now time.Time) (AnalysisResult, error) {
	items, err := s.store.ListOpenDueItems(ctx)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("open items: %w", err)
	}
	rates, err := s.store.DelayRates(ctx)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("delay rates: %w", err)
	}

	var result AnalysisResult
	for _, item := range items {
		delayRate := 0.0
		for _, userID := range item.Assignees {
			if rate := rates[userID]; rate > delayRate {
				delayRate = rate
			}
		}
		assessment := ComputeRisk(item, delayRate, now)
		if err := s.store.UpsertRiskAssessment(ctx, assessment); err != nil {
			slog.Warn("risk upsert failed", "workItemId", item.ID, "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
			continue
		}
		result.Detected++
	}
	return result, nil
}

// CreateWeeklySnapshots rolls up each active user's recent report
// totals into one snapshot. Invoked on any day but the rollup day it
// is a documented no-op, not an error; on the rollup day it is
// idempotent per (user, ISO week).
func (s *Service) CreateWeeklySnapshots(ctx context.Context, now time.Time) (AnalysisResult, error) {
	if !scoring.IsRollupDay(now) {
		return AnalysisResult{}, nil
	}

	since := now.UTC().AddDate(0, 0, -28)
	userIDs, err := s.store.ListUsersWithReportsSince(ctx, since)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("users with reports: %w", err)
	}

	isoWeek := scoring.ISOWeekKey(now)
	var result AnalysisResult
	for _, userID := range userIDs {
		totals, err := s.store.RecentReportTotals(ctx, userID, 4)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", userID, err))
			continue
		}
		if len(totals) == 0 {
			continue
		}
		snapshot := PerformanceSnapshot{
			UserID:       userID,
			ISOWeek:      isoWeek,
			OverallScore: averageScore(totals),
			Trend:        snapshotTrend(totals, s.settings.NoiseMargin),
			SnapshotAt:   now.UTC(),
		}
		if err := s.store.UpsertSnapshot(ctx, snapshot); err != nil {
			slog.Warn("snapshot upsert failed", "userId", userID, "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", userID, err))
			continue
		}
		result.Detected++
	}
	return result, nil
}

func averageScore(totals []int) int {
	sum := 0
	for _, total := range totals {
		sum += total
	}
	return int(math.Round(float64(sum) / float64(len(totals))))
}

// snapshotTrend compares the latest week against the average of the
// weeks before it.
func snapshotTrend(totals []int, margin int) string {
	if len(totals) < 2 {
		return TrendFlat
	}
	return trendDirection(totals[0], averageScore(totals[1:]), margin)
}

// MarkOverdue flags newly overdue items and invalidates the current
// week for every touched assignee.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (AnalysisResult, error) {
	userIDs, err := s.store.MarkOverdueItems(ctx, now.UTC())
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("mark overdue: %w", err)
	}

	var result AnalysisResult
	result.Detected = len(userIDs)
	if s.enqueuer == nil {
		return result, nil
	}
	for _, userID := range userIDs {
		if err := s.enqueuer.Enqueue(ctx, userID, now); err != nil {
			slog.Warn("overdue enqueue failed", "userId", userID, "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", userID, err))
		}
	}
	return result, nil
}

// RunDailyAnalyses runs the three detection analyses independently.
// A failing analysis lands in the Failed map and never prevents the
// others from running.
func (s *Service) RunDailyAnalyses(ctx context.Context, now time.Time) DailyResult {
	result := DailyResult{Failed: map[string]string{}}

	chronic, err := s.DetectChronicOverduePatterns(ctx, 0, 0, now)
	if err != nil {
		slog.Warn("chronic analysis failed", "err", err)
		result.Failed["chronic"] = err.Error()
	} else {
		result.Chronic = chronic
	}

	trends, err := s.AnalyzeDepartmentTrends(ctx, 0, now)
	if err != nil {
		slog.Warn("trend analysis failed", "err", err)
		result.Failed["trends"] = err.Error()
	} else {
		result.Trends = trends
	}

	risks, err := s.AssessTaskRisks(ctx, now)
	if err != nil {
		slog.Warn("risk analysis failed", "err", err)
		result.Failed["risks"] = err.Error()
	} else {
		result.Risks = risks
	}

	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result
}

// PersonalInsights assembles the read-only view one user sees of
// their own detection results.
func (s *Service) PersonalInsights(ctx context.Context, userID string, now time.Time) (UserInsights, error) {
	snapshots, err := s.store.UserSnapshots(ctx, userID, 8)
	if err != nil {
		return UserInsights{}, fmt.Errorf("user snapshots: %w", err)
	}
	since := now.UTC().AddDate(0, 0, -s.settings.LookbackDays)
	chronic, err := s.store.LatestChronicPattern(ctx, userID, since)
	if err != nil {
		return UserInsights{}, fmt.Errorf("chronic pattern: %w", err)
	}
	risks, err := s.store.UserOpenRisks(ctx, userID)
	if err != nil {
		return UserInsights{}, fmt.Errorf("open risks: %w", err)
	}
	if snapshots == nil {
		snapshots = []PerformanceSnapshot{}
	}
	if risks == nil {
		risks = []TaskRiskAssessment{}
	}
	return UserInsights{
		UserID:         userID,
		Snapshots:      snapshots,
		ChronicPattern: chronic,
		OpenRisks:      risks,
		GeneratedAt:    now.UTC(),
	}, nil
}

// GenerateIntelligenceSummary aggregates the latest detection results
// for dashboards. Read-only; nothing is persisted.
func (s *Service) GenerateIntelligenceSummary(ctx context.Context, now time.Time) (Summary, error) {
	since := now.UTC().AddDate(0, 0, -s.settings.LookbackDays)
	chronicCount, err := s.store.ChronicUserCount(ctx, since)
	if err != nil {
		return Summary{}, fmt.Errorf("chronic count: %w", err)
	}
	riskCounts, err := s.store.OpenRiskTierCounts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("risk counts: %w", err)
	}
	trendCounts, err := s.store.LatestTrendDirections(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("trend directions: %w", err)
	}
	snapshotCount, err := s.store.SnapshotUserCount(ctx, scoring.ISOWeekKey(now))
	if err != nil {
		return Summary{}, fmt.Errorf("snapshot count: %w", err)
	}
	return Summary{
		ChronicUserCount:  chronicCount,
		OpenRiskCounts:    riskCounts,
		TrendDirections:   trendCounts,
		SnapshotUserCount: snapshotCount,
		GeneratedAt:       now.UTC(),
	}, nil
}
