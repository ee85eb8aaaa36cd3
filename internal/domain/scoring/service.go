package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Service is the report generator: it orchestrates the scoring engine
// across one or many users and owns scoring-config management.
type Service struct {
	store       StoreAPI
	fanoutLimit int
}

func NewService(store StoreAPI, fanoutLimit int) *Service {
	if fanoutLimit <= 0 {
		fanoutLimit = 10
	}
	return &Service{store: store, fanoutLimit: fanoutLimit}
}

func (s *Service) GetConfig(ctx context.Context) (ScoringConfig, error) {
	return s.store.GetConfig(ctx)
}

// UpdateConfig replaces the singleton weight set. The sum-to-100
// invariant is checked before anything is persisted.
func (s *Service) UpdateConfig(ctx context.Context, cfg ScoringConfig, actorID string) (ScoringConfig, error) {
	if err := ValidateConfig(cfg); err != nil {
		return ScoringConfig{}, err
	}
	cfg.UpdatedBy = actorID
	cfg.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateConfig(ctx, cfg); err != nil {
		return ScoringConfig{}, err
	}
	return cfg, nil
}

func (s *Service) GenerateWeeklyReport(ctx context.Context, userID string, weekStart, weekEnd time.Time) (WeeklyReport, error) {
	cfg, err := s.store.GetConfig(ctx)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("load scoring config: %w", err)
	}
	return s.GenerateWithConfig(ctx, cfg, userID, weekStart, weekEnd)
}

// GenerateWithConfig scores one user against an already-loaded config
// snapshot. Batch callers load the config once per invocation and pass
// it here so a mid-run config update cannot blend two weight sets.
func (s *Service) GenerateWithConfig(ctx context.Context, cfg ScoringConfig, userID string, weekStart, weekEnd time.Time) (WeeklyReport, error) {
	items, err := s.store.ListUserWorkItems(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("load work items for %s: %w", userID, err)
	}
	report, err := ComputeWeeklyScore(userID, weekStart, weekEnd, items, cfg)
	if err != nil {
		return WeeklyReport{}, err
	}
	if err := s.store.UpsertWeeklyReport(ctx, report); err != nil {
		return WeeklyReport{}, fmt.Errorf("persist weekly report for %s: %w", userID, err)
	}
	return report, nil
}

func (s *Service) RecentReports(ctx context.Context, userID string, limit int) ([]WeeklyReport, error) {
	if limit <= 0 {
		limit = 8
	}
	return s.store.ListRecentReports(ctx, userID, limit)
}

// GenerateAdminReport fans out per-user scoring for the given week and
// composes the report-type-specific aggregate. Per-user failures land
// in the Errors list without aborting the rest of the population.
func (s *Service) GenerateAdminReport(ctx context.Context, reportType string, weekStart, weekEnd time.Time) (AdminReport, error) {
	switch reportType {
	case ReportTypeOverview, ReportTypeTeams, ReportTypeUsers, ReportTypePerformance:
	default:
		return AdminReport{}, fmt.Errorf("%w: %q", ErrUnknownReportType, reportType)
	}

	cfg, err := s.store.GetConfig(ctx)
	if err != nil {
		return AdminReport{}, fmt.Errorf("load scoring config: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return AdminReport{}, err
	}

	report := AdminReport{
		ReportType:  reportType,
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		GeneratedAt: time.Now().UTC(),
	}

	if reportType == ReportTypeTeams {
		teams, err := s.store.ListTeams(ctx)
		if err != nil {
			return AdminReport{}, fmt.Errorf("list teams: %w", err)
		}
		for _, team := range teams {
			memberIDs, err := s.store.ListTeamMemberIDs(ctx, team.ID)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("team %s: %v", team.ID, err))
				continue
			}
			reports, errs := s.scoreUsers(ctx, cfg, memberIDs, weekStart, weekEnd)
			report.Errors = append(report.Errors, errs...)
			report.Teams = append(report.Teams, buildTeamRollup(team, reports))
		}
		return report, nil
	}

	userIDs, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return AdminReport{}, fmt.Errorf("list users: %w", err)
	}
	reports, errs := s.scoreUsers(ctx, cfg, userIDs, weekStart, weekEnd)
	report.Errors = append(report.Errors, errs...)

	switch reportType {
	case ReportTypeOverview:
		report.Overview = buildOverview(reports)
	case ReportTypeUsers:
		report.Users = reports
	case ReportTypePerformance:
		report.Performance = buildPerformanceBands(reports, 5)
	}
	return report, nil
}

// scoreUsers runs the per-user computations under bounded parallelism.
// Each user reads disjoint data and writes a disjoint report row, so
// no cross-user coordination is needed beyond the shared config
// snapshot.
func (s *Service) scoreUsers(ctx context.Context, cfg ScoringConfig, userIDs []string, weekStart, weekEnd time.Time) ([]WeeklyReport, []string) {
	var (
		mu      sync.Mutex
		reports []WeeklyReport
		errs    []string
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.fanoutLimit)
	for _, userID := range userIDs {
		uid := userID
		group.Go(func() error {
			report, err := s.GenerateWithConfig(groupCtx, cfg, uid, weekStart, weekEnd)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("user scoring failed", "userId", uid, "err", err)
				errs = append(errs, fmt.Sprintf("user %s: %v", uid, err))
				return nil
			}
			reports = append(reports, report)
			return nil
		})
	}
	_ = group.Wait()

	sort.Slice(reports, func(i, j int) bool { return reports[i].UserID < reports[j].UserID })
	sort.Strings(errs)
	return reports, errs
}
