package intelligence

import (
	"context"
	"errors"
	"testing"
	"time"

	"workpulse/internal/domain/scoring"
)

type fakeIntelStore struct {
	dueStats     []UserDueStats
	dueStatsErr  error
	patterns     []ChronicOverduePattern
	teamStats    map[time.Time][]TeamWindowStats
	trends       map[string]DepartmentTrend
	openItems    []scoring.WorkItem
	delayRates   map[string]float64
	assessments  map[string]TaskRiskAssessment
	reportUsers  []string
	reportTotals map[string][]int
	snapshots    map[string]PerformanceSnapshot
	overdueUsers []string
}

func newFakeIntelStore() *fakeIntelStore {
	return &fakeIntelStore{
		teamStats:    map[time.Time][]TeamWindowStats{},
		trends:       map[string]DepartmentTrend{},
		delayRates:   map[string]float64{},
		assessments:  map[string]TaskRiskAssessment{},
		reportTotals: map[string][]int{},
		snapshots:    map[string]PerformanceSnapshot{},
	}
}

func (f *fakeIntelStore) UserDueStats(ctx context.Context, start, end time.Time) ([]UserDueStats, error) {
	return f.dueStats, f.dueStatsErr
}

func (f *fakeIntelStore) InsertChronicPattern(ctx context.Context, pattern ChronicOverduePattern) error {
	f.patterns = append(f.patterns, pattern)
	return nil
}

func (f *fakeIntelStore) TeamWindowStats(ctx context.Context, start, end time.Time) ([]TeamWindowStats, error) {
	return f.teamStats[start], nil
}

func (f *fakeIntelStore) UpsertDepartmentTrend(ctx context.Context, trend DepartmentTrend) error {
	f.trends[trend.TeamID] = trend
	return nil
}

func (f *fakeIntelStore) ListOpenDueItems(ctx context.Context) ([]scoring.WorkItem, error) {
	return f.openItems, nil
}

func (f *fakeIntelStore) DelayRates(ctx context.Context) (map[string]float64, error) {
	return f.delayRates, nil
}

func (f *fakeIntelStore) UpsertRiskAssessment(ctx context.Context, assessment TaskRiskAssessment) error {
	f.assessments[assessment.WorkItemID] = assessment
	return nil
}

func (f *fakeIntelStore) ListUsersWithReportsSince(ctx context.Context, since time.Time) ([]string, error) {
	return f.reportUsers, nil
}

func (f *fakeIntelStore) RecentReportTotals(ctx context.Context, userID string, limit int) ([]int, error) {
	return f.reportTotals[userID], nil
}

func (f *fakeIntelStore) UpsertSnapshot(ctx context.Context, snapshot PerformanceSnapshot) error {
	f.snapshots[snapshot.UserID+"|"+snapshot.ISOWeek] = snapshot
	return nil
}

func (f *fakeIntelStore) MarkOverdueItems(ctx context.Context, asOf time.Time) ([]string, error) {
	return f.overdueUsers, nil
}

func (f *fakeIntelStore) ChronicUserCount(ctx context.Context, since time.Time) (int, error) {
	return len(f.patterns), nil
}

func (f *fakeIntelStore) OpenRiskTierCounts(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, assessment := range f.assessments {
		if assessment.Tier != TierLow {
			counts[assessment.Tier]++
		}
	}
	return counts, nil
}

func (f *fakeIntelStore) LatestTrendDirections(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, trend := range f.trends {
		counts[trend.Direction]++
	}
	return counts, nil
}

func (f *fakeIntelStore) SnapshotUserCount(ctx context.Context, isoWeek string) (int, error) {
	count := 0
	for key := range f.snapshots {
		if key[len(key)-len(isoWeek):] == isoWeek {
			count++
		}
	}
	return count, nil
}

func (f *fakeIntelStore) UserSnapshots(ctx context.Context, userID string, limit int) ([]PerformanceSnapshot, error) {
	var out []PerformanceSnapshot
	for _, snapshot := range f.snapshots {
		if snapshot.UserID == userID {
			out = append(out, snapshot)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeIntelStore) LatestChronicPattern(ctx context.Context, userID string, since time.Time) (*ChronicOverduePattern, error) {
	for i := len(f.patterns) - 1; i >= 0; i-- {
		if f.patterns[i].UserID == userID && !f.patterns[i].DetectedAt.Before(since) {
			pattern := f.patterns[i]
			return &pattern, nil
		}
	}
	return nil, nil
}

func (f *fakeIntelStore) UserOpenRisks(ctx context.Context, userID string) ([]TaskRiskAssessment, error) {
	var out []TaskRiskAssessment
	for _, assessment := range f.assessments {
		for _, assignee := range assessment.Assignees {
			if assignee == userID {
				out = append(out, assessment)
				break
			}
		}
	}
	return out, nil
}

type fakeEnqueuer struct {
	enqueued []string
	failFor  map[string]error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, userID string, at time.Time) error {
	if err := f.failFor[userID]; err != nil {
		return err
	}
	f.enqueued = append(f.enqueued, userID)
	return nil
}

func TestDetectChronicOverduePatterns(t *testing.T) {
	store := newFakeIntelStore()
	store.dueStats = []UserDueStats{
		{UserID: "u1", TotalDue: 20, OverdueCount: 9}, // 45%
		{UserID: "u2", TotalDue: 10, OverdueCount: 2}, // 20%
		{UserID: "u3", TotalDue: 0, OverdueCount: 0},
	}
	service := NewService(store, nil, Settings{})

	now := time.Date(2026, time.August, 25, 6, 0, 0, 0, time.UTC)
	result, err := service.DetectChronicOverduePatterns(context.Background(), 30, 30, now)
	if err != nil {
		t.Fatalf("detection failed: %v", err)
	}
	if result.Detected != 1 {
		t.Fatalf("expected exactly one pattern, got %d", result.Detected)
	}
	if len(store.patterns) != 1 || store.patterns[0].UserID != "u1" {
		t.Fatalf("expected pattern for u1, got %+v", store.patterns)
	}
	if store.patterns[0].OverduePercentage != 45 {
		t.Fatalf("expected overdue percentage 45, got %d", store.patterns[0].OverduePercentage)
	}
}

func TestAnalyzeDepartmentTrendsDirections(t *testing.T) {
	store := newFakeIntelStore()
	now := time.Date(2026, time.August, 25, 6, 0, 0, 0, time.UTC)
	windowStart := now.AddDate(0, 0, -14)
	priorStart := windowStart.AddDate(0, 0, -14)

	store.teamStats[windowStart] = []TeamWindowStats{
		{TeamID: "t1", TeamName: "Platform", TasksAssigned: 10, TasksCompleted: 9},
		{TeamID: "t2", TeamName: "Support", TasksAssigned: 10, TasksCompleted: 4},
		{TeamID: "t3", TeamName: "Data", TasksAssigned: 10, TasksCompleted: 6},
	}
	store.teamStats[priorStart] = []TeamWindowStats{
		{TeamID: "t1", TeamName: "Platform", TasksAssigned: 10, TasksCompleted: 6},
		{TeamID: "t2", TeamName: "Support", TasksAssigned: 10, TasksCompleted: 8},
		{TeamID: "t3", TeamName: "Data", TasksAssigned: 10, TasksCompleted: 6},
	}

	service := NewService(store, nil, Settings{})
	result, err := service.AnalyzeDepartmentTrends(context.Background(), 14, now)
	if err != nil {
		t.Fatalf("trend analysis failed: %v", err)
	}
	if result.Detected != 3 {
		t.Fatalf("expected 3 trends, got %d", result.Detected)
	}
	if store.trends["t1"].Direction != TrendUp {
		t.Fatalf("expected t1 up, got %s", store.trends["t1"].Direction)
	}
	if store.trends["t2"].Direction != TrendDown {
		t.Fatalf("expected t2 down, got %s", store.trends["t2"].Direction)
	}
	if store.trends["t3"].Direction != TrendFlat {
		t.Fatalf("expected t3 flat, got %s", store.trends["t3"].Direction)
	}
}

func TestAssessTaskRisksUsesWorstAssigneeDelayRate(t *testing.T) {
	store := newFakeIntelStore()
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 1)
	store.openItems = []scoring.WorkItem{{
		ID:        "w1",
		Assignees: []string{"u1", "u2"},
		Status:    scoring.StatusInProgress,
		CreatedAt: now.AddDate(0, 0, -6),
		DueDate:   &due,
	}}
	store.delayRates = map[string]float64{"u1": 0.1, "u2": 0.8}

	service := NewService(store, nil, Settings{})
	result, err := service.AssessTaskRisks(context.Background(), now)
	if err != nil {
		t.Fatalf("risk assessment failed: %v", err)
	}
	if result.Detected != 1 {
		t.Fatalf("expected one assessment, got %d", result.Detected)
	}
	if got := store.assessments["w1"].Factors.HistoricalDelayRate; got != 0.8 {
		t.Fatalf("expected worst delay rate 0.8, got %v", got)
	}
}

func TestCreateWeeklySnapshotsNonRollupDayIsNoop(t *testing.T) {
	store := newFakeIntelStore()
	store.reportUsers = []string{"u1"}
	store.reportTotals["u1"] = []int{80}
	service := NewService(store, nil, Settings{})

	tuesday := time.Date(2026, time.August, 25, 6, 0, 0, 0, time.UTC)
	result, err := service.CreateWeeklySnapshots(context.Background(), tuesday)
	if err != nil {
		t.Fatalf("expected no-op, got error %v", err)
	}
	if result.Detected != 0 || len(store.snapshots) != 0 {
		t.Fatalf("expected nothing persisted on a non-rollup day, got %+v", store.snapshots)
	}
}

func TestCreateWeeklySnapshotsIdempotentPerWeek(t *testing.T) {
	store := newFakeIntelStore()
	store.reportUsers = []string{"u1", "u2"}
	store.reportTotals["u1"] = []int{90, 70, 70, 70}
	store.reportTotals["u2"] = []int{50, 80, 80}
	service := NewService(store, nil, Settings{})

	monday := time.Date(2026, time.August, 24, 6, 0, 0, 0, time.UTC)
	first, err := service.CreateWeeklySnapshots(context.Background(), monday)
	if err != nil {
		t.Fatalf("snapshot run failed: %v", err)
	}
	if first.Detected != 2 {
		t.Fatalf("expected 2 snapshots, got %d", first.Detected)
	}

	second, err := service.CreateWeeklySnapshots(context.Background(), monday)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.Detected != 2 || len(store.snapshots) != 2 {
		t.Fatalf("expected idempotent upserts, got %d snapshots", len(store.snapshots))
	}

	key := "u1|" + scoring.ISOWeekKey(monday)
	if store.snapshots[key].Trend != TrendUp {
		t.Fatalf("expected upward trend for u1, got %s", store.snapshots[key].Trend)
	}
	if store.snapshots[key].OverallScore != 75 {
		t.Fatalf("expected overall 75 for u1, got %d", store.snapshots[key].OverallScore)
	}
	downKey := "u2|" + scoring.ISOWeekKey(monday)
	if store.snapshots[downKey].Trend != TrendDown {
		t.Fatalf("expected downward trend for u2, got %s", store.snapshots[downKey].Trend)
	}
}

func TestMarkOverdueEnqueuesAffectedUsers(t *testing.T) {
	store := newFakeIntelStore()
	store.overdueUsers = []string{"u1", "u2"}
	enqueuer := &fakeEnqueuer{failFor: map[string]error{"u2": errors.New("store unavailable")}}
	service := NewService(store, enqueuer, Settings{})

	result, err := service.MarkOverdue(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("mark overdue failed: %v", err)
	}
	if result.Detected != 2 {
		t.Fatalf("expected 2 affected users, got %d", result.Detected)
	}
	if len(enqueuer.enqueued) != 1 || enqueuer.enqueued[0] != "u1" {
		t.Fatalf("expected u1 enqueued, got %v", enqueuer.enqueued)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one enqueue error, got %v", result.Errors)
	}
}

func TestRunDailyAnalysesIsolatesFailures(t *testing.T) {
	store := newFakeIntelStore()
	store.dueStatsErr = errors.New("record store unreachable")
	now := time.Date(2026, time.August, 25, 6, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 1)
	store.openItems = []scoring.WorkItem{openItem("w1", now.AddDate(0, 0, -3), due)}

	service := NewService(store, nil, Settings{})
	result := service.RunDailyAnalyses(context.Background(), now)
	if result.Failed["chronic"] == "" {
		t.Fatalf("expected chronic failure recorded, got %+v", result.Failed)
	}
	if result.Risks.Detected != 1 {
		t.Fatalf("expected risk analysis to run despite chronic failure, got %+v", result.Risks)
	}
}

func TestGenerateIntelligenceSummary(t *testing.T) {
	store := newFakeIntelStore()
	store.patterns = []ChronicOverduePattern{{UserID: "u1"}}
	store.assessments["w1"] = TaskRiskAssessment{WorkItemID: "w1", Tier: TierCritical}
	store.assessments["w2"] = TaskRiskAssessment{WorkItemID: "w2", Tier: TierLow}
	store.trends["t1"] = DepartmentTrend{TeamID: "t1", Direction: TrendUp}

	service := NewService(store, nil, Settings{})
	summary, err := service.GenerateIntelligenceSummary(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.ChronicUserCount != 1 {
		t.Fatalf("expected one chronic user, got %d", summary.ChronicUserCount)
	}
	if summary.OpenRiskCounts[TierCritical] != 1 || summary.OpenRiskCounts[TierLow] != 0 {
		t.Fatalf("unexpected risk counts: %+v", summary.OpenRiskCounts)
	}
	if summary.TrendDirections[TrendUp] != 1 {
		t.Fatalf("unexpected trend directions: %+v", summary.TrendDirections)
	}
}

func TestPersonalInsightsComposesUserView(t *testing.T) {
	now := time.Date(2026, time.August, 25, 6, 0, 0, 0, time.UTC)
	store := newFakeIntelStore()
	store.patterns = []ChronicOverduePattern{
		{UserID: "u1", OverduePercentage: 45, DetectedAt: now.AddDate(0, 0, -2)},
		{UserID: "u2", OverduePercentage: 60, DetectedAt: now.AddDate(0, 0, -1)},
	}
	store.snapshots["u1|2026-W34"] = PerformanceSnapshot{UserID: "u1", ISOWeek: "2026-W34", OverallScore: 72}
	store.assessments["w1"] = TaskRiskAssessment{WorkItemID: "w1", Assignees: []string{"u1"}, RiskScore: 80, Tier: TierCritical}
	store.assessments["w2"] = TaskRiskAssessment{WorkItemID: "w2", Assignees: []string{"u2"}, RiskScore: 50, Tier: TierMedium}

	service := NewService(store, nil, Settings{})
	insights, err := service.PersonalInsights(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("personal insights failed: %v", err)
	}
	if insights.ChronicPattern == nil || insights.ChronicPattern.OverduePercentage != 45 {
		t.Fatalf("expected u1 chronic pattern, got %+v", insights.ChronicPattern)
	}
	if len(insights.Snapshots) != 1 || insights.Snapshots[0].OverallScore != 72 {
		t.Fatalf("unexpected snapshots: %+v", insights.Snapshots)
	}
	if len(insights.OpenRisks) != 1 || insights.OpenRisks[0].WorkItemID != "w1" {
		t.Fatalf("unexpected open risks: %+v", insights.OpenRisks)
	}
}

func TestPersonalInsightsEmptyForUnknownUser(t *testing.T) {
	service := NewService(newFakeIntelStore(), nil, Settings{})
	insights, err := service.PersonalInsights(context.Background(), "ghost", time.Now())
	if err != nil {
		t.Fatalf("personal insights failed: %v", err)
	}
	if insights.ChronicPattern != nil || len(insights.Snapshots) != 0 || len(insights.OpenRisks) != 0 {
		t.Fatalf("expected empty insights, got %+v", insights)
	}
}
