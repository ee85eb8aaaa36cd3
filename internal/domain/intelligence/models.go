package intelligence

import "time"

type ChronicOverduePattern struct {
	ID                string    `json:"id,omitempty"`
	UserID            string    `json:"userId"`
	WindowStart       time.Time `json:"windowStart"`
	WindowEnd         time.Time `json:"windowEnd"`
	TotalDue          int       `json:"totalDue"`
	OverdueCount      int       `json:"overdueCount"`
	OverduePercentage int       `json:"overduePercentage"`
	DetectedAt        time.Time `json:"detectedAt"`
}

type DepartmentTrend struct {
	TeamID              string    `json:"teamId"`
	TeamName            string    `json:"teamName"`
	WindowStart         time.Time `json:"windowStart"`
	WindowEnd           time.Time `json:"windowEnd"`
	TasksAssigned       int       `json:"tasksAssigned"`
	TasksCompleted      int       `json:"tasksCompleted"`
	OverdueCount        int       `json:"overdueCount"`
	CompletionRate      int       `json:"completionRate"`
	PriorCompletionRate int       `json:"priorCompletionRate"`
	Direction           string    `json:"direction"`
	ComputedAt          time.Time `json:"computedAt"`
}

type RiskFactors struct {
	TimeRemainingRatio  float64 `json:"timeRemainingRatio"`
	HistoricalDelayRate float64 `json:"historicalDelayRate"`
	RevisionCount       int     `json:"revisionCount"`
	Blocked             bool    `json:"blocked"`
}

type TaskRiskAssessment struct {
	WorkItemID string      `json:"workItemId"`
	Assignees  []string    `json:"assignees"`
	RiskScore  int         `json:"riskScore"`
	Tier       string      `json:"tier"`
	Factors    RiskFactors `json:"factors"`
	ComputedAt time.Time   `json:"computedAt"`
}

type PerformanceSnapshot struct {
	UserID       string    `json:"userId"`
	ISOWeek      string    `json:"isoWeek"`
	OverallScore int       `json:"overallScore"`
	Trend        string    `json:"trend"`
	SnapshotAt   time.Time `json:"snapshotAt"`
}

// AnalysisResult is the batch envelope every analysis reports back:
// how many records it produced and which items failed.
type AnalysisResult struct {
	Detected int      `json:"detected"`
	Errors   []string `json:"errors"`
}

// Counts feeds the trigger-run metrics.
func (r AnalysisResult) Counts() (processed, itemErrors int) {
	return r.Detected, len(r.Errors)
}

// DailyResult carries the outcome of one scheduled analysis sweep.
// One analysis failing never stops the others; failures land in the
// per-analysis error map.
type DailyResult struct {
	Chronic AnalysisResult    `json:"chronic"`
	Trends  AnalysisResult    `json:"trends"`
	Risks   AnalysisResult    `json:"risks"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// Counts feeds the trigger-run metrics.
func (r DailyResult) Counts() (processed, itemErrors int) {
	processed = r.Chronic.Detected + r.Trends.Detected + r.Risks.Detected
	itemErrors = len(r.Chronic.Errors) + len(r.Trends.Errors) + len(r.Risks.Errors) + len(r.Failed)
	return processed, itemErrors
}

type Summary struct {
	ChronicUserCount  int            `json:"chronicUserCount"`
	OpenRiskCounts    map[string]int `json:"openRiskCounts"`
	TrendDirections   map[string]int `json:"trendDirections"`
	SnapshotUserCount int            `json:"snapshotUserCount"`
	GeneratedAt       time.Time      `json:"generatedAt"`
}

// UserInsights is the per-user view the insights endpoint serves:
// recent snapshots, the latest chronic pattern if one exists, and
// open risk assessments on the user's items.
type UserInsights struct {
	UserID         string                 `json:"userId"`
	Snapshots      []PerformanceSnapshot  `json:"snapshots"`
	ChronicPattern *ChronicOverduePattern `json:"chronicPattern,omitempty"`
	OpenRisks      []TaskRiskAssessment   `json:"openRisks"`
	GeneratedAt    time.Time              `json:"generatedAt"`
}

// UserDueStats is one user's due/overdue tally inside a lookback
// window, the input to chronic-pattern detection.
type UserDueStats struct {
	UserID       string
	TotalDue     int
	OverdueCount int
}

// TeamWindowStats aggregates one team's work inside one window.
type TeamWindowStats struct {
	TeamID         string
	TeamName       string
	TasksAssigned  int
	TasksCompleted int
	OverdueCount   int
}
