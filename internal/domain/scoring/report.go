package scoring

import (
	"math"
	"sort"
	"time"
)

type AdminReport struct {
	ReportType  string            `json:"reportType"`
	WeekStart   time.Time         `json:"weekStart"`
	WeekEnd     time.Time         `json:"weekEnd"`
	Overview    *OverviewReport   `json:"overview,omitempty"`
	Teams       []TeamRollup      `json:"teams,omitempty"`
	Users       []WeeklyReport    `json:"users,omitempty"`
	Performance *PerformanceBands `json:"performance,omitempty"`
	Errors      []string          `json:"errors,omitempty"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

type OverviewReport struct {
	UserCount        int `json:"userCount"`
	TasksAssigned    int `json:"tasksAssigned"`
	TasksCompleted   int `json:"tasksCompleted"`
	AverageScore     int `json:"averageScore"`
	OnTimeCompletion int `json:"onTimeCompletion"`
	DelayCount       int `json:"delayCount"`
}

type TeamRollup struct {
	TeamID         string `json:"teamId"`
	TeamName       string `json:"teamName"`
	MemberCount    int    `json:"memberCount"`
	TasksAssigned  int    `json:"tasksAssigned"`
	TasksCompleted int    `json:"tasksCompleted"`
	AverageScore   int    `json:"averageScore"`
}

type PerformanceBands struct {
	Top          []WeeklyReport `json:"top"`
	Bottom       []WeeklyReport `json:"bottom"`
	Distribution map[string]int `json:"distribution"`
}

func buildOverview(reports []WeeklyReport) *OverviewReport {
	overview := &OverviewReport{UserCount: len(reports)}
	if len(reports) == 0 {
		return overview
	}
	total := 0
	for _, report := range reports {
		overview.TasksAssigned += report.TasksAssigned
		overview.TasksCompleted += report.TasksCompleted
		overview.OnTimeCompletion += report.OnTimeCompletion
		overview.DelayCount += report.DelayCount
		total += report.Breakdown.TotalScore
	}
	overview.AverageScore = int(math.Round(float64(total) / float64(len(reports))))
	return overview
}

func buildTeamRollup(team Team, reports []WeeklyReport) TeamRollup {
	rollup := TeamRollup{TeamID: team.ID, TeamName: team.Name, MemberCount: len(reports)}
	if len(reports) == 0 {
		return rollup
	}
	total := 0
	for _, report := range reports {
		rollup.TasksAssigned += report.TasksAssigned
		rollup.TasksCompleted += report.TasksCompleted
		total += report.Breakdown.TotalScore
	}
	rollup.AverageScore = int(math.Round(float64(total) / float64(len(reports))))
	return rollup
}

// buildPerformanceBands ranks reports by total score and buckets them
// into 20-point score bands for the distribution view.
func buildPerformanceBands(reports []WeeklyReport, bandSize int) *PerformanceBands {
	sorted := make([]WeeklyReport, len(reports))
	copy(sorted, reports)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Breakdown.TotalScore != sorted[j].Breakdown.TotalScore {
			return sorted[i].Breakdown.TotalScore > sorted[j].Breakdown.TotalScore
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	bands := &PerformanceBands{Distribution: map[string]int{}}
	for _, report := range sorted {
		bands.Distribution[scoreBand(report.Breakdown.TotalScore)]++
	}
	count := len(sorted)
	if count == 0 {
		return bands
	}
	if bandSize > count {
		bandSize = count
	}
	bands.Top = sorted[:bandSize]
	bands.Bottom = sorted[count-bandSize:]
	return bands
}

func scoreBand(score int) string {
	switch {
	case score >= 80:
		return "80-100"
	case score >= 60:
		return "60-79"
	case score >= 40:
		return "40-59"
	case score >= 20:
		return "20-39"
	default:
		return "0-19"
	}
}
