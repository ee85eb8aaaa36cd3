package scoring

import (
	"math"
	"time"
)

// ValidateConfig rejects weight sets that cannot be trusted. Scores are
// never computed against an invalid config.
func ValidateConfig(cfg ScoringConfig) error {
	for _, w := range []int{cfg.CompletionWeight, cfg.TimelinessWeight, cfg.QualityWeight, cfg.KRAAlignmentWeight} {
		if w < 0 || w > 100 {
			return ErrWeightOutOfRange
		}
	}
	if cfg.CompletionWeight+cfg.TimelinessWeight+cfg.QualityWeight+cfg.KRAAlignmentWeight != 100 {
		return ErrInvalidWeights
	}
	return nil
}

// ComputeWeeklyScore scores one user for one Monday-Sunday week from a
// snapshot of work items. The result is deterministic for identical
// inputs; only GeneratedAt carries the wall clock.
func ComputeWeeklyScore(userID string, weekStart, weekEnd time.Time, items []WorkItem, cfg ScoringConfig) (WeeklyReport, error) {
	if err := ValidateConfig(cfg); err != nil {
		return WeeklyReport{}, err
	}

	var (
		assigned     int
		completed    int
		onTime       int
		delayed      int
		defects      int
		linked       int
		revisionHits int
	)
	for _, item := range items {
		if !assignedTo(item, userID) || !intersectsWindow(item, weekStart, weekEnd) {
			continue
		}
		if item.Status == StatusCancelled {
			continue
		}
		assigned++
		if item.GoalID != "" && item.GoalActive {
			linked++
		}
		if item.Status == StatusBlocked || item.Reverted {
			defects++
		}
		if item.Status == StatusCompleted && item.CompletedAt != nil {
			completed++
			if item.RevisionCount > 1 {
				revisionHits += item.RevisionCount - 1
			}
			if item.DueDate == nil || !item.CompletedAt.After(*item.DueDate) {
				onTime++
			} else {
				delayed++
			}
		}
	}

	breakdown := ScoreBreakdown{
		CompletionScore:   ratioScore(completed, assigned),
		TimelinessScore:   timelinessScore(onTime, completed, revisionHits),
		QualityScore:      qualityScore(defects, assigned),
		KRAAlignmentScore: ratioScore(linked, assigned),
	}
	breakdown.TotalScore = weightedTotal(breakdown, cfg)

	return WeeklyReport{
		UserID:           userID,
		WeekStart:        weekStart,
		WeekEnd:          weekEnd,
		TasksAssigned:    assigned,
		TasksCompleted:   completed,
		OnTimeCompletion: onTime,
		DelayCount:       delayed,
		Breakdown:        breakdown,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

func assignedTo(item WorkItem, userID string) bool {
	for _, id := range item.Assignees {
		if id == userID {
			return true
		}
	}
	return false
}

// An item belongs to the week when its assignment, completion or due
// date falls inside the window.
func intersectsWindow(item WorkItem, start, end time.Time) bool {
	if inWindow(item.CreatedAt, start, end) {
		return true
	}
	if item.CompletedAt != nil && inWindow(*item.CompletedAt, start, end) {
		return true
	}
	if item.DueDate != nil && inWindow(*item.DueDate, start, end) {
		return true
	}
	return false
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// ratioScore is 100*part/total with an empty window scoring the
// neutral baseline 0 rather than failing.
func ratioScore(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

func timelinessScore(onTime, completed, revisionHits int) int {
	if completed == 0 {
		return 0
	}
	score := int(math.Round(100*float64(onTime)/float64(completed))) - RevisionPenalty*revisionHits
	if score < 0 {
		return 0
	}
	return score
}

// qualityScore starts from 100 and drops proportionally to the share
// of defective items (blocked, or reverted after completion). An empty
// window keeps the full score: no work, no defects.
func qualityScore(defects, assigned int) int {
	if assigned == 0 {
		return 100
	}
	score := int(math.Round(100 * (1 - float64(defects)/float64(assigned))))
	if score < 0 {
		return 0
	}
	return score
}

func weightedTotal(b ScoreBreakdown, cfg ScoringConfig) int {
	total := float64(cfg.CompletionWeight)*float64(b.CompletionScore) +
		float64(cfg.TimelinessWeight)*float64(b.TimelinessScore) +
		float64(cfg.QualityWeight)*float64(b.QualityScore) +
		float64(cfg.KRAAlignmentWeight)*float64(b.KRAAlignmentScore)
	score := int(math.Round(total / 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
