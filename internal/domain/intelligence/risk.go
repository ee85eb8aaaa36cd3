package intelligence

import (
	"math"
	"time"

	"workpulse/internal/domain/scoring"
)

// ComputeRisk scores the delay probability of one open work item.
// Factors: how much of the item's original runway is gone, the
// assignees' historical delay rate, due-date churn, and a fixed bump
// when the item is blocked. Deterministic for a fixed now.
func ComputeRisk(item scoring.WorkItem, delayRate float64, now time.Time) TaskRiskAssessment {
	ratio := timeRemainingRatio(item, now)
	delayRate = clampFloat(delayRate, 0, 1)

	score := int(math.Round(riskTimePressureMax * (1 - ratio)))
	score += int(math.Round(riskDelayRateMax * delayRate))

	revisionLoad := riskRevisionStep * item.RevisionCount
	if revisionLoad > riskRevisionMax {
		revisionLoad = riskRevisionMax
	}
	score += revisionLoad

	blocked := item.Status == scoring.StatusBlocked
	if blocked {
		score += riskBlockedBump
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return TaskRiskAssessment{
		WorkItemID: item.ID,
		Assignees:  item.Assignees,
		RiskScore:  score,
		Tier:       RiskTier(score),
		Factors: RiskFactors{
			TimeRemainingRatio:  ratio,
			HistoricalDelayRate: delayRate,
			RevisionCount:       item.RevisionCount,
			Blocked:             blocked,
		},
		ComputedAt: now.UTC(),
	}
}

func RiskTier(score int) string {
	switch {
	case score >= 70:
		return TierCritical
	case score >= 40:
		return TierMedium
	default:
		return TierLow
	}
}

// timeRemainingRatio is remaining time over the item's original
// runway (creation to due date), clamped to [0,1]. An overdue item
// has no runway left and scores 0.
func timeRemainingRatio(item scoring.WorkItem, now time.Time) float64 {
	if item.DueDate == nil {
		return 1
	}
	total := item.DueDate.Sub(item.CreatedAt)
	if total <= 0 {
		return 0
	}
	remaining := item.DueDate.Sub(now)
	return clampFloat(float64(remaining)/float64(total), 0, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
