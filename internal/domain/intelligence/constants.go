package intelligence

const (
	TrendUp   = "up"
	TrendFlat = "flat"
	TrendDown = "down"
)

const (
	TierLow      = "low"
	TierMedium   = "medium"
	TierCritical = "critical"
)

const (
	DefaultLookbackDays     = 30
	DefaultThresholdPercent = 30
	DefaultTrendWindowDays  = 14
	DefaultNoiseMargin      = 2
)

// Risk score contributions. The four factors sum to at most 115 and
// the final score is clamped to 100.
const (
	riskTimePressureMax = 40
	riskDelayRateMax    = 30
	riskRevisionStep    = 8
	riskRevisionMax     = 20
	riskBlockedBump     = 25
)
