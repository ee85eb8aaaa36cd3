package scoring

const (
	StatusNotStarted = "not_started"
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusBlocked    = "blocked"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusOnHold     = "on_hold"
)

const (
	KindTask = "task"
	KindKRA  = "kra_goal"
)

const (
	ReportTypeOverview    = "overview"
	ReportTypeTeams       = "teams"
	ReportTypeUsers       = "users"
	ReportTypePerformance = "performance"
)

// RevisionPenalty is subtracted from the timeliness score for every
// due-date push beyond the first on a completed item.
const RevisionPenalty = 5
