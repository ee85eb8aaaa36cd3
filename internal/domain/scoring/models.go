package scoring

import "time"

type WorkItem struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Kind          string     `json:"kind"`
	Assignees     []string   `json:"assignees"`
	CreatorID     string     `json:"creatorId"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	CreatedAt     time.Time  `json:"createdAt"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	RevisionCount int        `json:"revisionCount"`
	GoalID        string     `json:"goalId,omitempty"`
	GoalActive    bool       `json:"goalActive"`
	Reverted      bool       `json:"reverted"`
	Overdue       bool       `json:"overdue"`
}

type ScoringConfig struct {
	CompletionWeight   int       `json:"completionWeight"`
	TimelinessWeight   int       `json:"timelinessWeight"`
	QualityWeight      int       `json:"qualityWeight"`
	KRAAlignmentWeight int       `json:"kraAlignmentWeight"`
	UpdatedBy          string    `json:"updatedBy,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type ScoreBreakdown struct {
	CompletionScore   int `json:"completionScore"`
	TimelinessScore   int `json:"timelinessScore"`
	QualityScore      int `json:"qualityScore"`
	KRAAlignmentScore int `json:"kraAlignmentScore"`
	TotalScore        int `json:"totalScore"`
}

type WeeklyReport struct {
	UserID           string         `json:"userId"`
	WeekStart        time.Time      `json:"weekStart"`
	WeekEnd          time.Time      `json:"weekEnd"`
	TasksAssigned    int            `json:"tasksAssigned"`
	TasksCompleted   int            `json:"tasksCompleted"`
	OnTimeCompletion int            `json:"onTimeCompletion"`
	DelayCount       int            `json:"delayCount"`
	Breakdown        ScoreBreakdown `json:"breakdown"`
	GeneratedAt      time.Time      `json:"generatedAt"`
}

type User struct {
	ID      string `json:"id"`
	TeamID  string `json:"teamId"`
	Admin   bool   `json:"admin"`
	Manager bool   `json:"manager"`
}

type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
