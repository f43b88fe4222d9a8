package models

import "time"

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// BackfillRun is the audit row written once per run.
type BackfillRun struct {
	AutoID           int64  `gorm:"primaryKey;autoIncrement"`
	ID               string `gorm:"uniqueIndex;size:36"`
	SourceTable      string `gorm:"index;size:255"`
	MissingAttribute string `gorm:"size:255"`
	TargetAttribute  string `gorm:"size:255"`
	Status           string `gorm:"size:16"`
	Scanned          int64
	MissingCount     int64
	Updated          int64
	Failed           int64
	Error            string
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// BackfillFailure records one update that did not succeed.
type BackfillFailure struct {
	AutoID    int64  `gorm:"primaryKey;autoIncrement"`
	RunID     string `gorm:"index;size:36"`
	ItemKey   string
	ErrorCode string `gorm:"size:128"`
	Message   string
	CreatedAt time.Time
}
