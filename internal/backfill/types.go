package backfill

import (
	"database/sql"
	"time"
)

// RunStatus represents the lifecycle state for an import run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run models the database representation of a season import.
type Run struct {
	RunID           string
	Season          string
	SourcePath      string
	Status          RunStatus
	DryRun          bool
	MatchesImported int
	LastError       sql.NullString
	CreatedAt       time.Time
	StartedAt       sql.NullTime
	CompletedAt     sql.NullTime
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Season     string
	SourcePath string
	DryRun     bool
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnDateStart(date time.Time, index int, total int)
	OnMatchProcessed(matchID string)
	OnProgress(message string, current int, total int)
	OnJobComplete(imported int)
	OnJobError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveRun *Run
	History   []*Run
}

// NopReporter discards every callback.
type NopReporter struct{}

func (NopReporter) OnJobStart(JobSpec)              {}
func (NopReporter) OnDateStart(time.Time, int, int) {}
func (NopReporter) OnMatchProcessed(string)         {}
func (NopReporter) OnProgress(string, int, int)     {}
func (NopReporter) OnJobComplete(int)               {}
func (NopReporter) OnJobError(error)                {}
