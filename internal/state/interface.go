package state

import (
	"context"
	"time"
)

// Store records which raw videos have been normalized and which runs
// happened. It replaces renaming inputs to mark them processed.
type Store interface {
	// Processed maps the name of every raw video already normalized to the
	// normalized file it produced.
	Processed(ctx context.Context) (map[string]string, error)
	// MarkProcessed records that the raw video name was normalized to output.
	MarkProcessed(ctx context.Context, name, output, runID string) error
	// BeginRun records the start of a pipeline run.
	BeginRun(ctx context.Context, runID, command string) error
	// FinishRun records the terminal status of a run.
	FinishRun(ctx context.Context, runID string, status RunStatus, detail string) error
	// Runs returns the most recent runs, newest first.
	Runs(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
)

// Run is one row of the run history.
type Run struct {
	ID         string
	Command    string
	Status     RunStatus
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}
