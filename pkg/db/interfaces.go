package db

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id matches no stored run
var ErrRunNotFound = errors.New("run not found")

// RunWriter stores new runs
type RunWriter interface {
	InsertRun(ctx context.Context, record *RunRecord) error
}

// RunReader reads stored runs
type RunReader interface {
	GetRuns(ctx context.Context) ([]Run, error)
	GetRun(ctx context.Context, id string) (*RunRecord, error)
}

// Database defines the interface for all database operations
type Database interface {
	RunWriter
	RunReader
	ReplaceConflicts(ctx context.Context, runID string, conflicts []Conflict) error
	SetRunPublished(ctx context.Context, runID string, at time.Time) error
}
