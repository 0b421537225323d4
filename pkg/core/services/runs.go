package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/pkg/core/verifier"
	"github.com/jakechorley/adp-scheduler/pkg/db"
)

// ListRuns returns every stored run, newest first
func ListRuns(ctx context.Context, database db.RunReader, logger *zap.Logger) ([]db.Run, error) {
	logger.Debug("Fetching runs")
	runs, err := database.GetRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	slices.SortStableFunc(runs, func(a, b db.Run) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), b.WeekStart.Compare(a.WeekStart))
	})
	logger.Debug("Found runs", zap.Int("count", len(runs)))
	return runs, nil
}

// ShowRun loads a stored run with its rows in calendar order.
// An empty runID selects the most recent run.
func ShowRun(ctx context.Context, database db.RunReader, logger *zap.Logger, runID string) (*db.RunRecord, error) {
	if runID == "" {
		runs, err := ListRuns(ctx, database, logger)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, fmt.Errorf("no runs found - please run schedule first")
		}
		runID = runs[0].ID
		logger.Debug("No run ID provided, using latest run", zap.String("run_id", runID))
	}

	record, err := database.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run: %w", err)
	}

	sortRecord(record)
	return record, nil
}

// VerifyRunResult is a fresh verification of a stored run
type VerifyRunResult struct {
	Run       db.Run
	Conflicts []verifier.Conflict

	// Changed is true when the fresh conflicts differ in number from the stored ones
	Changed bool
}

// VerifyRun re-checks a stored run against the availability and anti-fatigue
// rules and, when save is set, replaces its stored conflicts
func VerifyRun(ctx context.Context, database db.Database, logger *zap.Logger, runID string, save bool) (*VerifyRunResult, error) {
	record, err := ShowRun(ctx, database, logger, runID)
	if err != nil {
		return nil, err
	}

	problem, err := problemFromRecord(record)
	if err != nil {
		return nil, err
	}
	assignments, err := assignmentsFromRecord(record)
	if err != nil {
		return nil, err
	}

	conflicts := verifier.Verify(problem, assignments)
	result := &VerifyRunResult{
		Run:       record.Run,
		Conflicts: conflicts,
		Changed:   len(conflicts) != len(record.Conflicts),
	}

	for _, c := range conflicts {
		logger.Error("Schedule conflict",
			zap.String("run_id", record.Run.ID),
			zap.String("person", c.Person),
			zap.Stringer("slot", c.Slot),
			zap.String("check", c.Check),
			zap.String("description", c.Description))
	}

	if save {
		if err := database.ReplaceConflicts(ctx, record.Run.ID, conflictRows(record.Run.ID, conflicts)); err != nil {
			return nil, fmt.Errorf("failed to store conflicts: %w", err)
		}
		result.Run.Conflicts = len(conflicts)
	}

	logger.Info("Verified run",
		zap.String("run_id", record.Run.ID),
		zap.Int("assignments", len(assignments)),
		zap.Int("conflicts", len(conflicts)))
	return result, nil
}
