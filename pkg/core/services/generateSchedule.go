package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/adp-scheduler/internal/config"
	"github.com/jakechorley/adp-scheduler/pkg/core/allocator"
	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
	"github.com/jakechorley/adp-scheduler/pkg/db"
)

// maxConcurrentWeeks bounds how many weeks GenerateWeeks solves at once
const maxConcurrentWeeks = 2

// ScheduleOptions are the per-invocation knobs of a scheduling run
type ScheduleOptions struct {
	// DryRun skips storing the run
	DryRun bool

	// TimeBudget overrides the configured solver budget when positive
	TimeBudget time.Duration
}

// GenerateScheduleResult is one solved week
type GenerateScheduleResult struct {
	RunID     string
	WeekStart time.Time
	Problem   *model.Problem
	Schedule  *allocator.Schedule
	Stored    bool
}

// GenerateSchedule builds and solves the schedule for the week containing
// weekStart and stores the run unless opts.DryRun is set.
// A nil database is only allowed for dry runs.
func GenerateSchedule(
	ctx context.Context,
	database db.RunWriter,
	solver cpsat.Solver,
	r *Roster,
	cfg *config.Config,
	logger *zap.Logger,
	weekStart time.Time,
	opts ScheduleOptions,
) (*GenerateScheduleResult, error) {
	week := model.WeekStart(weekStart)
	logger = logger.With(zap.String("week", week.Format(dateFormat)))
	logger.Debug("Starting generateSchedule",
		zap.Bool("dry_run", opts.DryRun),
		zap.Duration("time_budget", opts.TimeBudget))

	if !opts.DryRun && database == nil {
		return nil, fmt.Errorf("no database configured: set database.connectionString or use --dry-run")
	}

	requirements, err := cfg.RequirementTable(week)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve requirements: %w", err)
	}
	logger.Debug("Resolved requirements", zap.Int("overrides", len(requirements.Overrides)))

	allocCfg, err := cfg.AllocatorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build allocator config: %w", err)
	}
	if opts.TimeBudget > 0 {
		allocCfg.Search.TimeBudget = opts.TimeBudget
	}

	problem := &model.Problem{
		People:       r.People,
		Calendar:     cfg.ModelCalendar(),
		Requirements: requirements,
	}

	schedule, err := allocator.Allocate(ctx, problem, allocCfg, solver, logger)
	if err != nil {
		return nil, err
	}

	result := &GenerateScheduleResult{
		RunID:     uuid.New().String(),
		WeekStart: week,
		Problem:   problem,
		Schedule:  schedule,
	}

	if opts.DryRun {
		logger.Info("Dry run, not storing schedule", zap.String("run_id", result.RunID))
		return result, nil
	}

	record := newRunRecord(result.RunID, week, r.Source, problem, schedule, time.Now().UTC())
	if err := database.InsertRun(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}
	result.Stored = true

	logger.Info("Stored run",
		zap.String("run_id", result.RunID),
		zap.Stringer("outcome", schedule.Outcome))
	return result, nil
}

// GenerateWeeks solves several weeks concurrently against the same roster.
// Results are returned in the order of weekStarts; the first error cancels the rest.
func GenerateWeeks(
	ctx context.Context,
	database db.RunWriter,
	solver cpsat.Solver,
	r *Roster,
	cfg *config.Config,
	logger *zap.Logger,
	weekStarts []time.Time,
	opts ScheduleOptions,
) ([]*GenerateScheduleResult, error) {
	seen := make(map[time.Time]bool, len(weekStarts))
	for _, start := range weekStarts {
		week := model.WeekStart(start)
		if seen[week] {
			return nil, fmt.Errorf("week of %s requested twice", week.Format(dateFormat))
		}
		seen[week] = true
	}

	results := make([]*GenerateScheduleResult, len(weekStarts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWeeks)

	for i, start := range weekStarts {
		g.Go(func() error {
			result, err := GenerateSchedule(gctx, database, solver, r, cfg, logger, start, opts)
			if err != nil {
				return fmt.Errorf("week of %s: %w", model.WeekStart(start).Format(dateFormat), err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
