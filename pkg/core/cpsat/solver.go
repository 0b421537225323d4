package cpsat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Solver solves a model within the limits set by params
type Solver interface {
	Solve(ctx context.Context, m *Model, params Parameters) (*Response, error)
}

// SearchSolver is a depth-first branch-and-bound solver with bounds propagation.
// Several workers may search the same tree in different orders, sharing the
// incumbent so that each one prunes with the best objective found by any.
type SearchSolver struct {
	logger *zap.Logger
}

// NewSearchSolver creates a solver that logs search summaries to logger
func NewSearchSolver(logger *zap.Logger) *SearchSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchSolver{logger: logger}
}

type workerResult struct {
	nodes     int64
	exhausted bool
}

// Solve searches the model until the tree is exhausted, the time budget runs
// out or ctx is cancelled
func (s *SearchSolver) Solve(ctx context.Context, m *Model, params Parameters) (*Response, error) {
	if err := m.Err(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	budget := params.TimeBudget
	if budget <= 0 {
		budget = DefaultTimeBudget
	}
	workers := max(params.Workers, 1)

	s.logger.Debug("Starting search",
		zap.Int("variables", m.NumVariables()),
		zap.Int("constraints", m.NumConstraints()),
		zap.Int("workers", workers),
		zap.Duration("time_budget", budget))

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	c := compile(m)
	shared := newIncumbent()
	results := make([]workerResult, workers)

	eg, egCtx := errgroup.WithContext(ctx)
	for i := range workers {
		eg.Go(func() error {
			w := newSearch(egCtx, c, shared, i, params)
			exhausted := w.run()
			if exhausted {
				// one exhausted tree is a proof; the others can stop
				shared.stop.Store(true)
			}
			results[i] = workerResult{nodes: w.nodes, exhausted: exhausted}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	values, best, solutions := shared.snapshot()
	resp := &Response{
		Solutions: solutions,
		WallTime:  time.Since(start),
		values:    values,
	}
	proved := false
	for _, r := range results {
		resp.Nodes += r.nodes
		proved = proved || r.exhausted
	}

	switch {
	case values == nil && proved:
		resp.Status = Infeasible
	case values == nil:
		resp.Status = Unknown
	case !m.HasObjective():
		// satisfaction: any solution is optimal
		resp.Status = Optimal
	case proved:
		resp.Status = Optimal
		resp.Objective = best
	default:
		resp.Status = Feasible
		resp.Objective = best
	}

	s.logger.Debug("Search finished",
		zap.Stringer("status", resp.Status),
		zap.Int64("objective", resp.Objective),
		zap.Int64("nodes", resp.Nodes),
		zap.Int("solutions", resp.Solutions),
		zap.Duration("wall_time", resp.WallTime))

	return resp, nil
}
