package allocator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
	"github.com/jakechorley/adp-scheduler/pkg/core/verifier"
)

// Allocate builds the constraint model for a problem, solves it and verifies the result.
//
// Only configuration and solver errors are returned as errors. Infeasible and
// timed-out searches are normal outcomes reported on the Schedule, as are
// verifier conflicts.
func Allocate(ctx context.Context, problem *model.Problem, cfg Config, solver cpsat.Solver, logger *zap.Logger) (*Schedule, error) {
	logger.Debug("Building constraint model",
		zap.Int("people", len(problem.People)),
		zap.Int("labels", len(problem.Calendar.Labels)),
		zap.String("night_mode", string(cfg.NightMode)))

	m, err := Build(problem, cfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("Built constraint model",
		zap.Int("assignment_variables", len(m.Keys)),
		zap.Int("variables", m.CP.NumVariables()),
		zap.Int("constraints", m.CP.NumConstraints()))

	resp, err := solver.Solve(ctx, m.CP, cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to solve model: %w", err)
	}

	schedule := m.Extract(resp)
	if !schedule.Outcome.HasSchedule() {
		logger.Warn("No schedule produced",
			zap.Stringer("outcome", schedule.Outcome),
			zap.String("reason", schedule.Outcome.Describe()),
			zap.Duration("wall_time", schedule.WallTime))
		return schedule, nil
	}

	schedule.Conflicts = verifier.Verify(problem, schedule.Assignments)
	for _, c := range schedule.Conflicts {
		logger.Error("Schedule conflict",
			zap.String("person", c.Person),
			zap.Stringer("slot", c.Slot),
			zap.String("check", c.Check),
			zap.String("description", c.Description))
	}

	logger.Info("Schedule generated",
		zap.Stringer("outcome", schedule.Outcome),
		zap.Int64("objective", schedule.Objective),
		zap.Int("shortfall", schedule.TotalShortfall()),
		zap.Int64("fairness", schedule.Fairness),
		zap.Int("conflicts", len(schedule.Conflicts)))

	return schedule, nil
}

func outcomeFor(status cpsat.Status) Outcome {
	switch status {
	case cpsat.Optimal:
		return OutcomeOptimal
	case cpsat.Feasible:
		return OutcomeFeasible
	case cpsat.Infeasible:
		return OutcomeInfeasible
	default:
		return OutcomeTimedOut
	}
}

// Extract reads the solved values out of a solver response. Without a solution
// only the outcome and search statistics are filled in.
func (m *Model) Extract(resp *cpsat.Response) *Schedule {
	schedule := &Schedule{
		Outcome:     outcomeFor(resp.Status),
		Slots:       []SlotResult{},
		Loads:       []PersonLoad{},
		Assignments: []verifier.Assignment{},
		Conflicts:   []verifier.Conflict{},
		Nodes:       resp.Nodes,
		WallTime:    resp.WallTime,
	}
	if !schedule.Outcome.HasSchedule() {
		return schedule
	}
	schedule.Objective = resp.Objective

	shifts := make([]int, len(m.Problem.People))
	for si, sv := range m.Slots {
		result := SlotResult{
			Slot:        sv.Slot,
			Requirement: sv.Requirement,
			Assigned:    []string{},
			Drivers:     []string{},
		}
		for _, key := range sv.Keys {
			if !resp.BoolValue(m.Assign[key]) {
				continue
			}
			person := m.Problem.People[key.Person]
			shifts[key.Person]++
			result.Assigned = append(result.Assigned, person.Name)
			if person.CanDrive {
				result.Drivers = append(result.Drivers, person.Name)
			}
			schedule.Assignments = append(schedule.Assignments, verifier.Assignment{Person: person.Name, Slot: sv.Slot})
		}
		if sv.Slack != nil {
			result.Shortfall = int(resp.Value(*sv.Slack))
		}
		if sv.Missing != nil {
			result.Missing = int(resp.Value(*sv.Missing))
		}
		if m.IsActive(si) {
			schedule.Slots = append(schedule.Slots, result)
		}
	}

	for pi, load := range m.Loads {
		if load == nil {
			continue
		}
		schedule.Loads = append(schedule.Loads, PersonLoad{
			Name:   m.Problem.People[pi].Name,
			Shifts: shifts[pi],
			Load:   resp.Value(*load),
		})
	}
	if m.MaxLoad != nil {
		schedule.MaxLoad = resp.Value(*m.MaxLoad)
		schedule.MinLoad = resp.Value(*m.MinLoad)
		schedule.Fairness = schedule.MaxLoad - schedule.MinLoad
	}

	return schedule
}
