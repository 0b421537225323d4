// Package verifier re-checks a solved schedule against the raw availability and
// the anti-fatigue rules, independently of how the schedule was produced.
package verifier

import (
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// Assignment places one person in one slot
type Assignment struct {
	Person string
	Slot   model.Slot
}

// Conflict describes one violated rule in a solved schedule
type Conflict struct {
	Person      string
	Day         model.Day
	Slot        model.Slot
	Check       string
	Description string
}

// Check is one independent rule the verifier enforces
type Check interface {
	// Name returns a human-readable identifier for this check
	Name() string

	// Validate returns every violation of the rule in the given assignments.
	// It must not modify its inputs.
	Validate(problem *model.Problem, assignments []Assignment) []Conflict
}

// DefaultChecks returns the checks run by Verify, in reporting order
func DefaultChecks() []Check {
	return []Check{
		AvailabilityCheck{},
		OnePerDayCheck{},
		OneNightPerWeekCheck{},
		NoAdjacentNightsCheck{},
		MaxShiftsCheck{},
	}
}

// Verify runs every default check. The result is never nil so that two runs
// over the same assignments compare equal.
func Verify(problem *model.Problem, assignments []Assignment) []Conflict {
	return VerifyWith(problem, assignments, DefaultChecks())
}

// VerifyWith runs the given checks in order and concatenates their conflicts
func VerifyWith(problem *model.Problem, assignments []Assignment, checks []Check) []Conflict {
	conflicts := []Conflict{}
	for _, check := range checks {
		conflicts = append(conflicts, check.Validate(problem, assignments)...)
	}
	return conflicts
}
