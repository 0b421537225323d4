package allocator

import (
	"errors"
	"fmt"
	"time"

	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
	"github.com/jakechorley/adp-scheduler/pkg/core/verifier"
)

// ErrConfiguration is matched by every ConfigurationError
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports inconsistent input detected before the solver runs
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func configErrorf(format string, a ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, a...)}
}

// NightMode selects how night coverage is encoded
type NightMode string

const (
	// NightHard requires night slots to be staffed exactly to Needed
	NightHard NightMode = "hard"
	// NightSoft treats night slots like regular slots with slack
	NightSoft NightMode = "soft"
)

// Weights are the objective coefficients and per-slot load weights
type Weights struct {
	// Missing penalises each driver-floor unit a slot falls short by
	Missing int64

	// Slack penalises each unit of unmet headcount
	Slack int64

	// Fairness multiplies the spread between the busiest and quietest person
	Fairness int64

	// NightLoad is how much a night shift counts toward a person's load
	NightLoad int64

	// RegularLoad is how much any other shift counts toward a person's load
	RegularLoad int64
}

// DefaultWeights keeps Missing >> Slack >> Fairness so coverage always wins over balance
func DefaultWeights() Weights {
	return Weights{
		Missing:     10000,
		Slack:       1000,
		Fairness:    1,
		NightLoad:   1,
		RegularLoad: 1,
	}
}

// Config parameterises one scheduling run
type Config struct {
	Weights   Weights
	NightMode NightMode

	// Search is passed to the solver unchanged
	Search cpsat.Parameters
}

// DefaultConfig returns hard nights, default weights and a single deterministic worker
func DefaultConfig() Config {
	return Config{
		Weights:   DefaultWeights(),
		NightMode: NightHard,
		Search: cpsat.Parameters{
			TimeBudget: cpsat.DefaultTimeBudget,
			Workers:    1,
		},
	}
}

// Outcome is the typed result of a run
type Outcome int

const (
	// OutcomeOptimal means the schedule is proven optimal
	OutcomeOptimal Outcome = iota
	// OutcomeFeasible means the search ran out of time with a best-effort schedule
	OutcomeFeasible
	// OutcomeInfeasible means no schedule satisfies the hard constraints
	OutcomeInfeasible
	// OutcomeTimedOut means the search ran out of time without any schedule
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOptimal:
		return "optimal"
	case OutcomeFeasible:
		return "feasible"
	case OutcomeInfeasible:
		return "infeasible"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ParseOutcome is the inverse of Outcome.String
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range []Outcome{OutcomeOptimal, OutcomeFeasible, OutcomeInfeasible, OutcomeTimedOut} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// HasSchedule returns true if the outcome carries assignments
func (o Outcome) HasSchedule() bool {
	return o == OutcomeOptimal || o == OutcomeFeasible
}

// Describe returns the user-facing explanation of the outcome
func (o Outcome) Describe() string {
	switch o {
	case OutcomeOptimal:
		return "optimal schedule"
	case OutcomeFeasible:
		return "best-effort schedule (unoptimized: time budget exhausted)"
	case OutcomeInfeasible:
		return "no schedule satisfies the hard constraints"
	case OutcomeTimedOut:
		return "no schedule found within the time budget"
	default:
		return o.String()
	}
}

// SlotResult is the solved staffing of one active slot
type SlotResult struct {
	Slot        model.Slot
	Requirement model.Requirement

	// Assigned lists the people working the slot, in roster order
	Assigned []string

	// Drivers is the subset of Assigned who can drive
	Drivers []string

	// Shortfall is the solved slack: Needed minus the assigned headcount
	Shortfall int

	// Missing is how far the headcount falls below DriverMin
	Missing int
}

// PersonLoad is one person's weighted workload for the week
type PersonLoad struct {
	Name   string
	Shifts int
	Load   int64
}

// Schedule is everything a run produces
type Schedule struct {
	Outcome   Outcome
	Objective int64

	// Slots holds one entry per active slot in calendar order
	Slots []SlotResult

	// Loads holds one entry per person with at least one possible assignment, in roster order
	Loads    []PersonLoad
	MaxLoad  int64
	MinLoad  int64
	Fairness int64

	// Assignments is the flat solved assignment the verifier checked
	Assignments []verifier.Assignment

	// Conflicts is the verifier's output; non-empty means a defect in the model
	Conflicts []verifier.Conflict

	Nodes    int64
	WallTime time.Duration
}

// HasDefects returns true if the verifier flagged the solved schedule
func (s *Schedule) HasDefects() bool {
	return len(s.Conflicts) > 0
}

// TotalShortfall sums the shortfall over every slot
func (s *Schedule) TotalShortfall() int {
	total := 0
	for _, slot := range s.Slots {
		total += slot.Shortfall
	}
	return total
}
