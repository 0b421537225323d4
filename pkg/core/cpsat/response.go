package cpsat

import (
	"time"
)

// Status is the outcome of a solve
type Status int

const (
	// Unknown means the search stopped before finding any solution
	Unknown Status = iota
	// Infeasible means the search proved that no solution exists
	Infeasible
	// Feasible means a solution was found but not proven optimal
	Feasible
	// Optimal means the solution was proven optimal
	Optimal
)

func (s Status) String() string {
	switch s {
	case Infeasible:
		return "INFEASIBLE"
	case Feasible:
		return "FEASIBLE"
	case Optimal:
		return "OPTIMAL"
	default:
		return "UNKNOWN"
	}
}

// HasSolution returns true if the response carries variable values
func (s Status) HasSolution() bool {
	return s == Feasible || s == Optimal
}

// DefaultTimeBudget is used when Parameters.TimeBudget is zero
const DefaultTimeBudget = 60 * time.Second

// Parameters control a single solve
type Parameters struct {
	// TimeBudget is the wall-clock limit for the search
	TimeBudget time.Duration

	// Workers is the number of parallel search workers. Worker 0 always
	// follows the model's decision strategies exactly; the others shuffle
	// within each strategy using Seed.
	Workers int

	// Seed drives the branching order of workers after the first
	Seed uint64

	// NodeLimit stops each worker after this many nodes. Zero means no limit.
	NodeLimit int64
}

// Response holds the result of a solve
type Response struct {
	Status    Status
	Objective int64
	Nodes     int64
	Solutions int
	WallTime  time.Duration

	values []int64
}

// Value evaluates a variable or expression in the returned solution.
// It returns 0 when the response has no solution.
func (r *Response) Value(la LinearArgument) int64 {
	if r.values == nil {
		return 0
	}
	e := asExpr(la)
	value := e.offset
	for _, t := range e.terms {
		value += t.c * r.values[t.v]
	}
	return value
}

// BoolValue returns the value of a Boolean literal in the returned solution
func (r *Response) BoolValue(b BoolVar) bool {
	return r.Value(b) == 1
}
