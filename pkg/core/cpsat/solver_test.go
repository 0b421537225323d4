package cpsat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
)

func solve(t *testing.T, m *cpsat.Model, params cpsat.Parameters) *cpsat.Response {
	t.Helper()
	if params.TimeBudget == 0 {
		params.TimeBudget = 10 * time.Second
	}
	resp, err := cpsat.NewSearchSolver(zap.NewNop()).Solve(context.Background(), m, params)
	require.NoError(t, err)
	return resp
}

func TestSolve_LinearOptimum(t *testing.T) {
	m := cpsat.NewModel()
	x := m.NewIntVar(0, 10).WithName("x")
	y := m.NewIntVar(0, 10).WithName("y")
	m.AddGreaterOrEqual(cpsat.NewLinearExpr().AddSum(x, y), cpsat.NewConstant(7))
	m.Minimize(cpsat.NewLinearExpr().AddTerm(x, 3).AddTerm(y, 2))

	resp := solve(t, m, cpsat.Parameters{})

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(14), resp.Objective)
	assert.Equal(t, int64(0), resp.Value(x))
	assert.Equal(t, int64(7), resp.Value(y))
	assert.Equal(t, int64(7), resp.Value(cpsat.NewLinearExpr().AddSum(x, y)))
}

func TestSolve_Infeasible(t *testing.T) {
	m := cpsat.NewModel()
	a := m.NewBoolVar()
	b := m.NewBoolVar()
	m.AddLinearConstraint(cpsat.NewLinearExpr().AddSum(a, b), 3, 10)
	m.Minimize(a)

	resp := solve(t, m, cpsat.Parameters{})

	assert.Equal(t, cpsat.Infeasible, resp.Status)
	assert.False(t, resp.Status.HasSolution())
	assert.Equal(t, int64(0), resp.Value(a))
}

func TestSolve_EnforcementLiteral(t *testing.T) {
	m := cpsat.NewModel()
	b := m.NewBoolVar().WithName("b")
	x := m.NewIntVar(0, 5).WithName("x")
	m.AddGreaterOrEqual(x, cpsat.NewConstant(3)).OnlyEnforceIf(b)
	// leaving b false costs 10, enforcing it costs x >= 3
	m.Minimize(cpsat.NewLinearExpr().Add(x).AddTerm(b.Not(), 10))

	resp := solve(t, m, cpsat.Parameters{})

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(3), resp.Objective)
	assert.True(t, resp.BoolValue(b))
	assert.False(t, resp.BoolValue(b.Not()))
	assert.Equal(t, int64(3), resp.Value(x))
}

func TestSolve_EnforcementFalsifiesLiteral(t *testing.T) {
	m := cpsat.NewModel()
	b := m.NewBoolVar()
	x := m.NewIntVar(0, 2)
	// x can never reach 3, so b must be false
	m.AddGreaterOrEqual(x, cpsat.NewConstant(3)).OnlyEnforceIf(b)
	m.Minimize(cpsat.NewLinearExpr().AddTerm(b, -1))

	resp := solve(t, m, cpsat.Parameters{})

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.False(t, resp.BoolValue(b))
	assert.Equal(t, int64(0), resp.Objective)
}

func TestSolve_MaxMinEquality(t *testing.T) {
	m := cpsat.NewModel()
	x := m.NewIntVar(0, 5)
	y := m.NewIntVar(0, 5)
	hi := m.NewIntVar(0, 5)
	lo := m.NewIntVar(0, 5)
	m.AddEquality(cpsat.NewLinearExpr().AddSum(x, y), cpsat.NewConstant(6))
	m.AddMaxEquality(hi, x, y)
	m.AddMinEquality(lo, x, y)
	m.Minimize(cpsat.NewLinearExpr().Add(hi).AddTerm(lo, -1))

	resp := solve(t, m, cpsat.Parameters{})

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(0), resp.Objective)
	assert.Equal(t, int64(3), resp.Value(x))
	assert.Equal(t, int64(3), resp.Value(y))
	assert.Equal(t, int64(3), resp.Value(hi))
	assert.Equal(t, int64(3), resp.Value(lo))
}

func TestSolve_MaxEqualityTracksLargest(t *testing.T) {
	m := cpsat.NewModel()
	x := m.NewIntVar(2, 2)
	y := m.NewIntVar(0, 4)
	top := m.NewIntVar(0, 10)
	m.AddMaxEquality(top, x, y)
	m.Minimize(cpsat.NewLinearExpr().AddTerm(y, -1))

	resp := solve(t, m, cpsat.Parameters{})

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(4), resp.Value(y))
	assert.Equal(t, int64(4), resp.Value(top))
}

func TestSolve_AtMostOne(t *testing.T) {
	m := cpsat.NewModel()
	bools := []cpsat.BoolVar{m.NewBoolVar(), m.NewBoolVar(), m.NewBoolVar()}
	m.AddAtMostOne(bools...)
	obj := cpsat.NewLinearExpr()
	for _, b := range bools {
		obj.AddTerm(b, -1)
	}
	m.Minimize(obj)

	resp := solve(t, m, cpsat.Parameters{})

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(-1), resp.Objective)
}

func TestSolve_SatisfactionIsOptimal(t *testing.T) {
	m := cpsat.NewModel()
	x := m.NewIntVar(0, 3)
	m.AddEquality(x, cpsat.NewConstant(2))

	resp := solve(t, m, cpsat.Parameters{})

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(2), resp.Value(x))
	assert.Equal(t, 1, resp.Solutions)
}

func TestSolve_InvalidModel(t *testing.T) {
	m := cpsat.NewModel()
	m.NewIntVar(5, 1)

	_, err := cpsat.NewSearchSolver(nil).Solve(context.Background(), m, cpsat.Parameters{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty domain")
}

func TestSolve_EnforcementOnMaxIsRejected(t *testing.T) {
	m := cpsat.NewModel()
	b := m.NewBoolVar()
	x := m.NewIntVar(0, 1)
	m.AddMaxEquality(x, b).WithName("top").OnlyEnforceIf(b)

	_, err := cpsat.NewSearchSolver(nil).Solve(context.Background(), m, cpsat.Parameters{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `constraint "top"`)
}

func TestSolve_MixedModels(t *testing.T) {
	m := cpsat.NewModel()
	other := cpsat.NewModel()
	x := m.NewIntVar(0, 1)
	m.AddEquality(x, cpsat.NewConstant(1)).OnlyEnforceIf(other.NewBoolVar())

	assert.ErrorIs(t, m.Err(), cpsat.ErrMixedModels)
}

func TestSolve_NodeLimitWithoutSolution(t *testing.T) {
	m := cpsat.NewModel()
	obj := cpsat.NewLinearExpr()
	for range 10 {
		obj.Add(m.NewBoolVar())
	}
	m.Minimize(obj)

	resp := solve(t, m, cpsat.Parameters{NodeLimit: 1})

	assert.Equal(t, cpsat.Unknown, resp.Status)
	assert.Equal(t, 0, resp.Solutions)
}

func TestSolve_CancelledContext(t *testing.T) {
	m := cpsat.NewModel()
	x := m.NewIntVar(0, 100)
	m.Minimize(x)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp, err := cpsat.NewSearchSolver(nil).Solve(ctx, m, cpsat.Parameters{})

	require.NoError(t, err)
	assert.Equal(t, cpsat.Unknown, resp.Status)
}

func TestSolve_ParallelWorkersAgree(t *testing.T) {
	defer goleak.VerifyNone(t)

	build := func() (*cpsat.Model, []cpsat.BoolVar) {
		m := cpsat.NewModel()
		weights := []int64{7, 3, 9, 4, 6, 2, 8, 5}
		bools := make([]cpsat.BoolVar, len(weights))
		obj := cpsat.NewLinearExpr()
		picked := cpsat.NewLinearExpr()
		for i, w := range weights {
			bools[i] = m.NewBoolVar()
			obj.AddTerm(bools[i], w)
			picked.Add(bools[i])
		}
		m.AddLinearConstraint(picked, 3, 3)
		m.AddDecisionStrategy(bools[0], bools[1], bools[2], bools[3])
		m.Minimize(obj)
		return m, bools
	}

	single, _ := build()
	parallel, bools := build()
	one := solve(t, single, cpsat.Parameters{Workers: 1})
	many := solve(t, parallel, cpsat.Parameters{Workers: 4, Seed: 42})

	assert.Equal(t, cpsat.Optimal, one.Status)
	assert.Equal(t, cpsat.Optimal, many.Status)
	assert.Equal(t, int64(9), one.Objective)
	assert.Equal(t, one.Objective, many.Objective)

	count := 0
	for _, b := range bools {
		if many.BoolValue(b) {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "OPTIMAL", cpsat.Optimal.String())
	assert.Equal(t, "FEASIBLE", cpsat.Feasible.String())
	assert.Equal(t, "INFEASIBLE", cpsat.Infeasible.String())
	assert.Equal(t, "UNKNOWN", cpsat.Unknown.String())
}
