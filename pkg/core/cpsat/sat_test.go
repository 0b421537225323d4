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

func satSolve(t *testing.T, m *cpsat.Model) *cpsat.Response {
	t.Helper()
	resp, err := cpsat.NewSATSolver(zap.NewNop()).Solve(context.Background(), m, cpsat.Parameters{TimeBudget: 10 * time.Second})
	require.NoError(t, err)
	return resp
}

func TestSATSolve_LinearOptimum(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := cpsat.NewModel()
	x := m.NewIntVar(0, 10).WithName("x")
	y := m.NewIntVar(0, 10).WithName("y")
	m.AddGreaterOrEqual(cpsat.NewLinearExpr().AddSum(x, y), cpsat.NewConstant(7))
	m.Minimize(cpsat.NewLinearExpr().AddTerm(x, 3).AddTerm(y, 2))

	resp := satSolve(t, m)

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(14), resp.Objective)
	assert.Equal(t, int64(0), resp.Value(x))
	assert.Equal(t, int64(7), resp.Value(y))
}

func TestSATSolve_OffsetDomains(t *testing.T) {
	m := cpsat.NewModel()
	x := m.NewIntVar(-3, 4)
	y := m.NewIntVar(2, 6)
	m.AddEquality(cpsat.NewLinearExpr().AddSum(x, y), cpsat.NewConstant(3))
	m.Minimize(cpsat.NewLinearExpr().Add(y).AddTerm(x, 2))

	resp := satSolve(t, m)

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(-3), resp.Value(x))
	assert.Equal(t, int64(6), resp.Value(y))
	assert.Equal(t, int64(0), resp.Objective)
}

func TestSATSolve_Infeasible(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := cpsat.NewModel()
	a := m.NewBoolVar()
	b := m.NewBoolVar()
	m.AddLinearConstraint(cpsat.NewLinearExpr().AddSum(a, b), 3, 10)
	m.Minimize(a)

	resp := satSolve(t, m)

	assert.Equal(t, cpsat.Infeasible, resp.Status)
	assert.False(t, resp.Status.HasSolution())
}

func TestSATSolve_EnforcementLiteral(t *testing.T) {
	m := cpsat.NewModel()
	b := m.NewBoolVar().WithName("b")
	x := m.NewIntVar(0, 5).WithName("x")
	m.AddGreaterOrEqual(x, cpsat.NewConstant(3)).OnlyEnforceIf(b)
	m.Minimize(cpsat.NewLinearExpr().Add(x).AddTerm(b.Not(), 10))

	resp := satSolve(t, m)

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(3), resp.Objective)
	assert.True(t, resp.BoolValue(b))
	assert.Equal(t, int64(3), resp.Value(x))
}

func TestSATSolve_NegatedEnforcementLiteral(t *testing.T) {
	m := cpsat.NewModel()
	b := m.NewBoolVar()
	x := m.NewIntVar(0, 5)
	m.AddLessOrEqual(x, cpsat.NewConstant(1)).OnlyEnforceIf(b.Not())
	// x wants to be large, which forces b
	m.Minimize(cpsat.NewLinearExpr().AddTerm(x, -1).AddTerm(b, 2))

	resp := satSolve(t, m)

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.True(t, resp.BoolValue(b))
	assert.Equal(t, int64(5), resp.Value(x))
	assert.Equal(t, int64(-3), resp.Objective)
}

func TestSATSolve_EnforcementFalsifiesLiteral(t *testing.T) {
	m := cpsat.NewModel()
	b := m.NewBoolVar()
	x := m.NewIntVar(0, 2)
	m.AddGreaterOrEqual(x, cpsat.NewConstant(3)).OnlyEnforceIf(b)
	m.Minimize(cpsat.NewLinearExpr().AddTerm(b, -1))

	resp := satSolve(t, m)

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.False(t, resp.BoolValue(b))
	assert.Equal(t, int64(0), resp.Objective)
}

func TestSATSolve_MaxMinEquality(t *testing.T) {
	m := cpsat.NewModel()
	x := m.NewIntVar(0, 5)
	y := m.NewIntVar(0, 5)
	hi := m.NewIntVar(0, 5)
	lo := m.NewIntVar(0, 5)
	m.AddEquality(cpsat.NewLinearExpr().AddSum(x, y), cpsat.NewConstant(6))
	m.AddMaxEquality(hi, x, y)
	m.AddMinEquality(lo, x, y)
	m.Minimize(cpsat.NewLinearExpr().Add(hi).AddTerm(lo, -1))

	resp := satSolve(t, m)

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(0), resp.Objective)
	assert.Equal(t, int64(3), resp.Value(x))
	assert.Equal(t, int64(3), resp.Value(y))
	assert.Equal(t, int64(3), resp.Value(hi))
	assert.Equal(t, int64(3), resp.Value(lo))
}

func TestSATSolve_MaxEqualityTracksLargest(t *testing.T) {
	m := cpsat.NewModel()
	x := m.NewIntVar(2, 2)
	y := m.NewIntVar(0, 4)
	top := m.NewIntVar(0, 10)
	m.AddMaxEquality(top, x, y)
	// pulling top down cannot drop it below the larger of x and y
	m.Minimize(cpsat.NewLinearExpr().AddTerm(y, -2).Add(top))

	resp := satSolve(t, m)

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(4), resp.Value(y))
	assert.Equal(t, int64(4), resp.Value(top))
	assert.Equal(t, int64(-4), resp.Objective)
}

func TestSATSolve_AtMostOne(t *testing.T) {
	m := cpsat.NewModel()
	bools := []cpsat.BoolVar{m.NewBoolVar(), m.NewBoolVar(), m.NewBoolVar()}
	m.AddAtMostOne(bools...)
	obj := cpsat.NewLinearExpr()
	for _, b := range bools {
		obj.AddTerm(b, -1)
	}
	m.Minimize(obj)

	resp := satSolve(t, m)

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(-1), resp.Objective)
}

func TestSATSolve_SatisfactionUsesFallback(t *testing.T) {
	m := cpsat.NewModel()
	x := m.NewIntVar(0, 3)
	m.AddEquality(x, cpsat.NewConstant(2))

	resp := satSolve(t, m)

	assert.Equal(t, cpsat.Optimal, resp.Status)
	assert.Equal(t, int64(2), resp.Value(x))
}

func TestSATSolve_InvalidModel(t *testing.T) {
	m := cpsat.NewModel()
	m.NewIntVar(5, 1)

	_, err := cpsat.NewSATSolver(nil).Solve(context.Background(), m, cpsat.Parameters{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty domain")
}

func TestSATSolve_AgreesWithSearch(t *testing.T) {
	defer goleak.VerifyNone(t)

	build := func() *cpsat.Model {
		m := cpsat.NewModel()
		weights := []int64{7, 3, 9, 4, 6, 2, 8, 5}
		obj := cpsat.NewLinearExpr()
		picked := cpsat.NewLinearExpr()
		load := m.NewIntVar(0, 8)
		for i, w := range weights {
			b := m.NewBoolVar()
			obj.AddTerm(b, w)
			picked.Add(b)
			if i%2 == 0 {
				m.AddGreaterOrEqual(load, cpsat.NewConstant(int64(i/2))).OnlyEnforceIf(b)
			}
		}
		m.AddLinearConstraint(picked, 3, 3)
		m.Minimize(obj.AddTerm(load, 2))
		return m
	}

	search := solve(t, build(), cpsat.Parameters{})
	sat := satSolve(t, build())

	assert.Equal(t, cpsat.Optimal, search.Status)
	assert.Equal(t, cpsat.Optimal, sat.Status)
	assert.Equal(t, search.Objective, sat.Objective)
}

func TestNewSolver_Backends(t *testing.T) {
	s, err := cpsat.NewSolver("", nil)
	require.NoError(t, err)
	assert.IsType(t, &cpsat.SATSolver{}, s)

	s, err = cpsat.NewSolver("sat", nil)
	require.NoError(t, err)
	assert.IsType(t, &cpsat.SATSolver{}, s)

	s, err = cpsat.NewSolver("search", nil)
	require.NoError(t, err)
	assert.IsType(t, &cpsat.SearchSolver{}, s)

	_, err = cpsat.NewSolver("mip", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown solver backend")
}

func TestSATSolve_NamesTooWideVariable(t *testing.T) {
	m := cpsat.NewModel()
	x := m.NewIntVar(0, 1<<50).WithName("hours")
	m.Minimize(x)

	_, err := cpsat.NewSATSolver(nil).Solve(context.Background(), m, cpsat.Parameters{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `variable "hours"`)
}
