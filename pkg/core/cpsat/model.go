// Package cpsat is a small bounded-integer constraint programming backend.
//
// The Model type collects integer and Boolean variables, linear constraints
// (optionally reified with enforcement literals), max/min equalities and a
// linear objective. A Solver searches the model within a time budget and
// returns a Response holding the status and, when a solution was found, the
// variable values.
package cpsat

import (
	"errors"
	"fmt"
	"math"
)

// ErrMixedModels holds the error when elements added to a model belong to another model
var ErrMixedModels = errors.New("elements are not part of the same model")

type (
	// VarIndex is the index of a variable in the model if non-negative. A negative
	// value is the negation of the Boolean variable at position -VarIndex-1.
	VarIndex int32
	// ConstrIndex is the index of a constraint in the model
	ConstrIndex int32
)

func (v VarIndex) positiveIndex() VarIndex {
	if v >= 0 {
		return v
	}
	return -v - 1
}

// LinearArgument is implemented by IntVar, BoolVar and LinearExpr
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, c int64)
}

// LinearExpr is a weighted sum of variables plus a constant offset
type LinearExpr struct {
	varIndices []VarIndex
	coeffs     []int64
	offset     int64
}

// NewLinearExpr creates a new empty expression
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates an expression holding only a constant
func NewConstant(c int64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds la to the expression
func (l *LinearExpr) Add(la LinearArgument) *LinearExpr {
	l.AddTerm(la, 1)
	return l
}

// AddTerm adds coeff*la to the expression
func (l *LinearExpr) AddTerm(la LinearArgument, coeff int64) *LinearExpr {
	la.addToLinearExpr(l, coeff)
	return l
}

// AddSum adds every argument with coefficient 1
func (l *LinearExpr) AddSum(las ...LinearArgument) *LinearExpr {
	for _, la := range las {
		l.AddTerm(la, 1)
	}
	return l
}

func (l *LinearExpr) addToLinearExpr(e *LinearExpr, c int64) {
	for i, ind := range l.varIndices {
		e.varIndices = append(e.varIndices, ind)
		e.coeffs = append(e.coeffs, l.coeffs[i]*c)
	}
	e.offset += l.offset * c
}

// toExpr flattens the expression into internal terms, merging duplicate variables
func (l *LinearExpr) toExpr() expr {
	pos := make(map[VarIndex]int, len(l.varIndices))
	out := expr{offset: l.offset}
	for i, ind := range l.varIndices {
		c := l.coeffs[i]
		if c == 0 {
			continue
		}
		if at, ok := pos[ind]; ok {
			out.terms[at].c += c
			continue
		}
		pos[ind] = len(out.terms)
		out.terms = append(out.terms, term{v: int32(ind), c: c})
	}
	// drop terms that cancelled out
	kept := out.terms[:0]
	for _, t := range out.terms {
		if t.c != 0 {
			kept = append(kept, t)
		}
	}
	out.terms = kept
	return out
}

func asExpr(la LinearArgument) expr {
	e := NewLinearExpr()
	e.Add(la)
	return e.toExpr()
}

// IntVar is a reference to an integer variable in the model
type IntVar struct {
	model *Model
	index VarIndex
}

// Bounds returns the initial domain of the variable
func (i IntVar) Bounds() (int64, int64) {
	v := i.model.vars[i.index]
	return v.lo, v.hi
}

// WithName sets the variable name and returns the variable
func (i IntVar) WithName(s string) IntVar {
	i.model.vars[i.index].name = s
	return i
}

func (i IntVar) addToLinearExpr(e *LinearExpr, c int64) {
	e.varIndices = append(e.varIndices, i.index)
	e.coeffs = append(e.coeffs, c)
}

// BoolVar is a reference to a Boolean variable or its negation
type BoolVar struct {
	model *Model
	index VarIndex
}

// Not returns the negation of the Boolean variable
func (b BoolVar) Not() BoolVar {
	return BoolVar{model: b.model, index: -b.index - 1}
}

// WithName sets the underlying variable name and returns the literal
func (b BoolVar) WithName(s string) BoolVar {
	b.model.vars[b.index.positiveIndex()].name = s
	return b
}

func (b BoolVar) addToLinearExpr(e *LinearExpr, c int64) {
	if b.index >= 0 {
		e.varIndices = append(e.varIndices, b.index)
		e.coeffs = append(e.coeffs, c)
		return
	}
	// not(x) = 1 - x
	e.varIndices = append(e.varIndices, b.index.positiveIndex())
	e.coeffs = append(e.coeffs, -c)
	e.offset += c
}

func (b BoolVar) literal() literal {
	if b.index >= 0 {
		return literal{v: int32(b.index), positive: true}
	}
	return literal{v: int32(b.index.positiveIndex()), positive: false}
}

// Constraint is a reference to a constraint in the model
type Constraint struct {
	model *Model
	index ConstrIndex
}

// WithName sets the constraint name and returns the constraint
func (c Constraint) WithName(s string) Constraint {
	c.model.constraints[c.index].name = s
	return c
}

// OnlyEnforceIf adds enforcement literals: the constraint must hold only if all
// of the literals are true. Only linear constraints support enforcement.
func (c Constraint) OnlyEnforceIf(bvs ...BoolVar) Constraint {
	ct := c.model.constraints[c.index]
	if ct.kind != kindLinear {
		c.model.setErrorf("constraint %s: enforcement literals are only supported on linear constraints", c.model.constraintName(c.index))
		return c
	}
	for _, bv := range bvs {
		if bv.model != c.model {
			c.model.setError(fmt.Errorf("OnlyEnforceIf on constraint %s: %w", c.model.constraintName(c.index), ErrMixedModels))
			return c
		}
		ct.enforce = append(ct.enforce, bv.literal())
	}
	return c
}

type constraintKind int

const (
	kindLinear constraintKind = iota
	kindMax
)

// constraintDef is the stored form of a constraint. Min equalities are stored
// as max equalities over negated expressions.
type constraintDef struct {
	kind    constraintKind
	name    string
	linear  expr
	lb, ub  int64
	enforce []literal
	target  expr
	exprs   []expr
}

type variable struct {
	lo, hi  int64
	name    string
	boolean bool
}

// Model collects variables, constraints and the objective of one optimisation problem.
// A Model is not safe for concurrent construction; solving only reads it.
type Model struct {
	vars        []variable
	constraints []*constraintDef
	objective   *expr
	strategies  [][]VarIndex
	err         error
}

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{}
}

// Err returns the first error recorded while building the model
func (m *Model) Err() error {
	return m.err
}

func (m *Model) setError(err error) {
	if m.err == nil {
		m.err = err
	}
}

func (m *Model) setErrorf(format string, a ...any) {
	m.setError(fmt.Errorf(format, a...))
}

// constraintName returns the name given with WithName, or the constraint's position
func (m *Model) constraintName(i ConstrIndex) string {
	if name := m.constraints[i].name; name != "" {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("#%d", i)
}

// varName returns the name given with WithName, or the variable's position
func (m *Model) varName(v VarIndex) string {
	if name := m.vars[v].name; name != "" {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("#%d", v)
}

// NumVariables returns the number of variables in the model
func (m *Model) NumVariables() int {
	return len(m.vars)
}

// NumConstraints returns the number of constraints in the model
func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

// NewIntVar creates an integer variable with domain [lb, ub]
func (m *Model) NewIntVar(lb, ub int64) IntVar {
	if lb > ub {
		m.setErrorf("NewIntVar: empty domain [%d, %d]", lb, ub)
	}
	m.vars = append(m.vars, variable{lo: lb, hi: ub})
	return IntVar{model: m, index: VarIndex(len(m.vars) - 1)}
}

// NewBoolVar creates a Boolean variable
func (m *Model) NewBoolVar() BoolVar {
	m.vars = append(m.vars, variable{lo: 0, hi: 1, boolean: true})
	return BoolVar{model: m, index: VarIndex(len(m.vars) - 1)}
}

func (m *Model) appendConstraint(ct *constraintDef) Constraint {
	m.constraints = append(m.constraints, ct)
	return Constraint{model: m, index: ConstrIndex(len(m.constraints) - 1)}
}

// AddLinearConstraint adds lb <= expr <= ub
func (m *Model) AddLinearConstraint(la LinearArgument, lb, ub int64) Constraint {
	e := asExpr(la)
	lo, hi := lb, ub
	if lo != math.MinInt64 {
		lo -= e.offset
	}
	if hi != math.MaxInt64 {
		hi -= e.offset
	}
	return m.appendConstraint(&constraintDef{
		kind:   kindLinear,
		linear: expr{terms: e.terms},
		lb:     lo,
		ub:     hi,
	})
}

func difference(lhs, rhs LinearArgument) *LinearExpr {
	return NewLinearExpr().Add(lhs).AddTerm(rhs, -1)
}

// AddEquality adds lhs == rhs
func (m *Model) AddEquality(lhs, rhs LinearArgument) Constraint {
	return m.AddLinearConstraint(difference(lhs, rhs), 0, 0)
}

// AddLessOrEqual adds lhs <= rhs
func (m *Model) AddLessOrEqual(lhs, rhs LinearArgument) Constraint {
	return m.AddLinearConstraint(difference(lhs, rhs), math.MinInt64, 0)
}

// AddGreaterOrEqual adds lhs >= rhs
func (m *Model) AddGreaterOrEqual(lhs, rhs LinearArgument) Constraint {
	return m.AddLinearConstraint(difference(lhs, rhs), 0, math.MaxInt64)
}

// AddAtMostOne adds sum(bvs) <= 1
func (m *Model) AddAtMostOne(bvs ...BoolVar) Constraint {
	e := NewLinearExpr()
	for _, bv := range bvs {
		e.Add(bv)
	}
	return m.AddLinearConstraint(e, math.MinInt64, 1)
}

// AddMaxEquality adds target == max(exprs)
func (m *Model) AddMaxEquality(target LinearArgument, exprs ...LinearArgument) Constraint {
	if len(exprs) == 0 {
		m.setErrorf("AddMaxEquality: no expressions")
	}
	ct := &constraintDef{kind: kindMax, target: asExpr(target)}
	for _, la := range exprs {
		ct.exprs = append(ct.exprs, asExpr(la))
	}
	return m.appendConstraint(ct)
}

// AddMinEquality adds target == min(exprs)
func (m *Model) AddMinEquality(target LinearArgument, exprs ...LinearArgument) Constraint {
	if len(exprs) == 0 {
		m.setErrorf("AddMinEquality: no expressions")
	}
	// min(e) = -max(-e)
	ct := &constraintDef{kind: kindMax, target: asExpr(target).negate()}
	for _, la := range exprs {
		ct.exprs = append(ct.exprs, asExpr(la).negate())
	}
	return m.appendConstraint(ct)
}

// Minimize sets the objective to minimise
func (m *Model) Minimize(obj LinearArgument) {
	e := asExpr(obj)
	m.objective = &e
}

// HasObjective returns true if an objective was set
func (m *Model) HasObjective() bool {
	return m.objective != nil
}

// AddDecisionStrategy asks the search to branch on vars, in order, before any
// variable not named in an earlier strategy.
func (m *Model) AddDecisionStrategy(vars ...LinearArgument) {
	group := make([]VarIndex, 0, len(vars))
	for _, la := range vars {
		switch v := la.(type) {
		case IntVar:
			group = append(group, v.index)
		case BoolVar:
			group = append(group, v.index.positiveIndex())
		default:
			m.setErrorf("AddDecisionStrategy: only variables can be decision variables")
			return
		}
	}
	m.strategies = append(m.strategies, group)
}
