package cpsat

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/crillab/gophersat/solver"
	"go.uber.org/zap"
)

// SATSolver encodes a model as pseudo-Boolean constraints and minimises it with
// gophersat's CDCL engine. Integer variables are binary-encoded, enforcement
// literals and max/min equalities become big-M constraints. Models without an
// objective are passed to the fallback solver.
type SATSolver struct {
	logger   *zap.Logger
	fallback Solver
}

// NewSATSolver creates a pseudo-Boolean solver that falls back to a SearchSolver
func NewSATSolver(logger *zap.Logger) *SATSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SATSolver{logger: logger, fallback: NewSearchSolver(logger)}
}

// Solve minimises the model until optimality is proven, the time budget runs
// out or ctx is cancelled. Only TimeBudget is read from params.
func (s *SATSolver) Solve(ctx context.Context, m *Model, params Parameters) (*Response, error) {
	if err := m.Err(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	if !m.HasObjective() {
		return s.fallback.Solve(ctx, m, params)
	}

	budget := params.TimeBudget
	if budget <= 0 {
		budget = DefaultTimeBudget
	}

	start := time.Now()
	enc, err := encode(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}

	s.logger.Debug("Starting pseudo-boolean search",
		zap.Int("variables", m.NumVariables()),
		zap.Int("constraints", m.NumConstraints()),
		zap.Int("bits", enc.nbVars),
		zap.Int("pb_constraints", len(enc.constrs)),
		zap.Duration("time_budget", budget))

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	problem := solver.ParsePBConstrs(enc.constrs)
	if len(enc.costLits) > 0 {
		problem.SetCostFunc(enc.costLits, enc.costWeights)
	}
	pb := solver.New(problem)

	results := make(chan solver.Result)
	stop := make(chan struct{})
	done := make(chan solver.Result, 1)
	go func() {
		done <- pb.Optimal(results, stop)
	}()

	var best []bool
	bestWeight := math.MaxInt
	solutions := 0
	keep := func(r solver.Result) {
		if r.Status != solver.Sat || r.Model == nil || (best != nil && r.Weight >= bestWeight) {
			return
		}
		best = append([]bool(nil), r.Model...)
		bestWeight = r.Weight
		solutions++
	}

	expired := ctx.Done()
	stopped := false
	for finished := false; !finished; {
		select {
		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			keep(r)
		case r := <-done:
			keep(r)
			finished = true
		case <-expired:
			close(stop)
			stopped = true
			expired = nil
		}
	}

	resp := &Response{Solutions: solutions}
	if best != nil {
		resp.values = enc.decode(best)
		if err := m.check(resp.values); err != nil {
			return nil, fmt.Errorf("solver returned an invalid assignment: %w", err)
		}
		resp.Objective = evalExpr(*m.objective, resp.values)
	}

	switch {
	case best == nil && stopped:
		resp.Status = Unknown
	case best == nil:
		resp.Status = Infeasible
	case stopped:
		resp.Status = Feasible
	default:
		resp.Status = Optimal
	}
	resp.WallTime = time.Since(start)

	s.logger.Debug("Pseudo-boolean search finished",
		zap.Stringer("status", resp.Status),
		zap.Int64("objective", resp.Objective),
		zap.Int("solutions", resp.Solutions),
		zap.Duration("wall_time", resp.WallTime))

	return resp, nil
}

// NewSolver returns the solver for a backend name: "sat" (the default) or "search"
func NewSolver(backend string, logger *zap.Logger) (Solver, error) {
	switch backend {
	case "", "sat":
		return NewSATSolver(logger), nil
	case "search":
		return NewSearchSolver(logger), nil
	default:
		return nil, fmt.Errorf("unknown solver backend %q", backend)
	}
}

// bitTerm is weight*lit over a DIMACS literal
type bitTerm struct {
	lit    int
	weight int64
}

// maxBits bounds the binary encoding of one integer variable
const maxBits = 40

type encoding struct {
	nbVars  int
	lo      []int64
	bits    [][]int
	constrs []solver.PBConstr

	costLits    []solver.Lit
	costWeights []int
}

func encode(m *Model) (*encoding, error) {
	enc := &encoding{
		lo:   make([]int64, len(m.vars)),
		bits: make([][]int, len(m.vars)),
	}

	for v, variable := range m.vars {
		enc.lo[v] = variable.lo
		span := variable.hi - variable.lo
		if span == 0 {
			continue
		}
		n := bits.Len64(uint64(span))
		if n > maxBits {
			return nil, fmt.Errorf("variable %s has domain [%d, %d], too wide to encode", m.varName(VarIndex(v)), variable.lo, variable.hi)
		}
		ids := make([]int, n)
		for j := range ids {
			ids[j] = enc.newBit()
		}
		enc.bits[v] = ids
		if span != int64(1)<<n-1 {
			terms := make([]bitTerm, n)
			for j, id := range ids {
				terms[j] = bitTerm{lit: id, weight: int64(1) << j}
			}
			enc.atMost(terms, span, nil)
		}
	}

	for i, ct := range m.constraints {
		switch ct.kind {
		case kindLinear:
			relax, live := enc.relax(ct.enforce)
			if !live {
				continue
			}
			terms, offset := enc.expand(ct.linear)
			if ct.lb != negInf {
				enc.atLeast(terms, ct.lb-offset, relax)
			}
			if ct.ub != posInf {
				enc.atMost(terms, ct.ub-offset, relax)
			}
		case kindMax:
			if err := enc.addMax(ct); err != nil {
				return nil, fmt.Errorf("constraint %s: %w", m.constraintName(ConstrIndex(i)), err)
			}
		}
	}

	terms, _ := enc.expand(*m.objective)
	for _, t := range terms {
		lit, weight := t.lit, t.weight
		if weight < 0 {
			// w*x = w + |w|*not(x); the constant is recovered when decoding
			lit, weight = -lit, -weight
		}
		enc.costLits = append(enc.costLits, solver.IntToLit(int32(lit)))
		enc.costWeights = append(enc.costWeights, int(weight))
	}

	// register every bit, including ones only the objective touches
	if enc.nbVars > 0 {
		all := make([]int, enc.nbVars)
		ones := make([]int, enc.nbVars)
		for i := range all {
			all[i], ones[i] = i+1, 1
		}
		enc.constrs = append(enc.constrs, solver.PBConstr{Lits: all, Weights: ones, AtLeast: 0})
	}

	return enc, nil
}

func (enc *encoding) newBit() int {
	enc.nbVars++
	return enc.nbVars
}

// relax returns the negated enforcement literals. Literals over fixed
// variables are dropped when true; live is false when one is always false.
func (enc *encoding) relax(enforce []literal) (lits []int, live bool) {
	for _, lit := range enforce {
		ids := enc.bits[lit.v]
		if len(ids) == 0 {
			if (enc.lo[lit.v] == 1) != lit.positive {
				return nil, false
			}
			continue
		}
		if lit.positive {
			lits = append(lits, -ids[0])
		} else {
			lits = append(lits, ids[0])
		}
	}
	return lits, true
}

// expand rewrites a linear expression over model variables as a sum over bits
// plus a constant
func (enc *encoding) expand(e expr) ([]bitTerm, int64) {
	offset := e.offset
	var terms []bitTerm
	for _, t := range e.terms {
		offset += t.c * enc.lo[t.v]
		for j, id := range enc.bits[t.v] {
			terms = append(terms, bitTerm{lit: id, weight: t.c << j})
		}
	}
	return terms, offset
}

// atLeast adds sum(terms) >= k, relaxed when any relax literal is true
func (enc *encoding) atLeast(terms []bitTerm, k int64, relax []int) {
	lits, weights, need := normalize(terms, k)
	if need <= 0 {
		return
	}
	if len(relax) > 0 {
		// a true relax literal covers the largest possible deficit
		all := append([]bitTerm(nil), terms...)
		for _, lit := range relax {
			all = append(all, bitTerm{lit: lit, weight: need})
		}
		lits, weights, need = normalize(all, k)
		if need <= 0 {
			return
		}
	}
	enc.constrs = append(enc.constrs, solver.PBConstr{Lits: lits, Weights: weights, AtLeast: int(need)})
}

// normalize merges terms over the same bit and rewrites negative weights over
// negated literals, so that sum(terms) >= k becomes sum(weights*lits) >= need
// with positive weights only
func normalize(terms []bitTerm, k int64) (lits []int, weights []int, need int64) {
	need = k
	index := make(map[int]int, len(terms))
	var ids []int
	var ws []int64
	for _, t := range terms {
		id, w := t.lit, t.weight
		if id < 0 {
			// w*not(x) = w - w*x
			id, w = -id, -w
			need -= t.weight
		}
		if at, ok := index[id]; ok {
			ws[at] += w
			continue
		}
		index[id] = len(ids)
		ids = append(ids, id)
		ws = append(ws, w)
	}
	for i, id := range ids {
		switch w := ws[i]; {
		case w > 0:
			lits = append(lits, id)
			weights = append(weights, int(w))
		case w < 0:
			// w*x = w + |w|*not(x)
			lits = append(lits, -id)
			weights = append(weights, int(-w))
			need -= w
		}
	}
	return lits, weights, need
}

// atMost adds sum(terms) <= k, relaxed when any relax literal is true
func (enc *encoding) atMost(terms []bitTerm, k int64, relax []int) {
	negated := make([]bitTerm, len(terms))
	for i, t := range terms {
		negated[i] = bitTerm{lit: t.lit, weight: -t.weight}
	}
	enc.atLeast(negated, -k, relax)
}

// addMax encodes target == max(exprs): target is at least every expression
// and at most one selected expression
func (enc *encoding) addMax(ct *constraintDef) error {
	if len(ct.exprs) == 0 {
		return fmt.Errorf("max over no expressions")
	}
	target, targetOffset := enc.expand(ct.target)

	selectors := make([]bitTerm, len(ct.exprs))
	for i, e := range ct.exprs {
		terms, offset := enc.expand(e)
		diff := append(append([]bitTerm(nil), target...), negate(terms)...)
		constant := targetOffset - offset

		enc.atLeast(diff, -constant, nil)

		selector := enc.newBit()
		selectors[i] = bitTerm{lit: selector, weight: 1}
		enc.atMost(diff, -constant, []int{-selector})
	}
	enc.atLeast(selectors, 1, nil)
	return nil
}

func negate(terms []bitTerm) []bitTerm {
	out := make([]bitTerm, len(terms))
	for i, t := range terms {
		out[i] = bitTerm{lit: t.lit, weight: -t.weight}
	}
	return out
}

// decode maps a gophersat model back to variable values
func (enc *encoding) decode(model []bool) []int64 {
	values := make([]int64, len(enc.lo))
	for v, ids := range enc.bits {
		value := enc.lo[v]
		for j, id := range ids {
			if model[id-1] {
				value += int64(1) << j
			}
		}
		values[v] = value
	}
	return values
}

func evalExpr(e expr, values []int64) int64 {
	value := e.offset
	for _, t := range e.terms {
		value += t.c * values[t.v]
	}
	return value
}

// check returns an error naming the first domain or constraint that values violate
func (m *Model) check(values []int64) error {
	for v, variable := range m.vars {
		if values[v] < variable.lo || values[v] > variable.hi {
			return fmt.Errorf("variable %s = %d is outside [%d, %d]", m.varName(VarIndex(v)), values[v], variable.lo, variable.hi)
		}
	}

	for i, ct := range m.constraints {
		switch ct.kind {
		case kindLinear:
			enforced := true
			for _, lit := range ct.enforce {
				if (values[lit.v] == 1) != lit.positive {
					enforced = false
					break
				}
			}
			value := evalExpr(ct.linear, values)
			if enforced && ((ct.lb != negInf && value < ct.lb) || (ct.ub != posInf && value > ct.ub)) {
				return fmt.Errorf("constraint %s is violated", m.constraintName(ConstrIndex(i)))
			}
		case kindMax:
			top := int64(negInf)
			for _, e := range ct.exprs {
				top = max(top, evalExpr(e, values))
			}
			if evalExpr(ct.target, values) != top {
				return fmt.Errorf("constraint %s is violated", m.constraintName(ConstrIndex(i)))
			}
		}
	}
	return nil
}
