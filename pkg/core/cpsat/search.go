package cpsat

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

const (
	negInf = math.MinInt64
	posInf = math.MaxInt64

	// how often the search polls its context and node limit
	pollInterval = 256
)

type term struct {
	v int32
	c int64
}

type expr struct {
	terms  []term
	offset int64
}

func (e expr) negate() expr {
	out := expr{terms: make([]term, len(e.terms)), offset: -e.offset}
	for i, t := range e.terms {
		out.terms[i] = term{v: t.v, c: -t.c}
	}
	return out
}

// literal is true when variable v equals 1 (positive) or 0 (negated)
type literal struct {
	v        int32
	positive bool
}

// compiled is the read-only form of a model shared by every search worker
type compiled struct {
	lo, hi    []int64
	boolean   []bool
	cons      []*constraintDef
	watches   [][]int32
	objective *expr
	groups    [][]int32
	cutID     int32
}

func compile(m *Model) *compiled {
	n := len(m.vars)
	c := &compiled{
		lo:        make([]int64, n),
		hi:        make([]int64, n),
		boolean:   make([]bool, n),
		cons:      m.constraints,
		watches:   make([][]int32, n),
		objective: m.objective,
		cutID:     int32(len(m.constraints)),
	}
	for i, v := range m.vars {
		c.lo[i], c.hi[i], c.boolean[i] = v.lo, v.hi, v.boolean
	}

	watch := func(v int32, cid int32) {
		list := c.watches[v]
		if len(list) > 0 && list[len(list)-1] == cid {
			return
		}
		c.watches[v] = append(list, cid)
	}
	for i, ct := range m.constraints {
		cid := int32(i)
		switch ct.kind {
		case kindLinear:
			for _, t := range ct.linear.terms {
				watch(t.v, cid)
			}
			for _, lit := range ct.enforce {
				watch(lit.v, cid)
			}
		case kindMax:
			for _, t := range ct.target.terms {
				watch(t.v, cid)
			}
			for _, e := range ct.exprs {
				for _, t := range e.terms {
					watch(t.v, cid)
				}
			}
		}
	}
	if m.objective != nil {
		for _, t := range m.objective.terms {
			watch(t.v, c.cutID)
		}
	}

	// decision groups: explicit strategies first, then every remaining variable
	seen := make([]bool, n)
	for _, strategy := range m.strategies {
		group := make([]int32, 0, len(strategy))
		for _, v := range strategy {
			if !seen[v] {
				seen[v] = true
				group = append(group, int32(v))
			}
		}
		c.groups = append(c.groups, group)
	}
	rest := make([]int32, 0, n)
	for v := range n {
		if !seen[v] {
			rest = append(rest, int32(v))
		}
	}
	c.groups = append(c.groups, rest)
	return c
}

// incumbent is the best solution found so far, shared by all workers
type incumbent struct {
	mu        sync.Mutex
	values    []int64
	solutions int

	best atomic.Int64
	stop atomic.Bool
}

func newIncumbent() *incumbent {
	in := &incumbent{}
	in.best.Store(posInf)
	return in
}

// offer records a solution if it improves on the incumbent
func (in *incumbent) offer(objective int64, values []int64) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.values != nil && objective >= in.best.Load() {
		return false
	}
	in.values = append([]int64(nil), values...)
	in.solutions++
	in.best.Store(objective)
	return true
}

func (in *incumbent) snapshot() ([]int64, int64, int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.values, in.best.Load(), in.solutions
}

type change struct {
	v      int32
	lo, hi int64
}

// search is one depth-first branch-and-bound worker
type search struct {
	c      *compiled
	shared *incumbent
	ctx    context.Context

	lo, hi []int64
	trail  []change
	queue  []int32
	queued []bool
	order  []int32

	cutUB    int64
	seenBest int64

	nodes     int64
	nodeLimit int64
	limitHit  bool
}

func newSearch(ctx context.Context, c *compiled, shared *incumbent, worker int, params Parameters) *search {
	s := &search{
		c:         c,
		shared:    shared,
		ctx:       ctx,
		lo:        append([]int64(nil), c.lo...),
		hi:        append([]int64(nil), c.hi...),
		queued:    make([]bool, len(c.cons)+1),
		cutUB:     posInf,
		seenBest:  posInf,
		nodeLimit: params.NodeLimit,
	}

	var rng *rand.Rand
	if worker > 0 {
		rng = rand.New(rand.NewPCG(params.Seed, uint64(worker)))
	}
	for _, group := range c.groups {
		start := len(s.order)
		s.order = append(s.order, group...)
		if rng != nil {
			part := s.order[start:]
			rng.Shuffle(len(part), func(i, j int) { part[i], part[j] = part[j], part[i] })
		}
	}

	for cid := range s.queued {
		s.enqueue(int32(cid))
	}
	return s
}

// run explores the whole tree. It returns true if the tree was exhausted, which
// proves the shared incumbent optimal (or the model infeasible).
func (s *search) run() bool {
	stopped := s.dfs()
	return !stopped
}

// dfs returns true when the search must stop before exhausting the subtree
func (s *search) dfs() bool {
	if s.shouldStop() {
		return true
	}
	s.syncCut()
	if !s.propagate() {
		return false
	}

	v := s.pickVar()
	if v < 0 {
		return s.recordSolution()
	}

	mark := len(s.trail)
	lo := s.lo[v]
	if s.c.boolean[v] {
		// staffing a slot is tried before leaving it empty
		if s.setLo(v, 1) && s.dfs() {
			return true
		}
		s.undo(mark)
		if s.setHi(v, 0) && s.dfs() {
			return true
		}
		s.undo(mark)
		return false
	}

	if s.setHi(v, lo) && s.dfs() {
		return true
	}
	s.undo(mark)
	if s.setLo(v, lo+1) && s.dfs() {
		return true
	}
	s.undo(mark)
	return false
}

func (s *search) shouldStop() bool {
	s.nodes++
	if s.shared.stop.Load() {
		return true
	}
	if s.nodeLimit > 0 && s.nodes > s.nodeLimit {
		s.limitHit = true
		return true
	}
	if s.nodes%pollInterval == 1 && s.ctx.Err() != nil {
		s.limitHit = true
		return true
	}
	return false
}

// syncCut tightens the objective cut when any worker has improved the incumbent
func (s *search) syncCut() {
	if s.c.objective == nil {
		return
	}
	best := s.shared.best.Load()
	if best == s.seenBest {
		return
	}
	s.seenBest = best
	s.cutUB = best - 1 - s.c.objective.offset
	s.enqueue(s.c.cutID)
}

func (s *search) recordSolution() bool {
	if s.c.objective == nil {
		s.shared.offer(0, s.lo)
		s.shared.stop.Store(true)
		return true
	}
	value := s.c.objective.offset
	for _, t := range s.c.objective.terms {
		value += t.c * s.lo[t.v]
	}
	s.shared.offer(value, s.lo)
	return false
}

func (s *search) pickVar() int32 {
	for _, v := range s.order {
		if s.lo[v] < s.hi[v] {
			return v
		}
	}
	return -1
}

func (s *search) enqueue(cid int32) {
	if s.queued[cid] {
		return
	}
	s.queued[cid] = true
	s.queue = append(s.queue, cid)
}

func (s *search) clearQueue() {
	for _, cid := range s.queue {
		s.queued[cid] = false
	}
	s.queue = s.queue[:0]
}

func (s *search) changed(v int32, oldLo, oldHi int64) {
	s.trail = append(s.trail, change{v: v, lo: oldLo, hi: oldHi})
	for _, cid := range s.c.watches[v] {
		s.enqueue(cid)
	}
}

// setLo raises the lower bound of v; false means the domain became empty
func (s *search) setLo(v int32, x int64) bool {
	lo, hi := s.lo[v], s.hi[v]
	if x <= lo {
		return true
	}
	if x > hi {
		return false
	}
	s.lo[v] = x
	s.changed(v, lo, hi)
	return true
}

// setHi lowers the upper bound of v; false means the domain became empty
func (s *search) setHi(v int32, x int64) bool {
	lo, hi := s.lo[v], s.hi[v]
	if x >= hi {
		return true
	}
	if x < lo {
		return false
	}
	s.hi[v] = x
	s.changed(v, lo, hi)
	return true
}

func (s *search) undo(mark int) {
	for i := len(s.trail) - 1; i >= mark; i-- {
		ch := s.trail[i]
		s.lo[ch.v], s.hi[ch.v] = ch.lo, ch.hi
	}
	s.trail = s.trail[:mark]
	s.clearQueue()
	// the cut may have tightened below this level; re-apply it on the next node
	s.seenBest = posInf
}

func (s *search) propagate() bool {
	for len(s.queue) > 0 {
		cid := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]
		s.queued[cid] = false
		if !s.propagateConstraint(cid) {
			s.clearQueue()
			return false
		}
	}
	return true
}

func (s *search) propagateConstraint(cid int32) bool {
	if cid == s.c.cutID {
		if s.cutUB == posInf {
			return true
		}
		return s.tighten(s.c.objective.terms, negInf, s.cutUB)
	}
	ct := s.c.cons[cid]
	if ct.kind == kindMax {
		return s.propagateMax(ct)
	}
	return s.propagateLinear(ct)
}

func (s *search) propagateLinear(ct *constraintDef) bool {
	unfixed, open := -1, 0
	for i, lit := range ct.enforce {
		lo, hi := s.lo[lit.v], s.hi[lit.v]
		if lo == hi {
			if (lo == 1) != lit.positive {
				// a false enforcement literal disables the constraint
				return true
			}
			continue
		}
		open++
		unfixed = i
	}

	if open == 0 {
		return s.tighten(ct.linear.terms, ct.lb, ct.ub)
	}
	if open > 1 {
		return true
	}

	// every other literal holds, so a violated constraint falsifies the last one
	mn, mx := s.activity(ct.linear.terms)
	if (ct.ub != posInf && mn > ct.ub) || (ct.lb != negInf && mx < ct.lb) {
		lit := ct.enforce[unfixed]
		if lit.positive {
			return s.setHi(lit.v, 0)
		}
		return s.setLo(lit.v, 1)
	}
	return true
}

func (s *search) propagateMax(ct *constraintDef) bool {
	lower, upper := int64(negInf), int64(negInf)
	for _, e := range ct.exprs {
		mn, mx := s.exprBounds(e)
		lower = max(lower, mn)
		upper = max(upper, mx)
	}

	// max(mins) <= target <= max(maxes)
	if !s.tighten(ct.target.terms, lower-ct.target.offset, upper-ct.target.offset) {
		return false
	}
	tmn, tmx := s.exprBounds(ct.target)

	support, count := -1, 0
	for i, e := range ct.exprs {
		if !s.tighten(e.terms, negInf, tmx-e.offset) {
			return false
		}
		if _, mx := s.exprBounds(e); mx >= tmn {
			support = i
			count++
		}
	}
	if count == 0 {
		return false
	}
	if count == 1 {
		e := ct.exprs[support]
		return s.tighten(e.terms, tmn-e.offset, posInf)
	}
	return true
}

func (s *search) activity(terms []term) (int64, int64) {
	var mn, mx int64
	for _, t := range terms {
		lo, hi := s.lo[t.v], s.hi[t.v]
		if t.c > 0 {
			mn += t.c * lo
			mx += t.c * hi
		} else {
			mn += t.c * hi
			mx += t.c * lo
		}
	}
	return mn, mx
}

func (s *search) exprBounds(e expr) (int64, int64) {
	mn, mx := s.activity(e.terms)
	return mn + e.offset, mx + e.offset
}

// tighten enforces lb <= sum(terms) <= ub on the variable bounds.
// Infinite bounds are passed as negInf/posInf.
func (s *search) tighten(terms []term, lb, ub int64) bool {
	mn, mx := s.activity(terms)
	if ub != posInf && mn > ub {
		return false
	}
	if lb != negInf && mx < lb {
		return false
	}

	for _, t := range terms {
		lo, hi := s.lo[t.v], s.hi[t.v]
		if lo == hi {
			continue
		}
		if t.c > 0 {
			tmin, tmax := t.c*lo, t.c*hi
			if ub != posInf && !s.setHi(t.v, floorDiv(ub-(mn-tmin), t.c)) {
				return false
			}
			if lb != negInf && !s.setLo(t.v, ceilDiv(lb-(mx-tmax), t.c)) {
				return false
			}
			continue
		}
		tmin, tmax := t.c*hi, t.c*lo
		if ub != posInf && !s.setLo(t.v, ceilDiv(ub-(mn-tmin), t.c)) {
			return false
		}
		if lb != negInf && !s.setHi(t.v, floorDiv(lb-(mx-tmax), t.c)) {
			return false
		}
	}
	return true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}
