package search

import (
	"context"
	"time"

	"github.com/kilianp07/killchain/core/cp"
)

// order states that interval before ends no later than interval after starts.
type order struct {
	before, after int
}

type node struct {
	lo, hi []int64
	orders []order
}

func (n *node) clone() *node {
	c := &node{
		lo:     append([]int64(nil), n.lo...),
		hi:     append([]int64(nil), n.hi...),
		orders: n.orders[:len(n.orders):len(n.orders)],
	}
	return c
}

func (n *node) fixed(i int) bool { return n.lo[i] == n.hi[i] }

type search struct {
	ctx     context.Context
	model   *cp.Model
	budget  cp.Budget
	notify  func(cp.Progress)
	now     func() time.Time
	started time.Time

	domains  []cp.Domain
	bools    []int
	objIdx   int
	hasObj   bool
	linears  []cp.Linear
	groups   [][]int
	ivs      []cp.Interval
	maxEqs   []cp.MaxEquality
	exactOne [][]cp.BoolVar

	nodes     int64
	failures  int64
	solutions int
	best      int64
	bound     int64
	incumbent []int64
	stopped   bool
	done      bool
}

func newSearch(ctx context.Context, req cp.Request, now func() time.Time) *search {
	m := req.Model
	s := &search{
		ctx:      ctx,
		model:    m,
		budget:   req.Budget,
		notify:   req.OnSolution,
		now:      now,
		started:  now(),
		linears:  m.Linears(),
		ivs:      m.Intervals(),
		maxEqs:   m.MaxEqualities(),
		exactOne: m.ExactlyOnes(),
	}
	s.domains = make([]cp.Domain, m.NumVars())
	for i := range s.domains {
		d := m.DomainAt(i)
		s.domains[i] = d
		if d.Min() >= 0 && d.Max() <= 1 && d.Min() != d.Max() {
			s.bools = append(s.bools, i)
		}
	}
	for _, g := range m.NoOverlaps() {
		idx := make([]int, len(g))
		for i, iv := range g {
			idx[i] = iv.Index()
		}
		s.groups = append(s.groups, idx)
	}
	if obj, ok := m.Objective(); ok {
		s.objIdx = obj.Index()
		s.hasObj = true
	}
	return s
}

func (s *search) rootNode() *node {
	n := &node{lo: make([]int64, len(s.domains)), hi: make([]int64, len(s.domains))}
	for i, d := range s.domains {
		n.lo[i] = d.Min()
		n.hi[i] = d.Max()
	}
	return n
}

func (s *search) run(root *node) {
	if s.hasObj {
		if hint := s.model.LowerBoundHint(); hint > root.lo[s.objIdx] {
			if !s.setLo(root, s.objIdx, hint) {
				return
			}
		}
	}
	if !s.propagate(root) {
		s.failures++
		return
	}
	if s.hasObj {
		s.bound = root.lo[s.objIdx]
	}
	s.dfs(root, false)
}

func (s *search) budgetExceeded() bool {
	if s.stopped {
		return true
	}
	if s.budget.NodeLimit > 0 && s.nodes >= s.budget.NodeLimit {
		s.stopped = true
	} else if s.budget.TimeLimit > 0 && s.now().Sub(s.started) >= s.budget.TimeLimit {
		s.stopped = true
	} else if s.nodes%64 == 0 && s.ctx.Err() != nil {
		s.stopped = true
	}
	return s.stopped
}

// dfs explores n. propagated tells whether n is already at fixpoint.
func (s *search) dfs(n *node, propagated bool) {
	if s.done || s.budgetExceeded() {
		return
	}
	s.nodes++
	if s.hasObj && s.solutions > 0 {
		if !s.setHi(n, s.objIdx, s.best-1) {
			s.failures++
			return
		}
		propagated = false
	}
	if !propagated && !s.propagate(n) {
		s.failures++
		return
	}

	if b, ok := s.pickBool(n); ok {
		for _, v := range [2]int64{1, 0} {
			c := n.clone()
			c.lo[b], c.hi[b] = v, v
			s.dfs(c, false)
			if s.done || s.stopped {
				return
			}
		}
		return
	}

	if a, b, ok := s.pickPair(n); ok {
		for _, o := range [2]order{{a, b}, {b, a}} {
			c := n.clone()
			c.orders = append(c.orders, o)
			s.dfs(c, false)
			if s.done || s.stopped {
				return
			}
		}
		return
	}

	if s.satisfied(n.lo) {
		s.record(n.lo)
		return
	}

	x, ok := s.pickInt(n)
	if !ok {
		s.failures++
		return
	}
	left := n.clone()
	left.hi[x] = left.lo[x]
	s.dfs(left, false)
	if s.done || s.stopped {
		return
	}
	right := n.clone()
	if !s.setLo(right, x, right.lo[x]+1) {
		s.failures++
		return
	}
	s.dfs(right, false)
}

func (s *search) record(vals []int64) {
	s.solutions++
	s.incumbent = append([]int64(nil), vals...)
	if !s.hasObj {
		s.done = true
		return
	}
	s.best = vals[s.objIdx]
	if s.notify != nil {
		s.notify(cp.Progress{
			Elapsed:   s.now().Sub(s.started),
			Bound:     s.bound,
			Objective: s.best,
			Solutions: s.solutions,
		})
	}
	if s.best <= s.bound {
		s.done = true
	}
}

func (s *search) pickBool(n *node) (int, bool) {
	for _, b := range s.bools {
		if !n.fixed(b) {
			return b, true
		}
	}
	return 0, false
}

// pickPair returns the first pair of present intervals of a group whose
// relative order is still open, preferring the earliest possible start.
func (s *search) pickPair(n *node) (int, int, bool) {
	bestA, bestB := -1, -1
	var bestStart int64
	for _, g := range s.groups {
		for i := 0; i < len(g); i++ {
			a := s.ivs[g[i]]
			if n.lo[a.Presence.Index()] != 1 {
				continue
			}
			for j := i + 1; j < len(g); j++ {
				b := s.ivs[g[j]]
				if n.lo[b.Presence.Index()] != 1 {
					continue
				}
				if s.ordered(n, g[i], g[j]) {
					continue
				}
				start := min(n.lo[a.Start.Index()], n.lo[b.Start.Index()])
				if bestA < 0 || start < bestStart {
					bestA, bestB, bestStart = g[i], g[j], start
				}
			}
		}
	}
	if bestA < 0 {
		return 0, 0, false
	}
	// try the interval that can start first as the earlier one
	if n.lo[s.ivs[bestB].Start.Index()] < n.lo[s.ivs[bestA].Start.Index()] {
		bestA, bestB = bestB, bestA
	}
	return bestA, bestB, true
}

// ordered reports whether the bounds already separate the two intervals.
func (s *search) ordered(n *node, a, b int) bool {
	ia, ib := s.ivs[a], s.ivs[b]
	if n.hi[ia.End.Index()] <= n.lo[ib.Start.Index()] {
		return true
	}
	if n.hi[ib.End.Index()] <= n.lo[ia.Start.Index()] {
		return true
	}
	for _, o := range n.orders {
		if (o.before == a && o.after == b) || (o.before == b && o.after == a) {
			return true
		}
	}
	return false
}

func (s *search) pickInt(n *node) (int, bool) {
	for i := range n.lo {
		if !n.fixed(i) {
			return i, true
		}
	}
	return 0, false
}
