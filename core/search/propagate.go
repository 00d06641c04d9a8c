package search

import "github.com/kilianp07/killchain/core/cp"

// setLo raises the lower bound of x to the first domain value >= v.
func (s *search) setLo(n *node, x int, v int64) bool {
	if v <= n.lo[x] {
		return true
	}
	c, ok := s.domains[x].Ceil(v)
	if !ok || c > n.hi[x] {
		return false
	}
	n.lo[x] = c
	return true
}

// setHi lowers the upper bound of x to the last domain value <= v.
func (s *search) setHi(n *node, x int, v int64) bool {
	if v >= n.hi[x] {
		return true
	}
	f, ok := s.domains[x].Floor(v)
	if !ok || f < n.lo[x] {
		return false
	}
	n.hi[x] = f
	return true
}

// propagate runs every propagator until no bound moves. It returns false on
// a wipe-out.
func (s *search) propagate(n *node) bool {
	for {
		before := s.fingerprint(n)
		for i := range s.linears {
			if !s.propagateLinear(n, &s.linears[i]) {
				return false
			}
		}
		for _, set := range s.exactOne {
			if !s.propagateExactlyOne(n, set) {
				return false
			}
		}
		for _, g := range s.groups {
			if !s.propagateNoOverlap(n, g) {
				return false
			}
		}
		for _, o := range n.orders {
			if !s.propagateOrder(n, o) {
				return false
			}
		}
		for _, me := range s.maxEqs {
			if !s.propagateMax(n, me) {
				return false
			}
		}
		if s.fingerprint(n) == before {
			return true
		}
	}
}

// fingerprint is the sum of domain widths; it strictly decreases whenever a
// bound moves.
func (s *search) fingerprint(n *node) int64 {
	var w int64
	for i := range n.lo {
		w += n.hi[i] - n.lo[i]
	}
	return w
}

func (s *search) propagateLinear(n *node, l *cp.Linear) bool {
	unfixed := -1
	for _, lit := range l.Enforce {
		i := lit.Index()
		switch {
		case n.hi[i] == 0:
			return true
		case n.lo[i] == 0:
			if unfixed >= 0 {
				return true
			}
			unfixed = i
		}
	}
	if unfixed >= 0 {
		if s.linearViolated(n, l) {
			return s.setHi(n, unfixed, 0)
		}
		return true
	}
	switch l.Op {
	case cp.LessOrEqual:
		return s.propagateLE(n, l.Terms, 1, l.RHS)
	case cp.GreaterOrEqual:
		return s.propagateLE(n, l.Terms, -1, -l.RHS)
	default:
		return s.propagateLE(n, l.Terms, 1, l.RHS) && s.propagateLE(n, l.Terms, -1, -l.RHS)
	}
}

func (s *search) activity(n *node, terms []cp.Term, sign int64) (lo, hi int64) {
	for _, t := range terms {
		a := t.Coeff * sign
		x := t.Var.Index()
		if a >= 0 {
			lo += a * n.lo[x]
			hi += a * n.hi[x]
		} else {
			lo += a * n.hi[x]
			hi += a * n.lo[x]
		}
	}
	return lo, hi
}

func (s *search) linearViolated(n *node, l *cp.Linear) bool {
	lo, hi := s.activity(n, l.Terms, 1)
	switch l.Op {
	case cp.LessOrEqual:
		return lo > l.RHS
	case cp.GreaterOrEqual:
		return hi < l.RHS
	default:
		return lo > l.RHS || hi < l.RHS
	}
}

// propagateLE enforces sum(sign * coeff * x) <= rhs.
func (s *search) propagateLE(n *node, terms []cp.Term, sign, rhs int64) bool {
	minAct, _ := s.activity(n, terms, sign)
	if minAct > rhs {
		return false
	}
	for _, t := range terms {
		a := t.Coeff * sign
		if a == 0 {
			continue
		}
		x := t.Var.Index()
		var own int64
		if a > 0 {
			own = a * n.lo[x]
		} else {
			own = a * n.hi[x]
		}
		slack := rhs - (minAct - own)
		if a > 0 {
			if !s.setHi(n, x, floorDiv(slack, a)) {
				return false
			}
		} else {
			if !s.setLo(n, x, ceilDiv(slack, a)) {
				return false
			}
		}
	}
	return true
}

func (s *search) propagateExactlyOne(n *node, set []cp.BoolVar) bool {
	trueCount, open := 0, -1
	openCount := 0
	for _, b := range set {
		i := b.Index()
		switch {
		case n.lo[i] == 1:
			trueCount++
		case n.hi[i] == 1:
			openCount++
			open = i
		}
	}
	switch {
	case trueCount > 1:
		return false
	case trueCount == 1:
		for _, b := range set {
			i := b.Index()
			if n.lo[i] == 0 && !s.setHi(n, i, 0) {
				return false
			}
		}
	case openCount == 0:
		return false
	case openCount == 1:
		return s.setLo(n, open, 1)
	}
	return true
}

// propagateNoOverlap applies pairwise disjunctive reasoning to present intervals.
func (s *search) propagateNoOverlap(n *node, group []int) bool {
	for i := 0; i < len(group); i++ {
		a := s.ivs[group[i]]
		if n.lo[a.Presence.Index()] != 1 {
			continue
		}
		for j := i + 1; j < len(group); j++ {
			b := s.ivs[group[j]]
			if n.lo[b.Presence.Index()] != 1 {
				continue
			}
			aFirst := n.lo[a.End.Index()] <= n.hi[b.Start.Index()]
			bFirst := n.lo[b.End.Index()] <= n.hi[a.Start.Index()]
			switch {
			case !aFirst && !bFirst:
				return false
			case !bFirst:
				if !s.precede(n, a, b) {
					return false
				}
			case !aFirst:
				if !s.precede(n, b, a) {
					return false
				}
			}
		}
	}
	return true
}

func (s *search) propagateOrder(n *node, o order) bool {
	a, b := s.ivs[o.before], s.ivs[o.after]
	if n.hi[a.Presence.Index()] == 0 || n.hi[b.Presence.Index()] == 0 {
		return true
	}
	if n.lo[a.Presence.Index()] != 1 || n.lo[b.Presence.Index()] != 1 {
		return true
	}
	return s.precede(n, a, b)
}

// precede enforces a.End <= b.Start on bounds.
func (s *search) precede(n *node, a, b cp.Interval) bool {
	return s.setLo(n, b.Start.Index(), n.lo[a.End.Index()]) &&
		s.setHi(n, a.End.Index(), n.hi[b.Start.Index()])
}

func (s *search) propagateMax(n *node, me cp.MaxEquality) bool {
	t := me.Target.Index()
	if len(me.Vars) == 0 {
		return s.setLo(n, t, 0) && s.setHi(n, t, 0)
	}
	maxLo, maxHi := n.lo[me.Vars[0].Index()], n.hi[me.Vars[0].Index()]
	for _, v := range me.Vars[1:] {
		maxLo = max(maxLo, n.lo[v.Index()])
		maxHi = max(maxHi, n.hi[v.Index()])
	}
	if !s.setLo(n, t, maxLo) || !s.setHi(n, t, maxHi) {
		return false
	}
	support, supports := -1, 0
	for _, v := range me.Vars {
		i := v.Index()
		if !s.setHi(n, i, n.hi[t]) {
			return false
		}
		if n.hi[i] >= n.lo[t] {
			support = i
			supports++
		}
	}
	switch supports {
	case 0:
		return false
	case 1:
		return s.setLo(n, support, n.lo[t])
	}
	return true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}
