package search

import "github.com/kilianp07/killchain/core/cp"

// satisfied verifies a complete assignment against every constraint.
func (s *search) satisfied(vals []int64) bool {
	for i, d := range s.domains {
		if !d.Contains(vals[i]) {
			return false
		}
	}
	for i := range s.linears {
		if !linearHolds(&s.linears[i], vals) {
			return false
		}
	}
	for _, set := range s.exactOne {
		count := 0
		for _, b := range set {
			if vals[b.Index()] == 1 {
				count++
			}
		}
		if count != 1 {
			return false
		}
	}
	for _, g := range s.groups {
		for i := 0; i < len(g); i++ {
			a := s.ivs[g[i]]
			if vals[a.Presence.Index()] != 1 {
				continue
			}
			for j := i + 1; j < len(g); j++ {
				b := s.ivs[g[j]]
				if vals[b.Presence.Index()] != 1 {
					continue
				}
				if vals[a.End.Index()] > vals[b.Start.Index()] && vals[b.End.Index()] > vals[a.Start.Index()] {
					return false
				}
			}
		}
	}
	for _, me := range s.maxEqs {
		var m int64
		for k, v := range me.Vars {
			if k == 0 || vals[v.Index()] > m {
				m = vals[v.Index()]
			}
		}
		if vals[me.Target.Index()] != m {
			return false
		}
	}
	return true
}

func linearHolds(l *cp.Linear, vals []int64) bool {
	for _, lit := range l.Enforce {
		if vals[lit.Index()] == 0 {
			return true
		}
	}
	var sum int64
	for _, t := range l.Terms {
		sum += t.Coeff * vals[t.Var.Index()]
	}
	switch l.Op {
	case cp.LessOrEqual:
		return sum <= l.RHS
	case cp.GreaterOrEqual:
		return sum >= l.RHS
	default:
		return sum == l.RHS
	}
}
