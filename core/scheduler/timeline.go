package scheduler

import "github.com/kilianp07/killchain/core/cp"

// addTimelines posts one no-overlap constraint per platform carrying at
// least two alternatives. Absent alternatives carry no obligation.
func (p *Problem) addTimelines() {
	for _, pl := range p.Table.Platforms() {
		alts := p.timelines[pl]
		if len(alts) < 2 {
			continue
		}
		ivs := make([]cp.IntervalVar, len(alts))
		for i, ai := range alts {
			ivs[i] = p.Alts[ai].Interval
		}
		p.Model.AddNoOverlap(ivs...)
	}
}
