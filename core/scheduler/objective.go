package scheduler

import "github.com/kilianp07/killchain/core/cp"

// addObjective defines makespan as the latest end over the last present
// slot of each target and minimises it. Targets without slots do not take
// part; with no slot at all the makespan is 0.
func (p *Problem) addObjective() {
	ends := make([]cp.IntVar, 0, len(p.lastSlot))
	for _, t := range p.Table.Targets() {
		if s, ok := p.lastSlot[t]; ok {
			ends = append(ends, p.Slots[s].End)
		}
	}
	p.Makespan = p.Model.NewIntVar(cp.NewDomain(0, p.Horizon), "makespan")
	p.Model.AddMaxEquality(p.Makespan, ends)
	p.Model.Minimize(p.Makespan)
}
