package scheduler

import (
	"fmt"

	"github.com/kilianp07/killchain/core/cp"
	"github.com/kilianp07/killchain/core/model"
)

// Extract reads a solved response back into a schedule. It must only be
// called for responses carrying values.
func Extract(p *Problem, resp cp.Response) (model.Schedule, error) {
	if !resp.Status.HasSolution() {
		return model.Schedule{}, fmt.Errorf("extract from %s response", resp.Status)
	}
	if len(resp.Values) != p.Model.NumVars() {
		return model.Schedule{}, fmt.Errorf("%w: %d values for %d variables", ErrSolver, len(resp.Values), p.Model.NumVars())
	}
	sched := model.Schedule{
		Status:   resp.Status.String(),
		Makespan: resp.Value(p.Makespan),
		Optimal:  resp.Status == cp.StatusOptimal,
		Results:  make([]model.ScheduleResult, 0, len(p.Slots)),
	}
	for _, s := range p.Slots {
		chosen := -1
		for _, ai := range s.Alts {
			if !resp.BoolValue(p.Alts[ai].Presence) {
				continue
			}
			if chosen >= 0 {
				return model.Schedule{}, fmt.Errorf("target %d phase %d: %w", s.Target, s.Phase, ErrInconsistentSolution)
			}
			chosen = ai
		}
		if chosen < 0 {
			return model.Schedule{}, fmt.Errorf("target %d phase %d: %w", s.Target, s.Phase, ErrInconsistentSolution)
		}
		alt := p.Alts[chosen].Alternative
		sched.Results = append(sched.Results, model.ScheduleResult{
			Target:   s.Target,
			Phase:    s.Phase,
			Platform: alt.Platform,
			Start:    resp.Value(s.Start),
			Duration: alt.Duration,
			End:      resp.Value(s.End),
		})
	}
	model.SortResults(sched.Results)
	return sched, nil
}
