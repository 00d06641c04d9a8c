package model

import "sort"

// ScheduleResult is the realised assignment of one (target, phase) slot.
type ScheduleResult struct {
	Target   TargetID   `json:"target_id"`
	Phase    PhaseID    `json:"phase_id"`
	Platform PlatformID `json:"platform_id"`
	Start    int64      `json:"start"`
	Duration int64      `json:"duration"`
	End      int64      `json:"end"`
}

// Schedule is the read-only outcome of an extracted run.
type Schedule struct {
	RunID    string           `json:"run_id"`
	Status   string           `json:"status"`
	Makespan int64            `json:"makespan"`
	Optimal  bool             `json:"optimal"`
	Results  []ScheduleResult `json:"results"`
}

// SortResults orders results by (target, phase).
func SortResults(res []ScheduleResult) {
	sort.Slice(res, func(i, j int) bool {
		if res[i].Target != res[j].Target {
			return res[i].Target < res[j].Target
		}
		return res[i].Phase < res[j].Phase
	})
}

// ForTarget returns the results of one target in canonical phase order.
func (s Schedule) ForTarget(id TargetID) []ScheduleResult {
	var out []ScheduleResult
	for _, r := range s.Results {
		if r.Target == id {
			out = append(out, r)
		}
	}
	return out
}

// ByPlatform groups results per platform, each group sorted by start then end.
func (s Schedule) ByPlatform() map[PlatformID][]ScheduleResult {
	out := make(map[PlatformID][]ScheduleResult)
	for _, r := range s.Results {
		out[r.Platform] = append(out[r.Platform], r)
	}
	for _, rs := range out {
		sort.Slice(rs, func(i, j int) bool {
			if rs[i].Start != rs[j].Start {
				return rs[i].Start < rs[j].Start
			}
			return rs[i].End < rs[j].End
		})
	}
	return out
}

// CompletionTimes returns the end of the last phase of every scheduled target.
func (s Schedule) CompletionTimes() map[TargetID]int64 {
	out := make(map[TargetID]int64)
	for _, r := range s.Results {
		if r.End > out[r.Target] {
			out[r.Target] = r.End
		}
	}
	return out
}
