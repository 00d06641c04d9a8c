package scheduler

import (
	"errors"
	"fmt"

	"github.com/kilianp07/killchain/core/model"
)

// Verify checks a schedule against the table it was solved for: every
// present (target, phase) has exactly one result on an eligible platform with
// the table duration, phases of a target run in chain order, no platform
// runs overlapping assignments and the makespan is the latest completion.
// All violations are joined in the returned error.
func Verify(table *model.AssignmentTable, s model.Schedule) error {
	var errs []error
	seen := make(map[slotKey]model.ScheduleResult, len(s.Results))
	for _, r := range s.Results {
		k := slotKey{r.Target, r.Phase}
		if _, dup := seen[k]; dup {
			errs = append(errs, fmt.Errorf("target %d phase %d scheduled twice", r.Target, r.Phase))
			continue
		}
		seen[k] = r
		d, ok := table.Duration(r.Target, r.Phase, r.Platform)
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("target %d phase %d: platform %d not eligible", r.Target, r.Phase, r.Platform))
		case d != r.Duration:
			errs = append(errs, fmt.Errorf("target %d phase %d: duration %d, table says %d", r.Target, r.Phase, r.Duration, d))
		}
		if r.End != r.Start+r.Duration {
			errs = append(errs, fmt.Errorf("target %d phase %d: end %d != start %d + duration %d", r.Target, r.Phase, r.End, r.Start, r.Duration))
		}
		if r.Start < 0 {
			errs = append(errs, fmt.Errorf("target %d phase %d: negative start %d", r.Target, r.Phase, r.Start))
		}
	}

	var latest int64
	for _, t := range table.Targets() {
		var prev *model.ScheduleResult
		for _, ph := range table.Chain().IDs() {
			present := len(table.Alternatives(t, ph)) > 0
			r, ok := seen[slotKey{t, ph}]
			switch {
			case present && !ok:
				errs = append(errs, fmt.Errorf("target %d phase %d: missing", t, ph))
				continue
			case !present && ok:
				errs = append(errs, fmt.Errorf("target %d phase %d: scheduled without eligible platform", t, ph))
				continue
			case !ok:
				continue
			}
			if prev != nil && r.Start < prev.End {
				errs = append(errs, fmt.Errorf("target %d: phase %d starts at %d before phase %d ends at %d", t, ph, r.Start, prev.Phase, prev.End))
			}
			if r.End > latest {
				latest = r.End
			}
			prev = &r
		}
	}
	if s.Makespan != latest {
		errs = append(errs, fmt.Errorf("makespan %d, latest completion %d", s.Makespan, latest))
	}

	for pl, rs := range s.ByPlatform() {
		last := 0
		for i := 1; i < len(rs); i++ {
			if rs[i].Start < rs[last].End {
				errs = append(errs, fmt.Errorf("platform %d: target %d phase %d overlaps target %d phase %d",
					pl, rs[i].Target, rs[i].Phase, rs[last].Target, rs[last].Phase))
			}
			if rs[i].End > rs[last].End {
				last = i
			}
		}
	}
	return errors.Join(errs...)
}
