package scheduler

import (
	"fmt"
	"sort"

	"github.com/kilianp07/killchain/core/cp"
	"github.com/kilianp07/killchain/core/logger"
	"github.com/kilianp07/killchain/core/model"
)

// PhaseSlot is one target's pass through one phase.
type PhaseSlot struct {
	Target   model.TargetID
	Phase    model.PhaseID
	Start    cp.IntVar
	Duration cp.IntVar
	End      cp.IntVar
	Interval cp.IntervalVar
	// Alts indexes Problem.Alts, fastest alternative first.
	Alts []int
	// Prev is the index of the previous present slot of the target, or -1.
	Prev int
}

// AltInterval is the optional interval of one eligible platform for a slot.
type AltInterval struct {
	Slot        int
	Alternative model.Alternative
	Start       cp.IntVar
	End         cp.IntVar
	Presence    cp.BoolVar
	Interval    cp.IntervalVar
}

type slotKey struct {
	target model.TargetID
	phase  model.PhaseID
}

// Problem is the constraint model built for one assignment table together
// with the arena that maps model variables back to the domain.
type Problem struct {
	Table      *model.AssignmentTable
	Model      *cp.Model
	Horizon    int64
	LowerBound int64
	Slots      []PhaseSlot
	Alts       []AltInterval
	Makespan   cp.IntVar

	EmptySlots   int
	EmptyTargets []model.TargetID

	slotIndex map[slotKey]int
	timelines map[model.PlatformID][]int
	lastSlot  map[model.TargetID]int
}

// Slot returns the slot of (target, phase) if the phase is present.
func (p *Problem) Slot(target model.TargetID, phase model.PhaseID) (PhaseSlot, bool) {
	i, ok := p.slotIndex[slotKey{target, phase}]
	if !ok {
		return PhaseSlot{}, false
	}
	return p.Slots[i], true
}

// Timeline returns the alternative indices registered on a platform.
func (p *Problem) Timeline(platform model.PlatformID) []int {
	return p.timelines[platform]
}

// Builder constructs Problems. A Builder holds no per-run state and can be
// shared by concurrent runs.
type Builder struct {
	opts Options
	log  logger.Logger
}

// NewBuilder returns a Builder. A nil logger discards output.
func NewBuilder(opts Options, log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop{}
	}
	return &Builder{opts: opts, log: log}
}

// Horizon sums, over every (target, phase), the longest eligible duration.
func Horizon(table *model.AssignmentTable) int64 {
	var h int64
	for _, t := range table.Targets() {
		for _, ph := range table.Chain() {
			var longest int64
			for _, a := range table.Alternatives(t, ph.ID) {
				longest = max(longest, a.Duration)
			}
			h += longest
		}
	}
	return h
}

// Build translates the table into a constraint model.
func (b *Builder) Build(table *model.AssignmentTable) (*Problem, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil assignment table", ErrModelConstruction)
	}
	if err := b.opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelConstruction, err)
	}
	for _, s := range table.Skipped() {
		b.log.Debugw("skipping invalid alternative", map[string]any{
			"target": s.Target, "phase": s.Phase, "platform": s.Platform, "duration": s.Duration,
		})
	}

	horizon := Horizon(table)
	if horizon == 0 && table.Len() > 0 {
		return nil, fmt.Errorf("%w: horizon is 0 with %d eligible alternatives", ErrModelConstruction, table.Len())
	}
	if b.opts.MaxHorizon > 0 && b.opts.MaxHorizon < horizon {
		b.log.Infof("horizon capped from %d to %d", horizon, b.opts.MaxHorizon)
		horizon = b.opts.MaxHorizon
	}

	p := &Problem{
		Table:     table,
		Model:     cp.NewModel(),
		Horizon:   horizon,
		slotIndex: make(map[slotKey]int),
		timelines: make(map[model.PlatformID][]int),
		lastSlot:  make(map[model.TargetID]int),
	}
	for _, t := range table.Targets() {
		prev := -1
		for _, ph := range table.Chain() {
			alts := table.Alternatives(t, ph.ID)
			if len(alts) == 0 {
				p.EmptySlots++
				continue
			}
			prev = p.addSlot(t, ph.ID, alts, prev)
		}
		if prev < 0 {
			b.log.Warnf("target %d has no phase any platform can perform", t)
			p.EmptyTargets = append(p.EmptyTargets, t)
			continue
		}
		p.lastSlot[t] = prev
	}
	if err := p.addSamePlatformGroups(b.opts.SamePlatformGroups); err != nil {
		return nil, err
	}
	p.addTimelines()
	p.addObjective()

	lb, err := p.lowerBound()
	if err != nil {
		return nil, err
	}
	p.LowerBound = lb
	p.Model.SetLowerBoundHint(lb)

	if err := p.Model.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelConstruction, err)
	}
	stats := p.Model.Stats()
	b.log.Debugw("model built", map[string]any{
		"horizon":       p.Horizon,
		"lower_bound":   p.LowerBound,
		"slots":         len(p.Slots),
		"alternatives":  len(p.Alts),
		"empty_slots":   p.EmptySlots,
		"empty_targets": len(p.EmptyTargets),
		"variables":     stats.Variables,
		"constraints":   stats.Linears,
	})
	return p, nil
}

// addSlot creates the master interval, alternatives and precedence link of
// one slot and returns its index.
func (p *Problem) addSlot(target model.TargetID, phase model.PhaseID, alts []model.Alternative, prev int) int {
	m := p.Model
	horizon := cp.NewDomain(0, p.Horizon)
	suffix := fmt.Sprintf("_tgt%d_phase%d", target, phase)

	durations := make([]int64, len(alts))
	for i, a := range alts {
		durations[i] = a.Duration
	}
	slot := PhaseSlot{
		Target:   target,
		Phase:    phase,
		Start:    m.NewIntVar(horizon, "start"+suffix),
		Duration: m.NewIntVar(cp.DomainFromValues(durations...), "duration"+suffix),
		End:      m.NewIntVar(horizon, "end"+suffix),
		Prev:     prev,
	}
	slot.Interval = m.NewIntervalVar(slot.Start, slot.Duration, slot.End, m.TrueLiteral(), "interval"+suffix)
	if prev >= 0 {
		m.AddGreaterOrEqual(slot.Start, p.Slots[prev].End)
	}

	idx := len(p.Slots)
	ordered := append([]model.Alternative(nil), alts...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Duration < ordered[j].Duration })

	presences := make([]cp.BoolVar, 0, len(ordered))
	for _, a := range ordered {
		altSuffix := fmt.Sprintf("%s_plat%d", suffix, a.Platform)
		var presence cp.BoolVar
		if len(ordered) == 1 {
			presence = m.TrueLiteral()
		} else {
			presence = m.NewBoolVar("presence" + altSuffix)
		}
		alt := AltInterval{
			Slot:        idx,
			Alternative: a,
			Start:       m.NewIntVar(horizon, "start"+altSuffix),
			End:         m.NewIntVar(horizon, "end"+altSuffix),
			Presence:    presence,
		}
		alt.Interval = m.NewIntervalVar(alt.Start, m.NewConstant(a.Duration), alt.End, presence, "interval"+altSuffix)

		m.AddEquality(slot.Start, alt.Start).OnlyEnforceIf(presence)
		m.AddEqualityConst(slot.Duration, a.Duration).OnlyEnforceIf(presence)
		m.AddEquality(slot.End, alt.End).OnlyEnforceIf(presence)

		slot.Alts = append(slot.Alts, len(p.Alts))
		p.timelines[a.Platform] = append(p.timelines[a.Platform], len(p.Alts))
		p.Alts = append(p.Alts, alt)
		presences = append(presences, presence)
	}
	m.AddExactlyOne(presences...)

	p.Slots = append(p.Slots, slot)
	p.slotIndex[slotKey{target, phase}] = idx
	return idx
}

// presenceOn returns the presence flag of platform pl in a slot.
func (p *Problem) presenceOn(slot int, pl model.PlatformID) (cp.BoolVar, bool) {
	for _, ai := range p.Slots[slot].Alts {
		if p.Alts[ai].Alternative.Platform == pl {
			return p.Alts[ai].Presence, true
		}
	}
	return cp.BoolVar{}, false
}

// addSamePlatformGroups ties the platform choice of consecutive present
// slots of a target that belong to the same group.
func (p *Problem) addSamePlatformGroups(groups [][]model.PhaseID) error {
	for gi, group := range groups {
		members := make(map[model.PhaseID]bool, len(group))
		for _, ph := range group {
			if !p.Table.Chain().Has(ph) {
				return fmt.Errorf("%w: same platform group %d references unknown phase %d", ErrModelConstruction, gi, ph)
			}
			members[ph] = true
		}
		for _, t := range p.Table.Targets() {
			prev := -1
			for _, ph := range p.Table.Chain() {
				if !members[ph.ID] {
					continue
				}
				cur, ok := p.slotIndex[slotKey{t, ph.ID}]
				if !ok {
					continue
				}
				if prev >= 0 {
					p.tiePlatforms(prev, cur)
				}
				prev = cur
			}
		}
	}
	return nil
}

func (p *Problem) tiePlatforms(a, b int) {
	m := p.Model
	seen := make(map[model.PlatformID]bool)
	for _, s := range [2]int{a, b} {
		for _, ai := range p.Slots[s].Alts {
			seen[p.Alts[ai].Alternative.Platform] = true
		}
	}
	platforms := make([]model.PlatformID, 0, len(seen))
	for pl := range seen {
		platforms = append(platforms, pl)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	for _, pl := range platforms {
		la, okA := p.presenceOn(a, pl)
		lb, okB := p.presenceOn(b, pl)
		switch {
		case okA && okB:
			m.AddEquality(la.IntVar, lb.IntVar)
		case okA:
			m.AddEqualityConst(la.IntVar, 0)
		default:
			m.AddEqualityConst(lb.IntVar, 0)
		}
	}
}
