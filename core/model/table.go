package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
)

// Ineligible marks a (target, phase, platform) triple the platform cannot perform.
const Ineligible = -1

// ErrUnknownPhase is returned when a table entry references a phase outside the chain.
var ErrUnknownPhase = errors.New("phase not in kill chain")

// Key identifies one cell of the assignment table.
type Key struct {
	Target   TargetID
	Phase    PhaseID
	Platform PlatformID
}

// Alternative is one way of realising a (target, phase) slot.
type Alternative struct {
	Target   TargetID   `json:"target"`
	Phase    PhaseID    `json:"phase"`
	Platform PlatformID `json:"platform"`
	Duration int64      `json:"duration"`
}

// AssignmentTable maps (target, phase, platform) to a processing duration.
// It is immutable once built and safe for concurrent readers.
type AssignmentTable struct {
	chain     KillChain
	targets   []TargetID
	platforms []PlatformID
	durations map[Key]int64
	skipped   []Alternative
}

// Chain returns the canonical phase order.
func (t *AssignmentTable) Chain() KillChain { return t.chain }

// Targets returns target ids in ascending order.
func (t *AssignmentTable) Targets() []TargetID { return t.targets }

// Platforms returns platform ids in ascending order.
func (t *AssignmentTable) Platforms() []PlatformID { return t.platforms }

// Duration returns the duration for the triple and whether it is eligible.
func (t *AssignmentTable) Duration(target TargetID, phase PhaseID, platform PlatformID) (int64, bool) {
	d, ok := t.durations[Key{Target: target, Phase: phase, Platform: platform}]
	return d, ok
}

// Alternatives lists the eligible platforms of a slot in ascending platform order.
func (t *AssignmentTable) Alternatives(target TargetID, phase PhaseID) []Alternative {
	var alts []Alternative
	for _, p := range t.platforms {
		if d, ok := t.Duration(target, phase, p); ok {
			alts = append(alts, Alternative{Target: target, Phase: phase, Platform: p, Duration: d})
		}
	}
	return alts
}

// Len returns the number of eligible alternatives.
func (t *AssignmentTable) Len() int { return len(t.durations) }

// Skipped returns entries rejected at build time because of a negative duration.
func (t *AssignmentTable) Skipped() []Alternative { return t.skipped }

// Fingerprint is a stable digest of the table content.
func (t *AssignmentTable) Fingerprint() string {
	keys := make([]Key, 0, len(t.durations))
	for k := range t.durations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	h := sha256.New()
	buf := make([]byte, 8)
	put := func(v int64) {
		binary.BigEndian.PutUint64(buf, uint64(v))
		h.Write(buf)
	}
	for _, p := range t.chain {
		put(int64(p.ID))
	}
	for _, id := range t.targets {
		put(int64(id))
	}
	for _, id := range t.platforms {
		put(int64(id))
	}
	for _, k := range keys {
		put(int64(k.Target))
		put(int64(k.Phase))
		put(int64(k.Platform))
		put(t.durations[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (k Key) less(o Key) bool {
	if k.Target != o.Target {
		return k.Target < o.Target
	}
	if k.Phase != o.Phase {
		return k.Phase < o.Phase
	}
	return k.Platform < o.Platform
}

// TableBuilder accumulates entries before freezing them into an AssignmentTable.
type TableBuilder struct {
	chain     KillChain
	targets   map[TargetID]struct{}
	platforms map[PlatformID]struct{}
	durations map[Key]int64
	skipped   []Alternative
}

// NewTableBuilder starts a table for the given kill chain.
func NewTableBuilder(chain KillChain) *TableBuilder {
	return &TableBuilder{
		chain:     chain,
		targets:   make(map[TargetID]struct{}),
		platforms: make(map[PlatformID]struct{}),
		durations: make(map[Key]int64),
	}
}

// AddTarget declares a target even if it has no eligible entry.
func (b *TableBuilder) AddTarget(id TargetID) *TableBuilder {
	b.targets[id] = struct{}{}
	return b
}

// AddPlatform declares a platform even if it has no eligible entry.
func (b *TableBuilder) AddPlatform(id PlatformID) *TableBuilder {
	b.platforms[id] = struct{}{}
	return b
}

// Set records the duration of a triple. Negative durations are kept aside as
// skipped entries and never become eligible.
func (b *TableBuilder) Set(target TargetID, phase PhaseID, platform PlatformID, duration int64) *TableBuilder {
	b.AddTarget(target)
	b.AddPlatform(platform)
	k := Key{Target: target, Phase: phase, Platform: platform}
	if duration < 0 {
		delete(b.durations, k)
		b.skipped = append(b.skipped, Alternative{Target: target, Phase: phase, Platform: platform, Duration: duration})
		return b
	}
	b.durations[k] = duration
	return b
}

// Build validates and freezes the table.
func (b *TableBuilder) Build() (*AssignmentTable, error) {
	if err := b.chain.Validate(); err != nil {
		return nil, err
	}
	known := make(map[PhaseID]struct{}, len(b.chain))
	for _, p := range b.chain {
		known[p.ID] = struct{}{}
	}
	durations := make(map[Key]int64, len(b.durations))
	for k, d := range b.durations {
		if _, ok := known[k.Phase]; !ok {
			return nil, fmt.Errorf("target %d platform %d: %w: %d", k.Target, k.Platform, ErrUnknownPhase, k.Phase)
		}
		durations[k] = d
	}
	t := &AssignmentTable{
		chain:     append(KillChain(nil), b.chain...),
		durations: durations,
		skipped:   append([]Alternative(nil), b.skipped...),
	}
	for id := range b.targets {
		t.targets = append(t.targets, id)
	}
	for id := range b.platforms {
		t.platforms = append(t.platforms, id)
	}
	sort.Slice(t.targets, func(i, j int) bool { return t.targets[i] < t.targets[j] })
	sort.Slice(t.platforms, func(i, j int) bool { return t.platforms[i] < t.platforms[j] })
	return t, nil
}
