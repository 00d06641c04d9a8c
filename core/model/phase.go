package model

import "fmt"

// TargetID identifies a target travelling through the kill chain.
type TargetID int

// PhaseID identifies a kill-chain phase. Ids follow the canonical order.
type PhaseID int

// PlatformID identifies a platform able to execute phases.
type PlatformID int

// Phase is a named stage of the kill chain.
type Phase struct {
	ID   PhaseID `json:"id" yaml:"id"`
	Name string  `json:"name" yaml:"name"`
}

// KillChain is the canonical ordered sequence of phases shared by every target.
type KillChain []Phase

// DefaultKillChain returns the fourteen-phase chain used by the planning cell.
func DefaultKillChain() KillChain {
	names := []string{
		"Find", "PED", "Fix", "PED2", "Track1", "Track2", "Track3",
		"Track Build", "Track Gen", "Target", "Engage", "IFTU", "Assess",
		"Assess Decision",
	}
	kc := make(KillChain, len(names))
	for i, n := range names {
		kc[i] = Phase{ID: PhaseID(i + 1), Name: n}
	}
	return kc
}

// Validate ensures ids are unique and strictly increasing.
func (kc KillChain) Validate() error {
	if len(kc) == 0 {
		return fmt.Errorf("kill chain has no phases")
	}
	for i := 1; i < len(kc); i++ {
		if kc[i].ID <= kc[i-1].ID {
			return fmt.Errorf("phase %q (id %d) out of order after id %d", kc[i].Name, kc[i].ID, kc[i-1].ID)
		}
	}
	return nil
}

// IDs returns the phase ids in canonical order.
func (kc KillChain) IDs() []PhaseID {
	ids := make([]PhaseID, len(kc))
	for i, p := range kc {
		ids[i] = p.ID
	}
	return ids
}

// Name returns the name of the phase or a numeric placeholder when unknown.
func (kc KillChain) Name(id PhaseID) string {
	for _, p := range kc {
		if p.ID == id {
			return p.Name
		}
	}
	return fmt.Sprintf("phase-%d", id)
}

// Has reports whether id is part of the chain.
func (kc KillChain) Has(id PhaseID) bool {
	for _, p := range kc {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Lookup finds a phase id by name.
func (kc KillChain) Lookup(name string) (PhaseID, bool) {
	for _, p := range kc {
		if p.Name == name {
			return p.ID, true
		}
	}
	return 0, false
}
