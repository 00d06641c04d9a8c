// Package ingest loads assignment tables from files.
//
// CSV files come in two layouts. The long layout has one row per
// (target, phase, platform) with a duration column:
//
//	target,phase,platform,duration
//	1,Find,1,3
//
// The wide layout has one row per (target, phase) and one column per platform;
// blank cells and -1 mark ineligible platforms:
//
//	target,phase,1,2,3
//	1,Find,3,,5
//
// Phases may be given by id or by name. JSON and YAML documents carry the
// same triples as a list (see Document).
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/killchain/core/model"
)

// ErrFormat reports a malformed input file.
var ErrFormat = errors.New("malformed assignment table")

// Document is the JSON/YAML form of a table.
type Document struct {
	Chain        []model.Phase `json:"chain,omitempty" yaml:"chain,omitempty"`
	Targets      []int         `json:"targets,omitempty" yaml:"targets,omitempty"`
	Platforms    []int         `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	Alternatives []Entry       `json:"alternatives" yaml:"alternatives"`
}

// Entry is one (target, phase, platform) duration.
type Entry struct {
	Target   int      `json:"target" yaml:"target"`
	Phase    PhaseRef `json:"phase" yaml:"phase"`
	Platform int      `json:"platform" yaml:"platform"`
	Duration int64    `json:"duration" yaml:"duration"`
}

// PhaseRef is a phase id or name. In JSON it may be a number or a string.
type PhaseRef string

func (p *PhaseRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PhaseRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = PhaseRef(n.String())
	return nil
}

// LoadFile reads a table from path, choosing the decoder by extension. A
// chain embedded in a JSON/YAML document overrides chain.
func LoadFile(path string, chain model.KillChain) (*model.AssignmentTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(f, chain)
	case ".json":
		return ReadJSON(f, chain)
	case ".yaml", ".yml":
		return ReadYAML(f, chain)
	default:
		return nil, fmt.Errorf("unsupported table format: %s", ext)
	}
}

// FromDocument builds a table from a decoded document.
func FromDocument(doc Document, chain model.KillChain) (*model.AssignmentTable, error) {
	if len(doc.Chain) > 0 {
		chain = doc.Chain
	}
	b := model.NewTableBuilder(chain)
	for _, t := range doc.Targets {
		b.AddTarget(model.TargetID(t))
	}
	for _, p := range doc.Platforms {
		b.AddPlatform(model.PlatformID(p))
	}
	for i, e := range doc.Alternatives {
		ph, err := parsePhase(chain, string(e.Phase))
		if err != nil {
			return nil, fmt.Errorf("%w: alternatives[%d]: %v", ErrFormat, i, err)
		}
		b.Set(model.TargetID(e.Target), ph, model.PlatformID(e.Platform), e.Duration)
	}
	return b.Build()
}

func parsePhase(chain model.KillChain, s string) (model.PhaseID, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.Atoi(s); err == nil {
		return model.PhaseID(id), nil
	}
	if id, ok := chain.Lookup(s); ok {
		return id, nil
	}
	for _, p := range chain {
		if strings.EqualFold(p.Name, s) {
			return p.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}
