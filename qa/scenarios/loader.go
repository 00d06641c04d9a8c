package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/killchain/core/model"
	"github.com/kilianp07/killchain/core/scheduler"
)

type EntryDef struct {
	Target   int   `yaml:"target"`
	Phase    int   `yaml:"phase"`
	Platform int   `yaml:"platform"`
	Duration int64 `yaml:"duration"`
}

type Expected struct {
	Status    string `yaml:"status"`
	Makespan  int64  `yaml:"makespan"`
	Published int    `yaml:"published"`
}

type Scenario struct {
	Name               string     `yaml:"name"`
	Description        string     `yaml:"description,omitempty"`
	Phases             int        `yaml:"phases,omitempty"`
	MaxHorizon         int64      `yaml:"max_horizon,omitempty"`
	SamePlatformGroups [][]int    `yaml:"same_platform_groups,omitempty"`
	Entries            []EntryDef `yaml:"entries"`
	Expected           Expected   `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario without name", path)
	}
	return &sc, nil
}

// Table builds the assignment table over the first Phases phases of the
// default chain, or the whole chain when Phases is zero.
func (sc *Scenario) Table() (*model.AssignmentTable, error) {
	chain := model.DefaultKillChain()
	if sc.Phases > 0 && sc.Phases < len(chain) {
		chain = chain[:sc.Phases]
	}
	b := model.NewTableBuilder(chain)
	for _, e := range sc.Entries {
		b.Set(model.TargetID(e.Target), model.PhaseID(e.Phase), model.PlatformID(e.Platform), e.Duration)
	}
	return b.Build()
}

func (sc *Scenario) Options() scheduler.Options {
	opts := scheduler.Options{MaxHorizon: sc.MaxHorizon}
	for _, g := range sc.SamePlatformGroups {
		group := make([]model.PhaseID, len(g))
		for i, id := range g {
			group[i] = model.PhaseID(id)
		}
		opts.SamePlatformGroups = append(opts.SamePlatformGroups, group)
	}
	return opts
}
