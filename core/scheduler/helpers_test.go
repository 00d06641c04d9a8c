package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/killchain/core/model"
)

func chain(n int) model.KillChain {
	full := model.DefaultKillChain()
	return append(model.KillChain(nil), full[:n]...)
}

type entry struct {
	target   model.TargetID
	phase    model.PhaseID
	platform model.PlatformID
	duration int64
}

func table(t *testing.T, phases int, entries ...entry) *model.AssignmentTable {
	t.Helper()
	b := model.NewTableBuilder(chain(phases))
	for _, e := range entries {
		b.Set(e.target, e.phase, e.platform, e.duration)
	}
	tbl, err := b.Build()
	require.NoError(t, err)
	return tbl
}

// scenarioA: one target, two phases, one platform each.
func scenarioA(t *testing.T) *model.AssignmentTable {
	return table(t, 2,
		entry{1, 1, 1, 3},
		entry{1, 2, 2, 5},
	)
}

// scenarioB: two single-phase targets competing for one platform.
func scenarioB(t *testing.T) *model.AssignmentTable {
	return table(t, 1,
		entry{1, 1, 1, 4},
		entry{2, 1, 1, 6},
	)
}

// scenarioC: one slot with a slow and a fast platform.
func scenarioC(t *testing.T) *model.AssignmentTable {
	return table(t, 1,
		entry{1, 1, 1, 10},
		entry{1, 1, 2, 2},
	)
}
