package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKillChain(t *testing.T) {
	kc := DefaultKillChain()
	require.Len(t, kc, 14)
	require.NoError(t, kc.Validate())
	assert.Equal(t, "Find", kc.Name(1))
	assert.Equal(t, "Assess Decision", kc.Name(14))
	assert.Equal(t, "phase-20", kc.Name(20))
	id, ok := kc.Lookup("Track Gen")
	assert.True(t, ok)
	assert.Equal(t, PhaseID(9), id)
	assert.True(t, kc.Has(5))
	assert.False(t, kc.Has(15))
}

func TestKillChainValidate(t *testing.T) {
	assert.Error(t, KillChain{}.Validate())
	assert.Error(t, KillChain{{ID: 2, Name: "b"}, {ID: 1, Name: "a"}}.Validate())
	assert.Error(t, KillChain{{ID: 1, Name: "a"}, {ID: 1, Name: "a"}}.Validate())
}

func TestTableBuilder(t *testing.T) {
	tbl, err := NewTableBuilder(DefaultKillChain()).
		Set(2, 1, 3, 4).
		Set(1, 1, 2, 5).
		Set(1, 1, 1, 7).
		Set(1, 2, 1, -1).
		AddPlatform(9).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []TargetID{1, 2}, tbl.Targets())
	assert.Equal(t, []PlatformID{1, 2, 3, 9}, tbl.Platforms())
	assert.Equal(t, 3, tbl.Len())
	require.Len(t, tbl.Skipped(), 1)
	assert.Equal(t, int64(-1), tbl.Skipped()[0].Duration)

	alts := tbl.Alternatives(1, 1)
	require.Len(t, alts, 2)
	assert.Equal(t, PlatformID(1), alts[0].Platform)
	assert.Equal(t, PlatformID(2), alts[1].Platform)
	assert.Empty(t, tbl.Alternatives(1, 2))

	_, ok := tbl.Duration(1, 2, 1)
	assert.False(t, ok)
}

func TestTableBuilder_NegativeOverridesEligible(t *testing.T) {
	tbl, err := NewTableBuilder(DefaultKillChain()).Set(1, 1, 1, 4).Set(1, 1, 1, -1).Build()
	require.NoError(t, err)
	assert.Zero(t, tbl.Len())
}

func TestTableBuilder_UnknownPhase(t *testing.T) {
	_, err := NewTableBuilder(DefaultKillChain()).Set(1, 30, 1, 4).Build()
	assert.ErrorIs(t, err, ErrUnknownPhase)
}

func TestFingerprint(t *testing.T) {
	a, err := NewTableBuilder(DefaultKillChain()).Set(1, 1, 1, 3).Set(2, 2, 2, 4).Build()
	require.NoError(t, err)
	b, err := NewTableBuilder(DefaultKillChain()).Set(2, 2, 2, 4).Set(1, 1, 1, 3).Build()
	require.NoError(t, err)
	c, err := NewTableBuilder(DefaultKillChain()).Set(1, 1, 1, 3).Set(2, 2, 2, 5).Build()
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

func TestScheduleHelpers(t *testing.T) {
	s := Schedule{Results: []ScheduleResult{
		{Target: 2, Phase: 1, Platform: 1, Start: 4, Duration: 6, End: 10},
		{Target: 1, Phase: 2, Platform: 2, Start: 4, Duration: 1, End: 5},
		{Target: 1, Phase: 1, Platform: 1, Start: 0, Duration: 4, End: 4},
	}}
	SortResults(s.Results)
	assert.Equal(t, TargetID(1), s.Results[0].Target)
	assert.Equal(t, PhaseID(1), s.Results[0].Phase)
	assert.Equal(t, TargetID(2), s.Results[2].Target)

	byPl := s.ByPlatform()
	require.Len(t, byPl[1], 2)
	assert.Equal(t, int64(0), byPl[1][0].Start)
	assert.Len(t, byPl[2], 1)

	assert.Len(t, s.ForTarget(1), 2)
	assert.Equal(t, map[TargetID]int64{1: 5, 2: 10}, s.CompletionTimes())
}
