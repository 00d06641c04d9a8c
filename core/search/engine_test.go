package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/killchain/core/cp"
)

func TestSolve_LinearBranching(t *testing.T) {
	m := cp.NewModel()
	x := m.NewIntVar(cp.NewDomain(0, 10), "x")
	y := m.NewIntVar(cp.NewDomain(0, 10), "y")
	m.AddLinear([]cp.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, cp.GreaterOrEqual, 7)
	m.AddLinear([]cp.Term{{Var: y, Coeff: 1}}, cp.GreaterOrEqual, 3)
	m.Minimize(x)

	resp, err := New().Solve(context.Background(), cp.Request{Model: m})
	require.NoError(t, err)
	assert.Equal(t, cp.StatusOptimal, resp.Status)
	assert.Equal(t, int64(0), resp.Value(x))
	assert.Equal(t, int64(7), resp.Value(y))
}

func TestSolve_EnforcedConstraints(t *testing.T) {
	m := cp.NewModel()
	x := m.NewIntVar(cp.NewDomain(0, 5), "x")
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	m.AddExactlyOne(a, b)
	m.AddEqualityConst(x, 4).OnlyEnforceIf(a)
	m.AddEqualityConst(x, 2).OnlyEnforceIf(b)
	m.Minimize(x)

	var seen []int64
	resp, err := New().Solve(context.Background(), cp.Request{
		Model:      m,
		OnSolution: func(p cp.Progress) { seen = append(seen, p.Objective) },
	})
	require.NoError(t, err)
	assert.Equal(t, cp.StatusOptimal, resp.Status)
	assert.Equal(t, int64(2), resp.Objective)
	assert.True(t, resp.BoolValue(b))
	assert.False(t, resp.BoolValue(a))
	assert.Equal(t, []int64{4, 2}, seen, "a is tried first and improved upon")
	assert.Equal(t, 2, resp.Solutions)
}

func TestSolve_NoOverlap(t *testing.T) {
	m := cp.NewModel()
	var ends []cp.IntVar
	var ivs []cp.IntervalVar
	for _, d := range []int64{3, 2} {
		s := m.NewIntVar(cp.NewDomain(0, 10), "s")
		e := m.NewIntVar(cp.NewDomain(0, 10), "e")
		ivs = append(ivs, m.NewIntervalVar(s, m.NewConstant(d), e, m.TrueLiteral(), "iv"))
		ends = append(ends, e)
	}
	m.AddNoOverlap(ivs...)
	mk := m.NewIntVar(cp.NewDomain(0, 10), "makespan")
	m.AddMaxEquality(mk, ends)
	m.Minimize(mk)

	resp, err := New().Solve(context.Background(), cp.Request{Model: m})
	require.NoError(t, err)
	assert.Equal(t, cp.StatusOptimal, resp.Status)
	assert.Equal(t, int64(5), resp.Objective)

	a, b := m.Interval(ivs[0]), m.Interval(ivs[1])
	disjoint := resp.Value(a.End) <= resp.Value(b.Start) || resp.Value(b.End) <= resp.Value(a.Start)
	assert.True(t, disjoint)
}

func TestSolve_AbsentIntervalsMayOverlap(t *testing.T) {
	m := cp.NewModel()
	present := m.NewBoolVar("present")
	m.AddEqualityConst(present.IntVar, 0)
	var ivs []cp.IntervalVar
	for _, lit := range []cp.BoolVar{m.TrueLiteral(), present} {
		s := m.NewIntVar(cp.NewDomain(0, 0), "s")
		e := m.NewIntVar(cp.NewDomain(0, 5), "e")
		ivs = append(ivs, m.NewIntervalVar(s, m.NewConstant(5), e, lit, "iv"))
	}
	m.AddNoOverlap(ivs...)

	resp, err := New().Solve(context.Background(), cp.Request{Model: m})
	require.NoError(t, err)
	assert.Equal(t, cp.StatusOptimal, resp.Status)
}

func TestSolve_Infeasible(t *testing.T) {
	m := cp.NewModel()
	x := m.NewIntVar(cp.NewDomain(0, 3), "x")
	m.AddLinear([]cp.Term{{Var: x, Coeff: 1}}, cp.GreaterOrEqual, 5)
	m.Minimize(x)

	resp, err := New().Solve(context.Background(), cp.Request{Model: m})
	require.NoError(t, err)
	assert.Equal(t, cp.StatusInfeasible, resp.Status)
	assert.Nil(t, resp.Values)
}

func TestSolve_HintAboveDomainIsInfeasible(t *testing.T) {
	m := cp.NewModel()
	x := m.NewIntVar(cp.NewDomain(0, 3), "x")
	m.Minimize(x)
	m.SetLowerBoundHint(4)

	resp, err := New().Solve(context.Background(), cp.Request{Model: m})
	require.NoError(t, err)
	assert.Equal(t, cp.StatusInfeasible, resp.Status)
}

func TestSolve_Satisfaction(t *testing.T) {
	m := cp.NewModel()
	x := m.NewIntVar(cp.NewDomain(0, 3), "x")
	m.AddLinear([]cp.Term{{Var: x, Coeff: 1}}, cp.GreaterOrEqual, 2)

	resp, err := New().Solve(context.Background(), cp.Request{Model: m})
	require.NoError(t, err)
	assert.Equal(t, cp.StatusOptimal, resp.Status)
	assert.Equal(t, int64(2), resp.Value(x))
}

func TestSolve_EmptyMaxIsZero(t *testing.T) {
	m := cp.NewModel()
	mk := m.NewIntVar(cp.NewDomain(0, 10), "makespan")
	m.AddMaxEquality(mk, nil)
	m.Minimize(mk)

	resp, err := New().Solve(context.Background(), cp.Request{Model: m})
	require.NoError(t, err)
	assert.Equal(t, cp.StatusOptimal, resp.Status)
	assert.Zero(t, resp.Value(mk))
}

func TestSolve_SparseDomain(t *testing.T) {
	m := cp.NewModel()
	x := m.NewIntVar(cp.DomainFromValues(2, 7, 9), "x")
	m.AddLinear([]cp.Term{{Var: x, Coeff: 1}}, cp.GreaterOrEqual, 3)
	m.Minimize(x)

	resp, err := New().Solve(context.Background(), cp.Request{Model: m})
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.Value(x))
}

func TestSolve_TimeLimit(t *testing.T) {
	var tick int64
	clock := func() time.Time {
		tick++
		return time.Unix(tick, 0)
	}
	m := cp.NewModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	m.AddExactlyOne(a, b)

	resp, err := New(WithClock(clock)).Solve(context.Background(), cp.Request{
		Model:  m,
		Budget: cp.Budget{TimeLimit: time.Millisecond},
	})
	require.NoError(t, err)
	assert.Equal(t, cp.StatusTimeoutNoSolution, resp.Status)
}

func TestSolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := cp.NewModel()
	m.NewIntVar(cp.NewDomain(0, 3), "x")

	resp, err := New().Solve(ctx, cp.Request{Model: m})
	require.NoError(t, err)
	assert.Equal(t, cp.StatusTimeoutNoSolution, resp.Status)
}

func TestSolve_InvalidModel(t *testing.T) {
	_, err := New().Solve(context.Background(), cp.Request{})
	assert.Error(t, err)

	m := cp.NewModel()
	m.AddExactlyOne()
	resp, err := New().Solve(context.Background(), cp.Request{Model: m})
	assert.Error(t, err)
	assert.Equal(t, cp.StatusError, resp.Status)
}

func TestDiv(t *testing.T) {
	assert.Equal(t, int64(-2), floorDiv(-3, 2))
	assert.Equal(t, int64(1), floorDiv(3, 2))
	assert.Equal(t, int64(2), ceilDiv(3, 2))
	assert.Equal(t, int64(-1), ceilDiv(-3, 2))
	assert.Equal(t, int64(-2), floorDiv(3, -2))
}
