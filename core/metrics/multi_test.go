package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	runs, assignments int
	closed            bool
	fail              error
}

func (r *recordSink) RecordRun(RunEvent) error {
	r.runs++
	return r.fail
}

func (r *recordSink) RecordAssignments([]AssignmentEvent) error {
	r.assignments++
	return nil
}

func (r *recordSink) Close() { r.closed = true }

// runOnly does not implement the optional recorders.
type runOnly struct{ runs int }

func (r *runOnly) RecordRun(RunEvent) error {
	r.runs++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	require.NoError(t, m.RecordRun(RunEvent{RunID: "r1"}))
	require.NoError(t, m.RecordAssignments(nil))
	assert.Equal(t, 1, s1.runs)
	assert.Equal(t, 1, s2.assignments)

	m.Close()
	assert.True(t, s1.closed)
	assert.True(t, s2.closed)
}

func TestMultiSinkContinuesAfterFailure(t *testing.T) {
	boom := errors.New("influx down")
	failing := &recordSink{fail: boom}
	healthy := &recordSink{}
	m := NewMultiSink(failing, healthy)

	err := m.RecordRun(RunEvent{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, healthy.runs, "healthy sink still records")
}

func TestMultiSinkSkipsUnsupportedRecorders(t *testing.T) {
	r := &runOnly{}
	m := NewMultiSink(r)
	require.NoError(t, m.RecordProgress(ProgressEvent{Objective: 3}))
	require.NoError(t, m.RecordAssignments([]AssignmentEvent{{RunID: "r1"}}))
	require.NoError(t, m.RecordRun(RunEvent{}))
	assert.Equal(t, 1, r.runs)
	m.Close()
}
