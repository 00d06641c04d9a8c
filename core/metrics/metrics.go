package metrics

import (
	"time"

	"github.com/kilianp07/killchain/core/model"
)

// RunEvent summarises one finished scheduling run.
type RunEvent struct {
	RunID        string
	Status       string
	Makespan     int64
	Optimal      bool
	Horizon      int64
	LowerBound   int64
	Targets      int
	Slots        int
	Alternatives int
	Nodes        int64
	BuildTime    time.Duration
	SolveTime    time.Duration
	Time         time.Time
}

// MetricsSink records run outcomes for observability purposes.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// AssignmentEvent is one chosen (target, phase, platform) placement.
type AssignmentEvent struct {
	RunID  string
	Result model.ScheduleResult
	Time   time.Time
}

// AssignmentRecorder records the assignments of a schedule.
type AssignmentRecorder interface {
	RecordAssignments(evs []AssignmentEvent) error
}

// ProgressEvent captures an improving solution reported during search.
type ProgressEvent struct {
	RunID     string
	Elapsed   time.Duration
	Bound     int64
	Objective int64
	Solutions int
	Time      time.Time
}

// ProgressRecorder records solver progress.
type ProgressRecorder interface {
	RecordProgress(ev ProgressEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error                  { return nil }
func (NopSink) RecordAssignments([]AssignmentEvent) error { return nil }
func (NopSink) RecordProgress(ProgressEvent) error        { return nil }

// AssignmentEvents converts a schedule into assignment events stamped at ts.
func AssignmentEvents(s model.Schedule, ts time.Time) []AssignmentEvent {
	evs := make([]AssignmentEvent, len(s.Results))
	for i, r := range s.Results {
		evs[i] = AssignmentEvent{RunID: s.RunID, Result: r, Time: ts}
	}
	return evs
}
