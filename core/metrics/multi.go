package metrics

import "errors"

// MultiSink fans events out to multiple sinks. A failing sink does not stop
// the others from receiving the event.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the run to all sinks and joins their errors.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordRun(ev))
	}
	return errors.Join(errs...)
}

// RecordAssignments forwards assignments to sinks that record them.
func (m *MultiSink) RecordAssignments(evs []AssignmentEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(AssignmentRecorder); ok {
			errs = append(errs, rec.RecordAssignments(evs))
		}
	}
	return errors.Join(errs...)
}

// RecordProgress forwards progress to sinks that record it.
func (m *MultiSink) RecordProgress(ev ProgressEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ProgressRecorder); ok {
			errs = append(errs, rec.RecordProgress(ev))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink holding resources.
func (m *MultiSink) Close() { closeAll(m.Sinks) }
