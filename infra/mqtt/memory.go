package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/killchain/core/model"
)

// MemoryPublisher keeps published schedules in memory. It is used when MQTT
// is disabled and in tests.
type MemoryPublisher struct {
	mu        sync.Mutex
	Schedules []model.Schedule
	FailRuns  map[string]bool
}

// NewMemoryPublisher creates an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{FailRuns: make(map[string]bool)}
}

// PublishSchedule records the schedule or fails for configured runs.
func (m *MemoryPublisher) PublishSchedule(_ context.Context, s model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRuns[s.RunID] {
		return fmt.Errorf("publish failed for %s", s.RunID)
	}
	m.Schedules = append(m.Schedules, s)
	return nil
}

// Published returns a copy of the recorded schedules.
func (m *MemoryPublisher) Published() []model.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Schedule(nil), m.Schedules...)
}
