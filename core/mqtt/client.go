package mqtt

import (
	"context"

	"github.com/kilianp07/killchain/core/model"
)

// Publisher announces solved schedules to downstream consumers.
type Publisher interface {
	// PublishSchedule sends the schedule on the run specific topic.
	PublishSchedule(ctx context.Context, s model.Schedule) error
}

// ScheduleMessage is the wire payload of a published schedule.
type ScheduleMessage struct {
	RunID       string                 `json:"run_id"`
	Status      string                 `json:"status"`
	Makespan    int64                  `json:"makespan"`
	Optimal     bool                   `json:"optimal"`
	Assignments []model.ScheduleResult `json:"assignments"`
	PublishedAt int64                  `json:"published_at"`
}

// ProgressMessage is the wire payload of an improving solution.
type ProgressMessage struct {
	RunID     string `json:"run_id"`
	Objective int64  `json:"objective"`
	Bound     int64  `json:"bound"`
	Solutions int    `json:"solutions"`
	ElapsedMS int64  `json:"elapsed_ms"`
}
