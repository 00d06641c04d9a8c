// Package runlog persists a record of every scheduling run so that past
// outcomes can be listed and their schedules retrieved.
package runlog

import (
	"context"
	"time"

	"github.com/kilianp07/killchain/core/model"
)

// Record captures one scheduling run and, when one was found, its schedule.
type Record struct {
	RunID       string          `json:"run_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Source      string          `json:"source,omitempty"`
	Fingerprint string          `json:"fingerprint"`
	Status      string          `json:"status"`
	Makespan    int64           `json:"makespan"`
	Optimal     bool            `json:"optimal"`
	Horizon     int64           `json:"horizon"`
	LowerBound  int64           `json:"lower_bound"`
	Targets     int             `json:"targets"`
	Slots       int             `json:"slots"`
	Nodes       int64           `json:"nodes"`
	SolveMS     int64           `json:"solve_ms"`
	Error       string          `json:"error,omitempty"`
	Schedule    *model.Schedule `json:"schedule,omitempty"`
}

// Query defines filters for retrieving records. Zero fields match everything.
type Query struct {
	Start       time.Time
	End         time.Time
	RunID       string
	Status      string
	Fingerprint string
	Limit       int
}

// Match reports whether r passes the filters of q.
func (q Query) Match(r Record) bool {
	switch {
	case !q.Start.IsZero() && r.Timestamp.Before(q.Start):
		return false
	case !q.End.IsZero() && r.Timestamp.After(q.End):
		return false
	case q.RunID != "" && r.RunID != q.RunID:
		return false
	case q.Status != "" && r.Status != q.Status:
		return false
	case q.Fingerprint != "" && r.Fingerprint != q.Fingerprint:
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

func limit(res []Record, n int) []Record {
	if n > 0 && len(res) > n {
		return res[len(res)-n:]
	}
	return res
}
