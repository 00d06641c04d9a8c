package cp

import (
	"context"
	"time"
)

// Budget bounds a solve. Zero values mean unlimited.
type Budget struct {
	TimeLimit time.Duration
	NodeLimit int64
}

// Progress describes an improving solution.
type Progress struct {
	Elapsed   time.Duration
	Bound     int64
	Objective int64
	Solutions int
}

// Request is everything a Solver needs for one run.
type Request struct {
	Model  *Model
	Budget Budget
	// OnSolution is called on each improving solution. It must not block.
	OnSolution func(Progress)
}

// Response is the terminal answer of a Solver.
type Response struct {
	Status    Status
	Objective int64
	Bound     int64
	Values    []int64
	Nodes     int64
	Failures  int64
	Solutions int
	Elapsed   time.Duration
}

// Value returns the assigned value of v. It panics if no solution is present.
func (r Response) Value(v IntVar) int64 { return r.Values[v.index] }

// BoolValue returns the assigned value of a literal.
func (r Response) BoolValue(b BoolVar) bool { return r.Values[b.index] != 0 }

// Solver finds an assignment for a Request.
type Solver interface {
	Solve(ctx context.Context, req Request) (Response, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, req Request) (Response, error)

// Solve calls f.
func (f SolverFunc) Solve(ctx context.Context, req Request) (Response, error) { return f(ctx, req) }
