package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/killchain/core/cp"
	"github.com/kilianp07/killchain/core/logger"
	"github.com/kilianp07/killchain/core/model"
	"github.com/kilianp07/killchain/internal/eventbus"
)

// State is the lifecycle position of a Run.
type State int

const (
	StateUnbuilt State = iota
	StateBuilt
	StateSolving
	StateSolved
	StateExtracted
	StateInfeasible
	StateTimedOut
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StateSolving:
		return "solving"
	case StateSolved:
		return "solved"
	case StateExtracted:
		return "extracted"
	case StateInfeasible:
		return "infeasible"
	case StateTimedOut:
		return "timed_out"
	default:
		return "failed"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s >= StateExtracted }

// ProgressEvent is published for every improving solution of a run.
type ProgressEvent struct {
	RunID string
	cp.Progress
}

// Outcome is the tagged result of a run.
type Outcome struct {
	RunID        string
	State        State
	Status       cp.Status
	Schedule     *model.Schedule
	Horizon      int64
	LowerBound   int64
	Targets      int
	Slots        int
	Alternatives int
	Nodes        int64
	BuildTime    time.Duration
	SolveTime    time.Duration
	Err          error
}

// Optimal reports whether the schedule is proven optimal.
func (o Outcome) Optimal() bool { return o.Schedule != nil && o.Schedule.Optimal }

// Run is a single-shot scheduling run over one assignment table.
type Run struct {
	ID string

	mu       sync.Mutex
	state    State
	table    *model.AssignmentTable
	builder  *Builder
	solver   cp.Solver
	budget   cp.Budget
	bus      *eventbus.TypedBus[ProgressEvent]
	log      logger.Logger
	problem  *Problem
	response cp.Response
	outcome  Outcome
}

// RunOption configures a Run.
type RunOption func(*Run)

// WithProgressBus publishes improving solutions on bus.
func WithProgressBus(bus *eventbus.TypedBus[ProgressEvent]) RunOption {
	return func(r *Run) { r.bus = bus }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) RunOption {
	return func(r *Run) { r.ID = id }
}

// WithRunLogger sets the run logger.
func WithRunLogger(l logger.Logger) RunOption {
	return func(r *Run) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRun prepares a run. Nothing is built until Build or Solve is called.
func NewRun(table *model.AssignmentTable, builder *Builder, solver cp.Solver, budget cp.Budget, opts ...RunOption) *Run {
	r := &Run{
		ID:      uuid.NewString(),
		table:   table,
		builder: builder,
		solver:  solver,
		budget:  budget,
		log:     logger.Nop{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Problem returns the built problem, nil before Build.
func (r *Run) Problem() *Problem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.problem
}

// Build constructs the model. Building twice is a no-op.
func (r *Run) Build() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildLocked()
}

func (r *Run) buildLocked() error {
	switch {
	case r.state == StateBuilt:
		return nil
	case r.state != StateUnbuilt:
		return ErrRunFinished
	}
	start := time.Now()
	p, err := r.builder.Build(r.table)
	r.outcome.RunID = r.ID
	r.outcome.BuildTime = time.Since(start)
	if err != nil {
		r.state = StateFailed
		r.outcome.State = StateFailed
		r.outcome.Status = cp.StatusError
		r.outcome.Err = err
		return err
	}
	r.problem = p
	r.state = StateBuilt
	r.outcome.Horizon = p.Horizon
	r.outcome.LowerBound = p.LowerBound
	r.outcome.Targets = len(r.table.Targets())
	r.outcome.Slots = len(p.Slots)
	r.outcome.Alternatives = len(p.Alts)
	return nil
}

// Solve builds the model if needed, calls the solver once and extracts the
// schedule. Terminal outcomes without a schedule are returned with one of
// ErrInfeasible, ErrTimeoutNoSolution, ErrSolver or ErrModelConstruction.
// The run stays observable through State and Problem while the solver works.
func (r *Run) Solve(ctx context.Context) (Outcome, error) {
	r.mu.Lock()
	if r.state.Terminal() || r.state == StateSolving || r.state == StateSolved {
		defer r.mu.Unlock()
		return r.outcome, ErrRunFinished
	}
	if err := r.buildLocked(); err != nil {
		defer r.mu.Unlock()
		return r.outcome, err
	}
	r.state = StateSolving
	req := cp.Request{Model: r.problem.Model, Budget: r.budget}
	if r.bus != nil {
		id, bus := r.ID, r.bus
		req.OnSolution = func(p cp.Progress) {
			bus.Publish(ProgressEvent{RunID: id, Progress: p})
		}
	}
	solver := r.solver
	r.mu.Unlock()

	resp, err := solver.Solve(ctx, req)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.response = resp
	r.outcome.Status = resp.Status
	r.outcome.Nodes = resp.Nodes
	r.outcome.SolveTime = resp.Elapsed
	if err != nil {
		return r.fail(StateFailed, fmt.Errorf("%w: %v", ErrSolver, err))
	}
	r.state = StateSolved

	switch resp.Status {
	case cp.StatusInfeasible:
		return r.fail(StateInfeasible, ErrInfeasible)
	case cp.StatusTimeoutNoSolution:
		return r.fail(StateTimedOut, ErrTimeoutNoSolution)
	case cp.StatusOptimal, cp.StatusFeasible:
	default:
		return r.fail(StateFailed, fmt.Errorf("%w: status %s", ErrSolver, resp.Status))
	}

	sched, err := Extract(r.problem, resp)
	if err != nil {
		return r.fail(StateFailed, err)
	}
	sched.RunID = r.ID
	r.state = StateExtracted
	r.outcome.State = StateExtracted
	r.outcome.Schedule = &sched
	if !sched.Optimal {
		r.log.Warnf("run %s: schedule with makespan %d not proven optimal", r.ID, sched.Makespan)
	}
	return r.outcome, nil
}

func (r *Run) fail(state State, err error) (Outcome, error) {
	r.state = state
	r.outcome.State = state
	r.outcome.Err = err
	return r.outcome, err
}
