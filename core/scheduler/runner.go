package scheduler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/killchain/core/cp"
	"github.com/kilianp07/killchain/core/logger"
	"github.com/kilianp07/killchain/core/metrics"
	"github.com/kilianp07/killchain/core/model"
	"github.com/kilianp07/killchain/core/monitoring"
	"github.com/kilianp07/killchain/internal/eventbus"
)

// Runner executes scheduling runs with shared configuration. Runs never
// share model state, so a Runner is safe for concurrent use.
type Runner struct {
	opts        Options
	solver      cp.Solver
	log         logger.Logger
	sink        metrics.MetricsSink
	bus         *eventbus.TypedBus[ProgressEvent]
	concurrency int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used by the runner and its builders.
func WithLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records every run outcome on sink.
func WithMetrics(sink metrics.MetricsSink) RunnerOption {
	return func(r *Runner) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// WithBus publishes solver progress of every run on bus.
func WithBus(bus *eventbus.TypedBus[ProgressEvent]) RunnerOption {
	return func(r *Runner) { r.bus = bus }
}

// WithConcurrency bounds RunAll parallelism. Zero or less means unbounded.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) { r.concurrency = n }
}

// NewRunner returns a Runner solving with solver under opts.
func NewRunner(opts Options, solver cp.Solver, ro ...RunnerOption) *Runner {
	r := &Runner{
		opts:   opts,
		solver: solver,
		log:    logger.Nop{},
		sink:   metrics.NopSink{},
	}
	for _, o := range ro {
		o(r)
	}
	return r
}

// Options returns the runner's scheduling options.
func (r *Runner) Options() Options { return r.opts }

// NewRun creates an unbuilt run for table.
func (r *Runner) NewRun(table *model.AssignmentTable, opts ...RunOption) *Run {
	budget := cp.Budget{TimeLimit: r.opts.TimeLimit(), NodeLimit: r.opts.NodeLimit}
	base := []RunOption{WithRunLogger(r.log)}
	if r.bus != nil {
		base = append(base, WithProgressBus(r.bus))
	}
	return NewRun(table, NewBuilder(r.opts, r.log), r.solver, budget, append(base, opts...)...)
}

// Run builds, solves and extracts a schedule for table. The returned error
// matches one of the package sentinels on failure.
func (r *Runner) Run(ctx context.Context, table *model.AssignmentTable, opts ...RunOption) (Outcome, error) {
	run := r.NewRun(table, opts...)
	out, err := run.Solve(ctx)
	r.observe(out, err)
	return out, err
}

// RunAll solves independent tables in parallel. Outcomes are returned in
// input order with their individual errors in Outcome.Err. When ctx ends no
// further run is started, the started ones are waited for and ctx.Err() is
// returned; outcomes of runs never started stay zero.
func (r *Runner) RunAll(ctx context.Context, tables []*model.AssignmentTable) ([]Outcome, error) {
	outs := make([]Outcome, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, t := range tables {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer monitoring.Recover()
			out, err := r.Run(gctx, t)
			out.Err = err
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outs, err
	}
	return outs, ctx.Err()
}

func (r *Runner) observe(out Outcome, err error) {
	switch {
	case err == nil:
		r.log.Infof("run %s: %s makespan=%d lb=%d nodes=%d in %s",
			out.RunID, out.Status, out.Schedule.Makespan, out.LowerBound, out.Nodes, out.SolveTime)
	case errors.Is(err, ErrInfeasible), errors.Is(err, ErrTimeoutNoSolution):
		r.log.Warnf("run %s: %v", out.RunID, err)
	default:
		r.log.Errorf("run %s: %v", out.RunID, err)
		monitoring.CaptureException(err, map[string]string{"run_id": out.RunID, "status": out.Status.String()})
	}

	ev := metrics.RunEvent{
		RunID:        out.RunID,
		Status:       out.Status.String(),
		Optimal:      out.Optimal(),
		Horizon:      out.Horizon,
		LowerBound:   out.LowerBound,
		Targets:      out.Targets,
		Slots:        out.Slots,
		Alternatives: out.Alternatives,
		Nodes:        out.Nodes,
		BuildTime:    out.BuildTime,
		SolveTime:    out.SolveTime,
		Time:         time.Now(),
	}
	if out.Schedule != nil {
		ev.Makespan = out.Schedule.Makespan
	}
	if err := r.sink.RecordRun(ev); err != nil {
		r.log.Warnf("record run %s: %v", out.RunID, err)
	}
	if out.Schedule == nil {
		return
	}
	if rec, ok := r.sink.(metrics.AssignmentRecorder); ok {
		if err := rec.RecordAssignments(metrics.AssignmentEvents(*out.Schedule, ev.Time)); err != nil {
			r.log.Warnf("record assignments %s: %v", out.RunID, err)
		}
	}
}
