package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/killchain/core/cp"
	"github.com/kilianp07/killchain/core/logger"
)

// Engine implements cp.Solver.
type Engine struct {
	log logger.Logger
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for search statistics.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: logger.Nop{}, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Solve runs branch and bound until the search space is exhausted or the
// budget or context expires.
func (e *Engine) Solve(ctx context.Context, req cp.Request) (cp.Response, error) {
	if req.Model == nil {
		return cp.Response{Status: cp.StatusError}, fmt.Errorf("nil model")
	}
	if err := req.Model.Validate(); err != nil {
		return cp.Response{Status: cp.StatusError}, fmt.Errorf("invalid model: %w", err)
	}
	s := newSearch(ctx, req, e.now)
	root := s.rootNode()
	s.run(root)

	resp := cp.Response{
		Nodes:     s.nodes,
		Failures:  s.failures,
		Solutions: s.solutions,
		Elapsed:   e.now().Sub(s.started),
		Bound:     s.bound,
	}
	switch {
	case s.solutions > 0 && !s.stopped:
		resp.Status = cp.StatusOptimal
		resp.Bound = s.best
	case s.solutions > 0:
		resp.Status = cp.StatusFeasible
	case s.stopped:
		resp.Status = cp.StatusTimeoutNoSolution
	default:
		resp.Status = cp.StatusInfeasible
	}
	if s.solutions > 0 {
		resp.Values = s.incumbent
		resp.Objective = s.best
	}
	e.log.Debugw("search finished", map[string]any{
		"status":    resp.Status.String(),
		"nodes":     resp.Nodes,
		"failures":  resp.Failures,
		"solutions": resp.Solutions,
		"objective": resp.Objective,
		"bound":     resp.Bound,
		"elapsed":   resp.Elapsed.String(),
	})
	return resp, nil
}
