package scheduler

import "errors"

var (
	// ErrModelConstruction reports inconsistent input detected before solving.
	ErrModelConstruction = errors.New("model construction failure")
	// ErrInfeasible reports that no schedule satisfies every constraint.
	ErrInfeasible = errors.New("no feasible schedule exists")
	// ErrTimeoutNoSolution reports that the budget ran out before any schedule was found.
	ErrTimeoutNoSolution = errors.New("budget exhausted without a schedule")
	// ErrSolver reports a solver failure.
	ErrSolver = errors.New("solver error")
	// ErrRunFinished is returned when a finished run is solved again.
	ErrRunFinished = errors.New("run already finished")
	// ErrInconsistentSolution reports a solver answer that breaks the model.
	ErrInconsistentSolution = errors.New("solution does not select exactly one platform")
)
