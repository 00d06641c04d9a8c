package cp

// Status is the terminal state reported by a Solver.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusTimeoutNoSolution
	StatusError
)

// String returns the conventional upper-case status name.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusTimeoutNoSolution:
		return "TIMEOUT_NO_SOLUTION"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// HasSolution reports whether variable values accompany the status.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// ParseStatus is the inverse of Status.String. Unknown names map to
// StatusUnknown.
func ParseStatus(s string) Status {
	for st := StatusOptimal; st <= StatusError; st++ {
		if st.String() == s {
			return st
		}
	}
	return StatusUnknown
}
