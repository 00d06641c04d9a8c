package cp

import (
	"errors"
	"fmt"
)

// ErrMixedModels is returned when a variable of one model is used in another.
var ErrMixedModels = errors.New("elements are not part of the same model")

// ErrEmptyDomain is returned when a variable has no possible value.
var ErrEmptyDomain = errors.New("variable has an empty domain")

// IntVar references an integer variable of a Model.
type IntVar struct {
	index int
	model *Model
}

// Index returns the position of the variable in the model.
func (v IntVar) Index() int { return v.index }

// Valid reports whether the variable belongs to a model.
func (v IntVar) Valid() bool { return v.model != nil }

// BoolVar is an integer variable restricted to {0, 1}.
type BoolVar struct {
	IntVar
}

// IntervalVar references an interval of a Model.
type IntervalVar struct {
	index int
	model *Model
}

// Index returns the position of the interval in the model.
func (iv IntervalVar) Index() int { return iv.index }

// Op is the comparison of a linear constraint.
type Op int

const (
	LessOrEqual Op = iota
	Equal
	GreaterOrEqual
)

func (o Op) String() string {
	switch o {
	case LessOrEqual:
		return "<="
	case Equal:
		return "=="
	default:
		return ">="
	}
}

// Term is one coefficient * variable product of a linear expression.
type Term struct {
	Var   IntVar
	Coeff int64
}

// Linear is sum(Terms) Op RHS, only enforced when every Enforce literal is true.
type Linear struct {
	Terms   []Term
	Op      Op
	RHS     int64
	Enforce []BoolVar
}

// Interval ties Start + Size == End when Presence is true.
type Interval struct {
	Name     string
	Start    IntVar
	Size     IntVar
	End      IntVar
	Presence BoolVar
}

// MaxEquality constrains Target == max(Vars), or 0 when Vars is empty.
type MaxEquality struct {
	Target IntVar
	Vars   []IntVar
}

// Constraint is a handle on a linear constraint that can be gated.
type Constraint struct {
	index int
	model *Model
}

// OnlyEnforceIf gates the constraint on the given literals.
func (c Constraint) OnlyEnforceIf(lits ...BoolVar) Constraint {
	l := &c.model.linears[c.index]
	l.Enforce = append(l.Enforce, lits...)
	return c
}

type variable struct {
	name   string
	domain Domain
}

// Model is a mutable constraint model. It is not safe for concurrent use
// while being built; once handed to a Solver it must not change.
type Model struct {
	vars        []variable
	linears     []Linear
	exactlyOne  [][]BoolVar
	intervals   []Interval
	noOverlaps  [][]IntervalVar
	maxEqs      []MaxEquality
	objective   *IntVar
	lowerBound  int64
	trueLiteral *BoolVar
	errs        []error
}

// NewModel returns an empty model.
func NewModel() *Model { return &Model{} }

// NewIntVar adds an integer variable with the given domain.
func (m *Model) NewIntVar(d Domain, name string) IntVar {
	if d.IsEmpty() {
		m.errs = append(m.errs, fmt.Errorf("%s: %w", name, ErrEmptyDomain))
	}
	m.vars = append(m.vars, variable{name: name, domain: d})
	return IntVar{index: len(m.vars) - 1, model: m}
}

// NewBoolVar adds a boolean variable.
func (m *Model) NewBoolVar(name string) BoolVar {
	return BoolVar{m.NewIntVar(NewDomain(0, 1), name)}
}

// NewConstant adds a variable fixed to v.
func (m *Model) NewConstant(v int64) IntVar {
	return m.NewIntVar(NewDomain(v, v), fmt.Sprintf("const_%d", v))
}

// TrueLiteral returns the shared literal fixed to true.
func (m *Model) TrueLiteral() BoolVar {
	if m.trueLiteral == nil {
		b := BoolVar{m.NewIntVar(NewDomain(1, 1), "true")}
		m.trueLiteral = &b
	}
	return *m.trueLiteral
}

// FalseLiteral returns a new literal fixed to false.
func (m *Model) FalseLiteral() BoolVar {
	return BoolVar{m.NewIntVar(NewDomain(0, 0), "false")}
}

// NewIntervalVar adds an interval. Start + Size == End is enforced when
// presence is true; an absent interval takes part in no constraint.
func (m *Model) NewIntervalVar(start, size, end IntVar, presence BoolVar, name string) IntervalVar {
	m.check(start, size, end, presence.IntVar)
	m.intervals = append(m.intervals, Interval{Name: name, Start: start, Size: size, End: end, Presence: presence})
	m.AddLinear([]Term{{end, 1}, {start, -1}, {size, -1}}, Equal, 0).OnlyEnforceIf(presence)
	return IntervalVar{index: len(m.intervals) - 1, model: m}
}

// AddLinear adds sum(terms) op rhs.
func (m *Model) AddLinear(terms []Term, op Op, rhs int64) Constraint {
	for _, t := range terms {
		m.check(t.Var)
	}
	m.linears = append(m.linears, Linear{Terms: append([]Term(nil), terms...), Op: op, RHS: rhs})
	return Constraint{index: len(m.linears) - 1, model: m}
}

// AddEquality adds a == b.
func (m *Model) AddEquality(a, b IntVar) Constraint {
	return m.AddLinear([]Term{{a, 1}, {b, -1}}, Equal, 0)
}

// AddEqualityConst adds a == c.
func (m *Model) AddEqualityConst(a IntVar, c int64) Constraint {
	return m.AddLinear([]Term{{a, 1}}, Equal, c)
}

// AddGreaterOrEqual adds a >= b.
func (m *Model) AddGreaterOrEqual(a, b IntVar) Constraint {
	return m.AddLinear([]Term{{a, 1}, {b, -1}}, GreaterOrEqual, 0)
}

// AddLessOrEqual adds a <= b.
func (m *Model) AddLessOrEqual(a, b IntVar) Constraint {
	return m.AddLinear([]Term{{a, 1}, {b, -1}}, LessOrEqual, 0)
}

// AddExactlyOne requires exactly one literal to be true.
func (m *Model) AddExactlyOne(lits ...BoolVar) {
	for _, l := range lits {
		m.check(l.IntVar)
	}
	if len(lits) == 0 {
		m.errs = append(m.errs, errors.New("exactly-one over an empty set"))
	}
	m.exactlyOne = append(m.exactlyOne, append([]BoolVar(nil), lits...))
}

// AddNoOverlap forbids any two present intervals of the group from overlapping.
func (m *Model) AddNoOverlap(ivs ...IntervalVar) {
	for _, iv := range ivs {
		if iv.model != m {
			m.errs = append(m.errs, ErrMixedModels)
		}
	}
	m.noOverlaps = append(m.noOverlaps, append([]IntervalVar(nil), ivs...))
}

// AddMaxEquality constrains target == max(vars).
func (m *Model) AddMaxEquality(target IntVar, vars []IntVar) {
	m.check(append([]IntVar{target}, vars...)...)
	m.maxEqs = append(m.maxEqs, MaxEquality{Target: target, Vars: append([]IntVar(nil), vars...)})
}

// Minimize sets the objective variable.
func (m *Model) Minimize(v IntVar) {
	m.check(v)
	m.objective = &v
}

// SetLowerBoundHint records a proven lower bound on the objective.
func (m *Model) SetLowerBoundHint(lb int64) { m.lowerBound = lb }

func (m *Model) check(vars ...IntVar) {
	for _, v := range vars {
		if v.model != m {
			m.errs = append(m.errs, ErrMixedModels)
			return
		}
	}
}

// Validate returns the first construction error, if any.
func (m *Model) Validate() error {
	if len(m.errs) > 0 {
		return errors.Join(m.errs...)
	}
	return nil
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// Domain returns the initial domain of a variable.
func (m *Model) Domain(v IntVar) Domain { return m.vars[v.index].domain }

// DomainAt returns the initial domain of the i-th variable.
func (m *Model) DomainAt(i int) Domain { return m.vars[i].domain }

// Name returns the variable name.
func (m *Model) Name(v IntVar) string { return m.vars[v.index].name }

// Linears returns the linear constraints, including interval links.
func (m *Model) Linears() []Linear { return m.linears }

// ExactlyOnes returns the exactly-one literal sets.
func (m *Model) ExactlyOnes() [][]BoolVar { return m.exactlyOne }

// Intervals returns the interval definitions.
func (m *Model) Intervals() []Interval { return m.intervals }

// Interval returns the definition of one interval.
func (m *Model) Interval(iv IntervalVar) Interval { return m.intervals[iv.index] }

// NoOverlaps returns the no-overlap groups.
func (m *Model) NoOverlaps() [][]IntervalVar { return m.noOverlaps }

// MaxEqualities returns the max-equality constraints.
func (m *Model) MaxEqualities() []MaxEquality { return m.maxEqs }

// Objective returns the variable to minimise, if any.
func (m *Model) Objective() (IntVar, bool) {
	if m.objective == nil {
		return IntVar{}, false
	}
	return *m.objective, true
}

// LowerBoundHint returns the recorded objective lower bound.
func (m *Model) LowerBoundHint() int64 { return m.lowerBound }

// Stats summarises the size of the model.
type Stats struct {
	Variables   int `json:"variables"`
	Linears     int `json:"linears"`
	ExactlyOnes int `json:"exactly_ones"`
	Intervals   int `json:"intervals"`
	NoOverlaps  int `json:"no_overlaps"`
}

// Stats returns size counters for logging.
func (m *Model) Stats() Stats {
	return Stats{
		Variables:   len(m.vars),
		Linears:     len(m.linears),
		ExactlyOnes: len(m.exactlyOne),
		Intervals:   len(m.intervals),
		NoOverlaps:  len(m.noOverlaps),
	}
}
