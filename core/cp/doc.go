// Package cp describes constraint programming models in a solver neutral way.
//
// A Model holds integer and boolean variables with explicit finite domains,
// linear constraints that may be gated by a boolean literal, exactly-one
// sets, optional intervals with per-resource no-overlap groups, max
// equalities and a single minimisation objective. A Solver turns a Request
// into a Response carrying a terminal Status and, for OPTIMAL or FEASIBLE,
// one value per variable.
package cp
