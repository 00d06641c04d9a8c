// Package search is a depth-first branch-and-bound engine for cp models.
//
// Each node propagates bounds to a fixpoint, then branches on boolean
// literals, then on the order of pairs of present intervals sharing a
// no-overlap group, and finally on remaining integer variables. Once every
// literal and ordering is fixed the earliest-start assignment (all lower
// bounds) is tried first, which for precedence and disjunctive models is the
// optimal completion of the branch.
package search
