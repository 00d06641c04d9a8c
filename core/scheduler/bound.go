package scheduler

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kilianp07/killchain/core/model"
)

// lowerBound returns a makespan no schedule can beat: the longest chain of
// minimum durations through the precedence graph, or the total duration a
// platform must serve for slots it alone can perform, whichever is larger.
// The graph holds one edge per slot from its previous present slot; tied
// platform groups need no edges since their slots are already chained.
func (p *Problem) lowerBound() (int64, error) {
	g := simple.NewDirectedGraph()
	for i := range p.Slots {
		g.AddNode(simple.Node(int64(i)))
	}
	for i, s := range p.Slots {
		if s.Prev >= 0 {
			g.SetEdge(g.NewEdge(simple.Node(int64(s.Prev)), simple.Node(int64(i))))
		}
	}
	order, err := topo.Sort(g)
	if err != nil {
		return 0, fmt.Errorf("%w: precedence graph: %v", ErrModelConstruction, err)
	}

	minDur := make([]int64, len(p.Slots))
	for i, s := range p.Slots {
		minDur[i] = p.Alts[s.Alts[0]].Alternative.Duration
	}
	finish := make([]int64, len(p.Slots))
	var bound int64
	for _, n := range order {
		id := n.ID()
		var start int64
		preds := g.To(id)
		for preds.Next() {
			start = max(start, finish[preds.Node().ID()])
		}
		finish[id] = start + minDur[id]
		bound = max(bound, finish[id])
	}

	mandatory := make(map[model.PlatformID]int64)
	for _, s := range p.Slots {
		if len(s.Alts) != 1 {
			continue
		}
		a := p.Alts[s.Alts[0]].Alternative
		mandatory[a.Platform] += a.Duration
	}
	for _, load := range mandatory {
		bound = max(bound, load)
	}
	return bound, nil
}
