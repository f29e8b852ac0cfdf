package saga

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// plan tracks step dependencies as a directed graph. Every appended step
// depends on the previously appended one, so the graph is always a single
// path and its topological order is exactly registration order.
type plan struct {
	graph *simple.DirectedGraph
	last  graph.Node
}

func newPlan() *plan {
	return &plan{graph: simple.NewDirectedGraph()}
}

// append adds a node for the next step and an edge from the current leaf.
// Node IDs are assigned in sequence starting at zero and line up with the
// saga's step indices.
func (p *plan) append() int64 {
	n := p.graph.NewNode()
	p.graph.AddNode(n)
	if p.last != nil {
		p.graph.SetEdge(simple.Edge{F: p.last, T: n})
	}
	p.last = n
	return n.ID()
}

// order returns the step indices in execution order using a stabilized
// topological sort with node IDs as the tie-breaker.
func (p *plan) order() []int64 {
	sorted, err := topo.SortStabilized(p.graph, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool {
			return nodes[i].ID() < nodes[j].ID()
		})
	})
	if err != nil {
		// A chain cannot contain a cycle.
		panic(fmt.Sprintf("saga: execution plan is not acyclic: %v; this is a bug in the framework", err))
	}

	order := make([]int64, len(sorted))
	for i, n := range sorted {
		order[i] = n.ID()
	}
	return order
}
