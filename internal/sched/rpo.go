package sched

import "github.com/hmcos-go/hmcos/internal/graph"

// ReversePostOrder is the cheapest baseline schedule: a flat, single-pass
// topological order over g's op vertices with no memory awareness at
// all. Every other scheduler in this package is judged against its
// peak (SPEC_FULL.md §8, invariant 2).
//
// Grounded on original_source's Graph::Traverse, applied directly to the
// flat graph rather than the hierarchical one.
func ReversePostOrder(g *graph.Graph) []int {
	visited := make([]bool, len(g.Vertices))
	var order []int

	var visit func(v int)
	visit = func(v int) {
		if visited[v] {
			return
		}
		visited[v] = true
		for _, s := range g.Vertices[v].Succs {
			visit(s)
		}
		order = append(order, v)
	}
	for _, in := range g.Inputs {
		visit(in)
	}
	for _, op := range g.Ops {
		visit(op)
	}

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	ops := order[:0]
	for _, v := range order {
		if g.Vertices[v].Kind == graph.VertexOp {
			ops = append(ops, v)
		}
	}
	return ops
}
