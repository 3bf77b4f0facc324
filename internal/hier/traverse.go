package hier

// ReversePostOrder walks h from its HierInputs in a deterministic
// depth-first post-order and returns the reverse, so that every
// vertex appears after all of its predecessors (a valid topological
// order). Successor lists are walked in index order, so the result is
// stable across calls for an unmutated graph, per SPEC_FULL.md §5.
//
// Grounded on original_source's Graph::Traverse (src/core/graph.cpp),
// generalized here to the hierarchical graph.
func (h *Graph) ReversePostOrder() []int {
	visited := make([]bool, len(h.Vertices))
	var order []int

	var visit func(v int)
	visit = func(v int) {
		if visited[v] {
			return
		}
		visited[v] = true
		for _, s := range h.Vertices[v].Succs {
			visit(s)
		}
		order = append(order, v)
	}
	for _, in := range h.Inputs {
		visit(in)
	}
	// Any vertex not reachable from a HierInput (e.g. a Sequence whose
	// only inputs are parameters) still needs scheduling.
	for _, s := range h.Seqs {
		visit(s)
	}
	for _, g := range h.Groups {
		visit(g)
	}

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// RangeInGroup returns the group's contained Sequences in the group-local
// reverse post order (predecessors before successors, restricted to the
// group's own membership). Grounded on original_source's RpoHierRange,
// used by scheduleGroupRpo's short-circuit strategy.
func (h *Graph) RangeInGroup(groupIdx int) []int {
	member := make(map[int]bool, len(h.Vertices[groupIdx].Seqs))
	for _, s := range h.Vertices[groupIdx].Seqs {
		member[s] = true
	}
	visited := make(map[int]bool, len(member))
	var order []int

	var visit func(v int)
	visit = func(v int) {
		if visited[v] {
			return
		}
		visited[v] = true
		for _, s := range h.Vertices[v].Succs {
			if member[s] {
				visit(s)
			}
		}
		order = append(order, v)
	}
	for _, s := range h.Vertices[groupIdx].Entrs {
		visit(s)
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
