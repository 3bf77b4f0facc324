package dom

import "testing"

func neighbors(edges map[int][]int) (succ, pred func(int) []int) {
	preds := map[int][]int{}
	for v, ss := range edges {
		for _, s := range ss {
			preds[s] = append(preds[s], v)
		}
	}
	return func(v int) []int { return edges[v] },
		func(v int) []int { return preds[v] }
}

func TestChain(t *testing.T) {
	// 0 -> 1 -> 2 -> 3
	edges := map[int][]int{0: {1}, 1: {2}, 2: {3}}
	succ, pred := neighbors(edges)
	tree := Build(0, 4, succ, pred)

	for v := 1; v < 4; v++ {
		if !tree.StrictlyDominates(v-1, v) {
			t.Errorf("expected %d to strictly dominate %d", v-1, v)
		}
	}
	if tree.IDom(0) != 0 {
		t.Errorf("root's idom should be itself, got %d", tree.IDom(0))
	}
}

func TestDiamond(t *testing.T) {
	// 0 -> 1, 0 -> 2, 1 -> 3, 2 -> 3
	edges := map[int][]int{0: {1, 2}, 1: {3}, 2: {3}}
	succ, pred := neighbors(edges)
	tree := Build(0, 4, succ, pred)

	if !tree.Dominates(0, 3) {
		t.Error("root should dominate the join point")
	}
	if tree.StrictlyDominates(1, 3) {
		t.Error("neither diamond arm should strictly dominate the join point")
	}
	if tree.StrictlyDominates(2, 3) {
		t.Error("neither diamond arm should strictly dominate the join point")
	}
	if tree.IDom(3) != 0 {
		t.Errorf("join point's immediate dominator should be the root, got %d", tree.IDom(3))
	}
}

func TestUnreached(t *testing.T) {
	edges := map[int][]int{0: {1}}
	succ, pred := neighbors(edges)
	tree := Build(0, 3, succ, pred)

	if tree.Reached(2) {
		t.Error("vertex 2 has no path from the root and should not be reached")
	}
	if tree.Dominates(0, 2) {
		t.Error("an unreached vertex cannot be dominated")
	}
}

func TestPostDominance(t *testing.T) {
	// Straight chain 0 -> 1 -> 2; build post-dominators by swapping succ/pred.
	edges := map[int][]int{0: {1}, 1: {2}}
	succ, pred := neighbors(edges)
	postTree := Build(2, 3, pred, succ)

	if !postTree.StrictlyDominates(2, 0) {
		t.Error("the sink should strictly post-dominate every upstream vertex")
	}
	if !postTree.StrictlyDominates(1, 0) {
		t.Error("vertex 1 should strictly post-dominate vertex 0 on a straight chain")
	}
}
