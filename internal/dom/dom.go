// Package dom computes dominator trees with the Lengauer-Tarjan
// semi-dominator algorithm (simple eval/compress variant, without the
// balanced-forest linking of the original algorithm's fast version).
//
// The builder is parameterized over a pair of neighbor functions rather
// than hard-coded to a single graph type, per SPEC_FULL.md §4.1/§9: the
// same routine computes a dominator tree (succ = forward edges, pred =
// reverse edges) or a post-dominator tree (swap the two) for both
// internal/graph.Graph and internal/hier.HierGraph.
//
// Grounded on the Go compiler's own SSA dominator computation (retrieved
// as koleter-ngo__dom.go for this codebase), which implements the same
// textbook algorithm rather than the balanced-link-by-size forest of a
// from-scratch Lengauer-Tarjan.
package dom

// Tree is a dominator (or post-dominator) tree over vertex ids in
// [0, n). Vertices unreachable from the build root have no entry.
type Tree struct {
	root     int
	idom     []int // idom[v] = immediate dominator; the root is its own, -1 if unreachable
	children [][]int
	in, out  []int // preorder/postorder numbers for O(1) dominance queries
	reached  []bool
}

// Build computes the dominator tree rooted at root over n vertices, where
// succ(v) gives v's forward neighbors and pred(v) its reverse neighbors.
// Pass (succs, preds) for a dominator tree, or (preds, succs) for a
// post-dominator tree.
func Build(root, n int, succ, pred func(int) []int) *Tree {
	dfnum := make([]int, n)
	vertex := make([]int, 0, n)
	parent := make([]int, n)
	semi := make([]int, n)
	ancestor := make([]int, n)
	label := make([]int, n)
	idom := make([]int, n)
	bucket := make([][]int, n)
	for i := range dfnum {
		dfnum[i] = -1
		ancestor[i] = -1
		idom[i] = -1
	}

	// 1. Number vertices in DFS order over succ-edges.
	var dfs func(v int)
	dfs = func(v int) {
		dfnum[v] = len(vertex)
		semi[v] = dfnum[v]
		label[v] = v
		vertex = append(vertex, v)
		for _, w := range succ(v) {
			if dfnum[w] == -1 {
				parent[w] = v
				dfs(w)
			}
		}
	}
	dfs(root)
	nReached := len(vertex)

	var compress func(v int)
	compress = func(v int) {
		if a := ancestor[v]; ancestor[a] != -1 {
			compress(a)
			if semi[label[a]] < semi[label[v]] {
				label[v] = label[a]
			}
			ancestor[v] = ancestor[a]
		}
	}
	eval := func(v int) int {
		if ancestor[v] == -1 {
			return v
		}
		compress(v)
		return label[v]
	}

	// 2. Compute semi-dominators and implicit immediate dominators,
	// processing vertices in reverse DFS order.
	for i := nReached - 1; i >= 1; i-- {
		w := vertex[i]
		for _, v := range pred(w) {
			if dfnum[v] == -1 {
				continue // unreachable from root
			}
			u := eval(v)
			if semi[u] < semi[w] {
				semi[w] = semi[u]
			}
		}
		bucket[vertex[semi[w]]] = append(bucket[vertex[semi[w]]], w)
		ancestor[w] = parent[w]

		p := parent[w]
		for _, v := range bucket[p] {
			u := eval(v)
			if semi[u] < semi[v] {
				idom[v] = u
			} else {
				idom[v] = p
			}
		}
		bucket[p] = nil
	}

	// 3. Resolve deferred immediate dominators.
	for i := 1; i < nReached; i++ {
		w := vertex[i]
		if idom[w] != vertex[semi[w]] {
			idom[w] = idom[idom[w]]
		}
	}
	idom[root] = root

	t := &Tree{root: root, idom: idom, children: make([][]int, n), reached: make([]bool, n)}
	for i := 0; i < nReached; i++ {
		v := vertex[i]
		t.reached[v] = true
		if v != root {
			t.children[idom[v]] = append(t.children[idom[v]], v)
		}
	}

	t.in = make([]int, n)
	t.out = make([]int, n)
	counter := 0
	var number func(v int)
	number = func(v int) {
		counter++
		t.in[v] = counter
		for _, c := range t.children[v] {
			number(c)
		}
		counter++
		t.out[v] = counter
	}
	number(root)

	return t
}

// Reached reports whether v was reachable from the build root.
func (t *Tree) Reached(v int) bool { return t.reached[v] }

// IDom returns v's immediate dominator, or -1 if v is unreachable. The
// root is its own immediate dominator.
func (t *Tree) IDom(v int) int { return t.idom[v] }

// Dominates reports whether a dominates b (reflexively): every path from
// the build root to b passes through a. O(1) via preorder/postorder
// interval containment.
func (t *Tree) Dominates(a, b int) bool {
	if !t.reached[a] || !t.reached[b] {
		return false
	}
	return t.in[a] <= t.in[b] && t.out[a] >= t.out[b]
}

// StrictlyDominates reports a dominates b and a != b.
func (t *Tree) StrictlyDominates(a, b int) bool {
	return a != b && t.Dominates(a, b)
}

// Children returns the dominator-tree children of v.
func (t *Tree) Children(v int) []int { return t.children[v] }

// Root returns the build root.
func (t *Tree) Root() int { return t.root }
