package hier

import "github.com/hmcos-go/hmcos/internal/graph"

// Build wraps every graph.Graph vertex as a hierarchical-graph vertex:
// Input/Output map 1:1, and every Op becomes a singleton Sequence. Edges
// are projected 1:1 from the underlying graph. No dominator information
// is computed here (SPEC_FULL.md §4.2) — JoinSequence and MakeGroup ask
// the internal/dom package for it on demand.
func Build(g *graph.Graph) *Graph {
	h := &Graph{Base: g}
	fromGraph := make([]int, len(g.Vertices))
	for i := range fromGraph {
		fromGraph[i] = -1
	}

	for _, gv := range g.Inputs {
		hv := h.newVertex(Vertex{Kind: KindInput, GraphVertex: gv, Group: noHier})
		fromGraph[gv] = hv
		h.Inputs = append(h.Inputs, hv)
	}
	for _, gv := range g.Outputs {
		hv := h.newVertex(Vertex{Kind: KindOutput, GraphVertex: gv, Group: noHier})
		fromGraph[gv] = hv
		h.Outputs = append(h.Outputs, hv)
	}
	for _, gv := range g.Ops {
		op := &g.Vertices[gv]
		seqInputs := dedupInts(filterParams(g, op.Inputs))
		seqOutputs := append([]int(nil), op.Outputs...)
		hv := h.newVertex(Vertex{
			Kind:       KindSequence,
			Ops:        []int{gv},
			SeqInputs:  seqInputs,
			SeqOutputs: seqOutputs,
			Group:      noHier,
		})
		fromGraph[gv] = hv
		h.Seqs = append(h.Seqs, hv)
	}

	for gv := range g.Vertices {
		hv := fromGraph[gv]
		for _, gs := range g.Vertices[gv].Succs {
			h.addSucc(hv, fromGraph[gs])
		}
	}

	return h
}

func filterParams(g *graph.Graph, vals []int) []int {
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		if v < 0 {
			continue // optional input slot
		}
		if g.Values[v].Kind == graph.ValueParameter {
			continue
		}
		out = append(out, v)
	}
	return out
}

func dedupInts(vals []int) []int {
	seen := make(map[int]bool, len(vals))
	out := vals[:0]
	for _, v := range vals {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
