package pass

import (
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/hmcos-go/hmcos/internal/dom"
	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/hier"
)

// IntrusionSkipThreshold is the "≤2 skipped" heuristic from
// SPEC_FULL.md §9's Open Questions: an intrusion candidate set at or
// below this size is not worth splitting into a second group. Preserved
// as a named, documented constant rather than an inline magic number,
// exactly because the source gives no derivation for the value.
const IntrusionSkipThreshold = 2

// CellPredicate decides whether a Sequence is a cell output: the sink of
// a small reconvergent subgraph that MakeGroup should isolate.
type CellPredicate func(g *graph.Graph, h *hier.Graph, seqIdx int) bool

// DefaultCellPredicate recognizes a Sequence whose first op is a Concat,
// matching original_source's MakeGroupPass default.
func DefaultCellPredicate(g *graph.Graph, h *hier.Graph, seqIdx int) bool {
	ops := h.Vertices[seqIdx].Ops
	if len(ops) == 0 {
		return false
	}
	return g.Vertices[ops[0]].OpType == "Concat"
}

// MakeGroup finds cell-output Sequences via isCellOutput (nil selects
// DefaultCellPredicate) and wraps each one's post-dominance cone as a
// Group. Grounded on original_source's MakeGroupPass::Run.
func MakeGroup(g *graph.Graph, h *hier.Graph, isCellOutput CellPredicate) error {
	if isCellOutput == nil {
		isCellOutput = DefaultCellPredicate
	}

	for _, s := range h.Seqs {
		h.Vertices[s].PrevPreds = append([]int(nil), h.Vertices[s].Preds...)
		h.Vertices[s].PrevSuccs = append([]int(nil), h.Vertices[s].Succs...)
	}

	if len(h.Inputs) == 0 || len(h.Outputs) == 0 {
		return nil // nothing to do on a graph with no boundary vertices
	}
	if len(h.Inputs) > 1 {
		log.Printf("MakeGroup: hier graph has %d inputs, building dominator tree from the first only", len(h.Inputs))
	}
	if len(h.Outputs) > 1 {
		log.Printf("MakeGroup: hier graph has %d outputs, building post-dominator tree from the first only", len(h.Outputs))
	}

	n := len(h.Vertices)
	succ := func(v int) []int { return h.Vertices[v].Succs }
	pred := func(v int) []int { return h.Vertices[v].Preds }
	domTree := dom.Build(h.Inputs[0], n, succ, pred)
	postTree := dom.Build(h.Outputs[0], n, pred, succ)

	for _, c := range h.ReversePostOrder() {
		if h.Vertices[c].Kind != hier.KindSequence || h.Vertices[c].Group != hier.NoGroup {
			continue
		}
		if !isCellOutput(g, h, c) {
			continue
		}
		makeGroupFromCell(g, h, domTree, postTree, c)
	}
	return nil
}

func makeGroupFromCell(g *graph.Graph, h *hier.Graph, domTree, postTree *dom.Tree, c int) {
	var inbound []int
	for _, s := range h.Seqs {
		if h.Vertices[s].Group != hier.NoGroup {
			continue
		}
		if postTree.Dominates(c, s) {
			inbound = append(inbound, s)
		}
	}
	if len(inbound) <= 1 {
		return
	}

	var intrusion []int
	inboundSet := toSet(inbound)
	for _, s := range h.Seqs {
		if h.Vertices[s].Group != hier.NoGroup || inboundSet[s] {
			continue
		}
		if domTree.Dominates(c, s) {
			intrusion = append(intrusion, s)
		}
	}

	if len(intrusion) > IntrusionSkipThreshold {
		// The intruded side pulls in enough extra sequences that folding
		// it into the cell's own group would blur the cell's boundary;
		// split into two independent groups instead, one for the cell
		// (inbound side) and one for what it intrudes into (outbound
		// side), matching original_source's makeGroupFromCell split.
		createGroup(g, h, inbound)
		createGroup(g, h, intrusion)
		return
	}

	createGroup(g, h, inbound)
}

func toSet(vals []int) map[int]bool {
	s := make(map[int]bool, len(vals))
	for _, v := range vals {
		s[v] = true
	}
	return s
}

// createGroup wraps members (Sequence hier-vertex indices) in a new
// Group vertex, redirecting boundary edges to point at the Group instead
// of the individual member Sequences.
func createGroup(g *graph.Graph, h *hier.Graph, members []int) {
	memberSet := toSet(members)
	memberOps := map[int]bool{}
	for _, m := range members {
		for _, op := range h.Vertices[m].Ops {
			memberOps[op] = true
		}
	}

	groupIdx := len(h.Vertices)
	group := hier.Vertex{Kind: hier.KindGroup, ID: uuid.New(), Seqs: append([]int(nil), members...), Group: hier.NoGroup}
	h.Vertices = append(h.Vertices, group)

	consumed := map[int]int{}
	produced := map[int]int{}

	for _, m := range members {
		mv := &h.Vertices[m]
		// Entrs/Exits (all external neighbors, vacuously true for none) and
		// InFront/OutFront (at least one external neighbor) are distinct
		// quantifiers over the same neighbor loop, matching
		// original_source's SequenceDetector, which computes an
		// AND-accumulated "isSink" (entrs/exits) alongside an
		// OR-accumulated "isFrontier" (inFront/outFront) in one pass.
		allExternalIn := true
		anyExternalIn := false
		for _, p := range mv.Preds {
			if memberSet[p] {
				allExternalIn = false
				continue
			}
			anyExternalIn = true
			h.RemoveEdge(p, m)
			h.AddSucc(p, groupIdx)
		}
		if anyExternalIn {
			h.Vertices[groupIdx].InFront = append(h.Vertices[groupIdx].InFront, m)
		}
		if allExternalIn {
			h.Vertices[groupIdx].Entrs = append(h.Vertices[groupIdx].Entrs, m)
		}
		for _, in := range mv.SeqInputs {
			if !memberOps[g.Values[in].Def] {
				consumed[in]++
			}
		}

		allExternalOut := true
		anyExternalOut := false
		for _, s := range append([]int(nil), mv.Succs...) {
			if memberSet[s] {
				allExternalOut = false
				continue
			}
			anyExternalOut = true
			h.RemoveEdge(m, s)
			h.AddSucc(groupIdx, s)
		}
		if anyExternalOut {
			h.Vertices[groupIdx].OutFront = append(h.Vertices[groupIdx].OutFront, m)
		}
		if allExternalOut {
			h.Vertices[groupIdx].Exits = append(h.Vertices[groupIdx].Exits, m)
		}
		for _, out := range mv.SeqOutputs {
			external := 0
			for _, use := range g.Values[out].Uses {
				if !memberOps[use] {
					external++
				}
			}
			if external > 0 {
				produced[out] = external
			}
		}

		mv.Group = groupIdx
	}

	h.Vertices[groupIdx].Consumed = toValueCounts(consumed)
	h.Vertices[groupIdx].Produced = toValueCounts(produced)

	remaining := h.Seqs[:0]
	for _, s := range h.Seqs {
		if !memberSet[s] {
			remaining = append(remaining, s)
		}
	}
	h.Seqs = remaining
	h.Groups = append(h.Groups, groupIdx)
}

func toValueCounts(m map[int]int) []hier.ValueCount {
	out := make([]hier.ValueCount, 0, len(m))
	for v, c := range m {
		out = append(out, hier.ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
