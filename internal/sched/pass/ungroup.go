package pass

import "github.com/hmcos-go/hmcos/internal/hier"

// Ungroup dissolves a Group back into its member Sequences, restoring the
// direct Sequence-to-Sequence edges MakeGroup replaced with edges to the
// Group vertex, using the PrevPreds/PrevSuccs shadow copies MakeGroup left
// behind. Used by the iterative-refinement driver (SPEC_FULL.md §4.8.3)
// on each Group that holds, or directly follows, a Sequence defining a
// value alive at the current order's peak, so the outer DP sees its
// members individually instead of as one atomic unit.
//
// Grounded on original_source's ungroup step in HierScheduler::Run.
func Ungroup(h *hier.Graph, groupIdx int) {
	gv := &h.Vertices[groupIdx]
	members := append([]int(nil), gv.Seqs...)

	for _, m := range members {
		mv := &h.Vertices[m]
		mv.Preds = append([]int(nil), mv.PrevPreds...)
		mv.Succs = append([]int(nil), mv.PrevSuccs...)
		mv.Group = hier.NoGroup
		h.Seqs = appendUnique(h.Seqs, m)
	}

	memberSet := toSet(members)
	for _, m := range members {
		mv := &h.Vertices[m]
		for _, p := range mv.Preds {
			if memberSet[p] {
				continue
			}
			pv := &h.Vertices[p]
			pv.Succs = appendUnique(removeVal(pv.Succs, groupIdx), m)
		}
		for _, s := range mv.Succs {
			if memberSet[s] {
				continue
			}
			sv := &h.Vertices[s]
			sv.Preds = appendUnique(removeVal(sv.Preds, groupIdx), m)
		}
	}

	h.Groups = removeVal(h.Groups, groupIdx)
}
