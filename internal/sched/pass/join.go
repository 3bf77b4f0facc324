// Package pass implements the two structural HierGraph-coarsening
// passes: JoinSequence and MakeGroup.
//
// Grounded on original_source/include/hos/sched/pass.hpp and
// src/sched/pass.cpp.
package pass

import (
	"github.com/pkg/errors"

	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/hier"
	"github.com/hmcos-go/hmcos/internal/optrait"
	"github.com/hmcos-go/hmcos/internal/sched/mem"
)

// JoinSequence greedily fuses linear runs of Sequences, in topological
// order, whenever doing so does not raise the fused chain's own running
// peak or final stable level relative to leaving the two chains
// separate. Fails fast (a precondition error, per SPEC_FULL.md §7) if h
// already contains any Group — MakeGroup must run after JoinSequence, not
// before.
//
// The memory check here is a local approximation of original_source's
// JoinVisitor::join guard: it replays only the candidate chain's own ops
// (not the whole graph's running schedule state, which JoinSequence has
// no access to before a schedule exists) and treats every value the
// Sequence still exposes as a SeqOutput as permanently live, so fusing
// never appears to free memory it does not actually free. See DESIGN.md.
func JoinSequence(g *graph.Graph, h *hier.Graph, reg *optrait.Registry) error {
	if len(h.Groups) > 0 {
		return errors.New("JoinSequence: HierGraph already contains groups")
	}

	changed := true
	for changed {
		changed = false
		for _, cur := range append([]int(nil), h.Seqs...) {
			if !h.IsLive(cur) {
				continue
			}
			v := &h.Vertices[cur]
			if len(v.Succs) != 1 {
				continue
			}
			next := v.Succs[0]
			if h.Vertices[next].Kind != hier.KindSequence || len(h.Vertices[next].Preds) != 1 {
				continue
			}
			if fuse(g, h, reg, cur, next) {
				changed = true
			}
		}
	}
	return nil
}

// fuse attempts to merge next into cur, returning whether it did.
func fuse(g *graph.Graph, h *hier.Graph, reg *optrait.Registry, cur, next int) bool {
	c := &h.Vertices[cur]
	n := &h.Vertices[next]

	combined := append(append([]int(nil), c.Ops...), n.Ops...)
	// The fused Sequence exposes only next's SeqOutputs (see below): cur's
	// single successor is next, so cur's own outputs die inside the chain.
	keepAlive := externallyUsed(h, next, combined)

	before := localPeak(g, reg, c.Ops, externallyUsed(h, cur, c.Ops))
	after := localPeak(g, reg, combined, keepAlive)
	if after.Peak() > before.Peak() || after.Latest() > before.Latest() {
		return false
	}

	c.Ops = combined
	c.SeqOutputs = n.SeqOutputs
	for _, extra := range n.SeqInputs {
		found := false
		for _, existing := range c.SeqInputs {
			if existing == extra {
				found = true
				break
			}
		}
		if !found {
			c.SeqInputs = append(c.SeqInputs, extra)
		}
	}

	for _, succ := range n.Succs {
		h.Vertices[cur].Succs = appendUnique(h.Vertices[cur].Succs, succ)
		for i, p := range h.Vertices[succ].Preds {
			if p == next {
				h.Vertices[succ].Preds[i] = cur
			}
		}
	}
	h.Vertices[cur].Succs = removeVal(h.Vertices[cur].Succs, next)

	h.Seqs = removeVal(h.Seqs, next)
	return true
}

func appendUnique(s []int, add int) []int {
	for _, v := range s {
		if v == add {
			return s
		}
	}
	return append(s, add)
}

func removeVal(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// externallyUsed returns the graph values a Sequence still needs to
// expose as outputs (its own SeqOutputs) — these must never be treated
// as killed when replaying a fusion candidate's local memory trace.
func externallyUsed(h *hier.Graph, seqIdx int, _ []int) map[int]bool {
	out := map[int]bool{}
	for _, v := range h.Vertices[seqIdx].SeqOutputs {
		out[v] = true
	}
	return out
}

// localPeak replays ops as an isolated chain: a value is considered
// killed only once every use within ops has been consumed, unless
// keepAlive marks it as still needed after the chain (in which case it
// never contributes to dec).
func localPeak(g *graph.Graph, reg *optrait.Registry, ops []int, keepAlive map[int]bool) mem.States {
	usesWithin := map[int]int{}
	for _, opIdx := range ops {
		for _, in := range g.Vertices[opIdx].Inputs {
			if in < 0 || g.Values[in].Kind == graph.ValueParameter {
				continue
			}
			usesWithin[in]++
		}
	}
	remaining := map[int]int{}
	for v, c := range usesWithin {
		remaining[v] = c
	}

	var states mem.States
	for _, opIdx := range ops {
		op := &g.Vertices[opIdx]
		var killed []int
		for _, in := range op.Inputs {
			if in < 0 || g.Values[in].Kind == graph.ValueParameter {
				continue
			}
			remaining[in]--
			if remaining[in] == 0 && !keepAlive[in] {
				killed = append(killed, in)
			}
		}
		inc, dec := mem.ComputeIncDec(g, reg, opIdx, killed)
		states = states.Append(inc, dec)
		for _, out := range op.Outputs {
			remaining[out] = usesWithin[out]
		}
	}
	return states
}
