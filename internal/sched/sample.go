package sched

import (
	"math/rand"

	"github.com/hmcos-go/hmcos/internal/hier"
)

// RandomSample draws one uniformly-random topological order of h's units
// (Sequences and Groups), expanding each unit via unitOps. A Group's own
// interior is always taken in its fixed RPO order — see the unitOps
// doc comment for why this repository does not also randomize inside
// groups.
//
// rng must be supplied by the caller (SPEC_FULL.md §5 forbids a hidden
// global RNG so sampling stays reproducible from a caller-chosen seed).
//
// Grounded on original_source's flat-graph sampler, RandomSample/
// sampleVertex/extractZeroIn (src/sched/sched.cpp), which draws its
// candidate orders the same way: repeatedly pick a uniformly random
// ready vertex off the current frontier. serenity.go's sampleGroupOrder
// is the same shape restricted to one Group's own members.
func RandomSample(h *hier.Graph, rng *rand.Rand) []int {
	scheduled := make(map[int]bool)
	all := append(append([]int(nil), h.Seqs...), h.Groups...)

	ready := func() []int {
		var out []int
		for _, u := range all {
			if scheduled[u] {
				continue
			}
			ok := true
			for _, p := range h.Vertices[u].Preds {
				if h.Vertices[p].Kind == hier.KindInput {
					continue
				}
				if !scheduled[p] {
					ok = false
					break
				}
			}
			if ok {
				out = append(out, u)
			}
		}
		return out
	}

	var order []int
	for {
		frontier := ready()
		if len(frontier) == 0 {
			break
		}
		pick := frontier[rng.Intn(len(frontier))]
		order = append(order, unitOps(h, pick)...)
		scheduled[pick] = true
	}
	return order
}
