package sched

import (
	"math"
	"math/rand"

	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/hier"
	"github.com/hmcos-go/hmcos/internal/optrait"
	"github.com/hmcos-go/hmcos/internal/parallel"
	"github.com/hmcos-go/hmcos/internal/sched/mem"
	"github.com/hmcos-go/hmcos/internal/sched/pass"
)

// DefaultSerenitySamples is the Open Question resolved in SPEC_FULL.md
// §9: the sample count N a caller gets if it does not name one itself.
const DefaultSerenitySamples = 10000

// SerenityConfig controls the sampler's cost/quality tradeoff, matching
// SPEC_FULL.md §6's serenity_schedule(graph, join_ops, try_simple,
// n_samples) interface.
type SerenityConfig struct {
	// Samples is how many group-local random orders to draw when
	// estimating a Group's budget. 0 selects DefaultSerenitySamples.
	Samples int
	// Seed makes a run reproducible; two SerenityConfigs with the same
	// Seed against the same graph draw the same sample sequence.
	Seed int64
	// Parallel enables internal/parallel fan-out across a Group's samples.
	Parallel bool
	// JoinOps runs pass.JoinSequence before pass.MakeGroup, fusing
	// zero-fanout op chains into single Sequences first.
	JoinOps bool
	// TrySimple attempts each Group's group-local reverse post order
	// before falling back to budget sampling, accepting it only if it
	// does not lift the running peak above what has already been seen.
	TrySimple bool
}

// SerenitySchedule walks h's top-level units (Sequences scheduled
// directly, Groups handled specially) in reverse post order. A Group
// either short-circuits via its own reverse post order when TrySimple
// is set and that order fits under the current headroom, or has its
// budget estimated by sampling cfg.Samples independent group-local
// random orders and is then scheduled by a frontier DP bounded to that
// budget. This bounds the DP's cost by the width of one Group at a
// time, rather than the whole graph's frontier, which is the entire
// point Serenity exists for on wide graphs.
//
// Grounded on original_source's SerenitySchedule (src/sched/sched.cpp),
// specifically its per-group sampleGroupPeak/scheduleGroupDp split.
func SerenitySchedule(g *graph.Graph, reg *optrait.Registry, cfg SerenityConfig) ([]int, int64) {
	n := cfg.Samples
	if n <= 0 {
		n = DefaultSerenitySamples
	}

	h := hier.Build(g)
	if cfg.JoinOps {
		_ = pass.JoinSequence(g, h, reg)
	}
	_ = pass.MakeGroup(g, h, nil)

	remaining := make(map[int]int, len(g.Values))
	for i, v := range g.Values {
		if v.Kind != graph.ValueParameter {
			remaining[i] = len(v.Uses)
		}
	}

	var order []int
	var states mem.States

	for _, unit := range h.ReversePostOrder() {
		v := &h.Vertices[unit]
		switch v.Kind {
		case hier.KindInput, hier.KindOutput:
			continue

		case hier.KindSequence:
			local := replayUnit(g, reg, v.Ops, remaining)
			order = append(order, v.Ops...)
			states = states.Extend(local)

		case hier.KindGroup:
			if cfg.TrySimple {
				headroom := states.Peak() - states.Latest()
				rpoOrder, rpoStates, ok := scheduleGroupRPO(g, reg, h, unit, remaining, headroom)
				if ok {
					order = append(order, rpoOrder...)
					states = states.Extend(rpoStates)
					continue
				}
			}

			budget := int64(math.MaxInt64)
			sampleRemaining := cloneIntIntMap(remaining)
			sample := func(i int) int64 {
				rng := rand.New(rand.NewSource(cfg.Seed + int64(unit)*int64(n) + int64(i)))
				return sampleGroupPeak(g, reg, h, unit, sampleRemaining, rng)
			}
			budget = sampleGroupBudget(n, sample, cfg.Parallel)

			groupOrder, groupStates, ok := scheduleGroupDP(g, reg, h, unit, remaining, budget)
			if !ok {
				// The sampled budget is always achievable by the order that
				// produced it, so this should not happen; fall back to an
				// unbounded group DP rather than dropping the group.
				groupOrder, groupStates, _ = scheduleGroupDP(g, reg, h, unit, remaining, math.MaxInt64)
			}
			order = append(order, groupOrder...)
			states = states.Extend(groupStates)
		}
	}

	return order, states.Peak()
}

// sampleGroupBudget runs n independent group-local samples and returns
// the lowest peak observed, honoring cfg.Parallel via internal/parallel.
func sampleGroupBudget(n int, sample func(i int) int64, useParallel bool) int64 {
	peaks := make([]int64, n)
	estimate := func(i int) { peaks[i] = sample(i) }

	if useParallel {
		parallel.For(n, estimate, parallel.DefaultConfig())
	} else {
		for i := 0; i < n; i++ {
			estimate(i)
		}
	}

	budget := int64(math.MaxInt64)
	for _, p := range peaks {
		if p < budget {
			budget = p
		}
	}
	return budget
}

// sampleGroupPeak draws one uniformly-random group-local order (via
// sampleGroupOrder) and replays it against a private copy of remaining,
// returning its peak. Grounded on sched.cpp's sampleGroupPeak.
func sampleGroupPeak(g *graph.Graph, reg *optrait.Registry, h *hier.Graph, groupIdx int, remaining map[int]int, rng *rand.Rand) int64 {
	localRemaining := cloneIntIntMap(remaining)
	order := sampleGroupOrder(h, groupIdx, rng)
	states := replayUnit(g, reg, order, localRemaining)
	return states.Peak()
}

// sampleGroupOrder draws one uniformly-random topological order of a
// Group's own member Sequences. MakeGroup redirects every
// boundary-crossing edge when it builds a Group, so a member's
// Preds/Succs here are already restricted to other members of the same
// group — no HierInput/HierOutput special-casing is needed, unlike
// RandomSample's whole-graph version.
func sampleGroupOrder(h *hier.Graph, groupIdx int, rng *rand.Rand) []int {
	members := h.Vertices[groupIdx].Seqs
	scheduled := make(map[int]bool, len(members))

	ready := func() []int {
		var out []int
		for _, m := range members {
			if scheduled[m] {
				continue
			}
			ok := true
			for _, p := range h.Vertices[m].Preds {
				if !scheduled[p] {
					ok = false
					break
				}
			}
			if ok {
				out = append(out, m)
			}
		}
		return out
	}

	var ops []int
	for {
		frontier := ready()
		if len(frontier) == 0 {
			break
		}
		pick := frontier[rng.Intn(len(frontier))]
		ops = append(ops, h.Vertices[pick].Ops...)
		scheduled[pick] = true
	}
	return ops
}

// scheduleGroupRPO schedules a Group's members in group-local reverse
// post order (h.RangeInGroup), rejecting the result if its peak ever
// exceeds budget. Almost always suboptimal, but cheap, and the result
// is only used when it does not lift the running peak — grounded on
// sched.cpp's scheduleGroupRpo.
func scheduleGroupRPO(g *graph.Graph, reg *optrait.Registry, h *hier.Graph, groupIdx int, remaining map[int]int, budget int64) ([]int, mem.States, bool) {
	localRemaining := cloneIntIntMap(remaining)
	var order []int
	var states mem.States
	for _, seqIdx := range h.RangeInGroup(groupIdx) {
		ops := h.Vertices[seqIdx].Ops
		local := replayUnit(g, reg, ops, localRemaining)
		states = states.Extend(local)
		if states.Peak() > budget {
			return nil, mem.States{}, false
		}
		order = append(order, ops...)
	}
	for k, val := range localRemaining {
		remaining[k] = val
	}
	return order, states, true
}

// groupSuffix is a group-scoped analogue of Scheduler's suffix, caching
// the best completion for a given group-local frontier and remaining-use
// snapshot.
type groupSuffix struct {
	order  []int
	states mem.States
}

// scheduleGroupDP finds the minimum-peak order of a Group's members that
// never exceeds budget, via a memoized frontier DP restricted to that
// Group — original_source's scheduleGroupDp, adapted to this
// repository's offset-independent suffix memoization (see Scheduler).
// Returns ok=false only if no member ordering stays within budget at
// every prefix.
func scheduleGroupDP(g *graph.Graph, reg *optrait.Registry, h *hier.Graph, groupIdx int, remaining map[int]int, budget int64) ([]int, mem.States, bool) {
	members := h.Vertices[groupIdx].Seqs
	memo := map[string]*groupSuffix{}

	frontier := func(scheduled map[int]bool) []int {
		var out []int
		for _, m := range members {
			if scheduled[m] {
				continue
			}
			ready := true
			for _, p := range h.Vertices[m].Preds {
				if !scheduled[p] {
					ready = false
					break
				}
			}
			if ready {
				out = append(out, m)
			}
		}
		return out
	}

	var best func(scheduled map[int]bool, remaining map[int]int) (*groupSuffix, bool)
	best = func(scheduled map[int]bool, remaining map[int]int) (*groupSuffix, bool) {
		fr := frontier(scheduled)
		if len(fr) == 0 {
			return &groupSuffix{}, true
		}

		key := frontierKey(fr, remaining)
		if cached, ok := memo[key]; ok {
			return cached, true
		}

		var bst *groupSuffix
		for _, m := range fr {
			ops := h.Vertices[m].Ops
			localRemaining := cloneIntIntMap(remaining)
			localStates := replayUnit(g, reg, ops, localRemaining)
			if localStates.Peak() > budget {
				continue
			}

			newScheduled := cloneIntBoolMap(scheduled)
			newScheduled[m] = true

			rest, ok := best(newScheduled, localRemaining)
			if !ok {
				continue
			}
			combined := &groupSuffix{
				order:  append(append([]int(nil), ops...), rest.order...),
				states: localStates.Extend(rest.states),
			}
			if combined.states.Peak() > budget {
				continue
			}
			if bst == nil || combined.states.Peak() < bst.states.Peak() {
				bst = combined
			}
		}
		if bst == nil {
			return nil, false
		}
		memo[key] = bst
		return bst, true
	}

	result, ok := best(map[int]bool{}, remaining)
	if !ok {
		return nil, mem.States{}, false
	}
	finalStates := replayUnit(g, reg, result.order, remaining)
	return result.order, finalStates, true
}
