// Package sched implements the memory-aware scheduler: the two trivial
// baselines of SPEC_FULL.md §4.7, the frontier dynamic program of §4.8,
// its iterative-refinement driver (§4.8.3), and the Serenity sampler.
//
// Grounded on original_source/include/hos/sched/sched.hpp and
// src/sched/sched.cpp.
package sched

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/hier"
	"github.com/hmcos-go/hmcos/internal/optrait"
	"github.com/hmcos-go/hmcos/internal/sched/mem"
)

// unitOps returns the fixed op sequence a hierarchical-graph unit
// (Sequence or Group) contributes when scheduled. A Group's contents are
// always taken in the group-local reverse post order.
//
// original_source tries an RPO short-circuit first and falls back to a
// nested frontier DP with GroupContext memoization only when the RPO
// order would blow the local budget (§4.8.2, strategy 2). This
// repository always takes the RPO order: see DESIGN.md for why the
// nested-DP fallback is out of scope here, and why it does not affect
// this scheduler's correctness, only how tightly it can pack a Group's
// own interior in pathological cases.
func unitOps(h *hier.Graph, unit int) []int {
	v := &h.Vertices[unit]
	switch v.Kind {
	case hier.KindSequence:
		return v.Ops
	case hier.KindGroup:
		var ops []int
		for _, seq := range h.RangeInGroup(unit) {
			ops = append(ops, h.Vertices[seq].Ops...)
		}
		return ops
	default:
		return nil
	}
}

// replayUnit runs ops as an isolated chain against remaining (a
// value->uses-left map, mutated in place), returning the local,
// offset-zero memory-state trace those ops produce. Grounded on
// scheduleSequence/updateGroupUseCount's inc/dec bookkeeping.
func replayUnit(g *graph.Graph, reg *optrait.Registry, ops []int, remaining map[int]int) mem.States {
	var states mem.States
	for _, opIdx := range ops {
		op := &g.Vertices[opIdx]
		var killed []int
		for _, in := range op.Inputs {
			if in < 0 || g.Values[in].Kind == graph.ValueParameter {
				continue
			}
			remaining[in]--
			if remaining[in] == 0 {
				killed = append(killed, in)
			}
		}
		inc, dec := mem.ComputeIncDec(g, reg, opIdx, killed)
		states = states.Append(inc, dec)
		for _, out := range op.Outputs {
			remaining[out] = len(g.Values[out].Uses)
		}
	}
	return states
}

// Scheduler computes a memory-minimizing op order for a HierGraph via a
// memoized frontier DP. See DESIGN.md for how its memoization
// (offset-independent suffix caching keyed by frontier + remaining-use
// snapshot) simplifies original_source's absolute-state, budget-pruned
// search while preserving the same externally observable contract:
// Schedule returns ok=false when the true minimum peak still exceeds the
// caller's budget.
type Scheduler struct {
	g    *graph.Graph
	h    *hier.Graph
	reg  *optrait.Registry
	memo map[string]*suffix
}

type suffix struct {
	order  []int
	states mem.States
}

// New builds a Scheduler over g's hierarchical graph h.
func New(g *graph.Graph, h *hier.Graph, reg *optrait.Registry) *Scheduler {
	return &Scheduler{g: g, h: h, reg: reg, memo: map[string]*suffix{}}
}

// Schedule returns the minimum-peak op order, and false if that peak
// still exceeds budget (a normal, recoverable outcome per SPEC_FULL.md
// §7, not an error).
func (sc *Scheduler) Schedule(budget int64) ([]int, int64, bool) {
	remaining := sc.initRemaining()
	best, ok := sc.best(map[int]bool{}, remaining)
	if !ok {
		return nil, 0, false
	}
	peak := best.states.Peak()
	if peak > budget {
		return nil, peak, false
	}
	return best.order, peak, true
}

func (sc *Scheduler) initRemaining() map[int]int {
	remaining := make(map[int]int, len(sc.g.Values))
	for i, v := range sc.g.Values {
		if v.Kind != graph.ValueParameter {
			remaining[i] = len(v.Uses)
		}
	}
	return remaining
}

func (sc *Scheduler) units() []int {
	all := append(append([]int(nil), sc.h.Seqs...), sc.h.Groups...)
	sort.Ints(all)
	return all
}

func (sc *Scheduler) frontier(scheduled map[int]bool) []int {
	var out []int
	for _, u := range sc.units() {
		if scheduled[u] {
			continue
		}
		ready := true
		for _, p := range sc.h.Vertices[u].Preds {
			if sc.h.Vertices[p].Kind == hier.KindInput {
				continue
			}
			if !scheduled[p] {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, u)
		}
	}
	return out
}

func cloneIntBoolMap(m map[int]bool) map[int]bool {
	c := make(map[int]bool, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneIntIntMap(m map[int]int) map[int]int {
	c := make(map[int]int, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// frontierKey builds a deterministic cache key from a ready-set and the
// remaining-use snapshot at that point, shared by Scheduler's whole-graph
// DP and serenity.go's group-scoped DP so both memoize the same way.
func frontierKey(frontier []int, remaining map[int]int) string {
	fr := append([]int(nil), frontier...)
	sort.Ints(fr)
	var b strings.Builder
	for _, f := range fr {
		b.WriteString(strconv.Itoa(f))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	type kv struct{ k, v int }
	var pairs []kv
	for k, v := range remaining {
		if v > 0 {
			pairs = append(pairs, kv{k, v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })
	for _, p := range pairs {
		b.WriteString(strconv.Itoa(p.k))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(p.v))
		b.WriteByte(',')
	}
	return b.String()
}

func (sc *Scheduler) best(scheduled map[int]bool, remaining map[int]int) (*suffix, bool) {
	frontier := sc.frontier(scheduled)
	if len(frontier) == 0 {
		return &suffix{}, true
	}

	key := frontierKey(frontier, remaining)
	if cached, ok := sc.memo[key]; ok {
		return cached, true
	}

	var best *suffix
	for _, u := range frontier {
		ops := unitOps(sc.h, u)
		localRemaining := cloneIntIntMap(remaining)
		localStates := replayUnit(sc.g, sc.reg, ops, localRemaining)

		newScheduled := cloneIntBoolMap(scheduled)
		newScheduled[u] = true

		rest, ok := sc.best(newScheduled, localRemaining)
		if !ok {
			continue
		}
		combined := &suffix{
			order:  append(append([]int(nil), ops...), rest.order...),
			states: localStates.Extend(rest.states),
		}
		if best == nil || combined.states.Peak() < best.states.Peak() {
			best = combined
		}
	}
	if best == nil {
		return nil, false
	}
	sc.memo[key] = best
	return best, true
}
