package sched

import (
	"log"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/hier"
	"github.com/hmcos-go/hmcos/internal/optrait"
	"github.com/hmcos-go/hmcos/internal/sched/life"
	"github.com/hmcos-go/hmcos/internal/sched/pass"
)

// ErrBudgetExceeded reports that the best schedule found exceeds a
// caller's budget once peak-targeted ungrouping has stopped changing the
// HierGraph.
// Per SPEC_FULL.md §7 this is a recoverable outcome, not a bug: callers
// are expected to retry with a larger budget or accept the returned
// best-effort order.
var ErrBudgetExceeded = errors.New("no schedule fits within budget")

// HierarchicalSchedule builds h from g, runs JoinSequence and MakeGroup,
// then repeatedly asks Scheduler for the current best order and inspects
// which Sequences define the values alive at that order's peak moment
// (life.Stat.PeakValues). Any such Sequence still trapped inside a Group
// — or feeding directly into one — is ungrouped, exposing it to the
// frontier DP individually, and the whole thing is rescheduled. This
// repeats until an iteration ungroups nothing, at which point the best
// order seen across every iteration is returned.
//
// Grounded on original_source's HierScheduler::Run driver loop
// (src/sched/sched.cpp), specifically its use of LifetimeAnalysis's
// peak_values to target ungrouping at the Sequences actually responsible
// for the observed peak, rather than ungrouping arbitrarily.
func HierarchicalSchedule(g *graph.Graph, reg *optrait.Registry, budget int64, isCellOutput pass.CellPredicate) ([]int, int64, error) {
	h := hier.Build(g)

	if err := pass.JoinSequence(g, h, reg); err != nil {
		return nil, 0, errors.Wrap(err, "HierarchicalSchedule")
	}
	if err := pass.MakeGroup(g, h, isCellOutput); err != nil {
		return nil, 0, errors.Wrap(err, "HierarchicalSchedule")
	}

	runID := uuid.New()
	var bestOrder []int
	bestPeak := int64(math.MaxInt64)

	for iter := 0; ; iter++ {
		log.Printf("HierarchicalSchedule[%s]: iteration %d, %d groups remaining", runID, iter, len(h.Groups))

		sc := New(g, h, reg)
		order, _, ok := sc.Schedule(math.MaxInt64)
		if !ok {
			return bestOrder, bestPeak, errors.New("HierarchicalSchedule: no valid schedule for the current HierGraph")
		}

		lts, err := life.Compute(g, reg, order)
		if err != nil {
			return nil, 0, errors.Wrap(err, "HierarchicalSchedule")
		}
		stat := life.NewStat(g, lts, len(order))
		peak := stat.Peak()

		if bestOrder == nil || peak < bestPeak {
			bestOrder, bestPeak = order, peak
		}

		if !ungroupPeakSequences(h, g, stat.PeakValues()) {
			break
		}
	}

	if bestPeak > budget {
		return bestOrder, bestPeak, ErrBudgetExceeded
	}
	return bestOrder, bestPeak, nil
}

// ungroupPeakSequences finds the Sequence that defines each peak-time
// value, ungroups it if a Group still holds it, and then walks its
// successors ungrouping any Group found immediately downstream — a
// peak-time Sequence gains the DP no flexibility if the very next thing
// it feeds is another fixed-interior Group. Reports whether anything was
// ungrouped, per SPEC_FULL.md §4.8.3's `changed` flag.
func ungroupPeakSequences(h *hier.Graph, g *graph.Graph, peakValues []int) bool {
	seqs := map[int]bool{}
	for _, v := range peakValues {
		if g.Values[v].Kind != graph.ValueResult {
			continue // Inputs and Parameters have no defining Sequence
		}
		if s := seqContainingOp(h, g.Values[v].Def); s >= 0 {
			seqs[s] = true
		}
	}

	changed := false
	for s := range seqs {
		sv := &h.Vertices[s]
		if sv.Group != hier.NoGroup {
			pass.Ungroup(h, sv.Group)
			changed = true
		}
		for {
			next := -1
			for _, succ := range sv.Succs {
				if h.Vertices[succ].Kind == hier.KindGroup {
					next = succ
					break
				}
			}
			if next < 0 {
				break
			}
			pass.Ungroup(h, next)
			changed = true
		}
	}
	return changed
}

// seqContainingOp returns the hier-vertex index of the Sequence whose Ops
// includes op, searching every Sequence vertex regardless of whether it
// is currently a live top-level unit or a Group member. Returns -1 if op
// belongs to no Sequence (it shouldn't, for any op index taken from a
// graph.Value.Def).
func seqContainingOp(h *hier.Graph, op int) int {
	for i := range h.Vertices {
		v := &h.Vertices[i]
		if v.Kind != hier.KindSequence {
			continue
		}
		for _, o := range v.Ops {
			if o == op {
				return i
			}
		}
	}
	return -1
}
