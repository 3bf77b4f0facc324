// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package schedule computes a memory-minimizing operator execution order
// for a graph.Graph, and turns that order into a concrete byte-offset
// memory plan.
//
// # Example Usage
//
//	g, err := graph.Build(onnx.NewSource(model))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	order, peak, err := schedule.Run(g, 64<<20) // 64 MiB budget
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("peak bytes:", peak)
package schedule

import (
	"math/rand"

	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/hier"
	"github.com/hmcos-go/hmcos/internal/optrait"
	"github.com/hmcos-go/hmcos/internal/sched"
	"github.com/hmcos-go/hmcos/internal/sched/life"
	"github.com/hmcos-go/hmcos/internal/sched/pass"
	"github.com/hmcos-go/hmcos/internal/sched/plan"
)

// Order is a schedule: a permutation of a graph.Graph's op vertex
// indices, valid to feed straight into life.Compute or plan.BestFit.
type Order = []int

// CellPredicate lets a caller override which Sequences MakeGroup treats
// as cell outputs; nil selects the Concat-based default.
type CellPredicate = pass.CellPredicate

// ErrBudgetExceeded is returned by Run when the best schedule found does
// not fit within the requested budget once the peak-targeted ungrouping
// loop has stopped changing the hierarchical graph.
var ErrBudgetExceeded = sched.ErrBudgetExceeded

// Run computes the minimum-peak schedule for g under budget bytes, using
// a fresh default op-trait registry. It returns the best order found and
// its peak even when it also returns ErrBudgetExceeded, so a caller may
// still choose to use a not-quite-fitting result.
func Run(g *graph.Graph, budget int64) (Order, int64, error) {
	reg := optrait.NewRegistry()
	return sched.HierarchicalSchedule(g, reg, budget, nil)
}

// RunWithCellPredicate is Run with a caller-supplied CellPredicate,
// for graphs whose cell-forming op differs from Concat.
func RunWithCellPredicate(g *graph.Graph, budget int64, isCellOutput CellPredicate) (Order, int64, error) {
	reg := optrait.NewRegistry()
	return sched.HierarchicalSchedule(g, reg, budget, isCellOutput)
}

// Baseline returns the cheapest possible schedule: a flat reverse
// post-order traversal with no memory awareness. Useful as the
// upper-bound comparison point for Run's result.
func Baseline(g *graph.Graph) Order {
	return sched.ReversePostOrder(g)
}

// SerenityConfig controls the random-sampling scheduler; see
// sched.SerenityConfig.
type SerenityConfig = sched.SerenityConfig

// RunSerenity estimates a low-peak schedule by sampling cfg.Samples
// group-local random orders to budget each Group, for graphs too wide
// for Run's exact DP to finish quickly.
func RunSerenity(g *graph.Graph, cfg SerenityConfig) (Order, int64) {
	reg := optrait.NewRegistry()
	return sched.SerenitySchedule(g, reg, cfg)
}

// RandomSample draws one uniformly-random schedule for g, for callers
// building their own sampling loop instead of using RunSerenity.
func RandomSample(g *graph.Graph, rng *rand.Rand) Order {
	h := hier.Build(g)
	return sched.RandomSample(h, rng)
}

// Lifetime, Analyze, and EstimatePeak expose the lifetime-analysis layer a
// computed Order feeds into.
type Lifetime = life.Lifetime

// Analyze runs full lifetime analysis over order, the input to
// MemoryPlan.
func Analyze(g *graph.Graph, order Order) (*life.Stat, error) {
	reg := optrait.NewRegistry()
	lifetimes, err := life.Compute(g, reg, order)
	if err != nil {
		return nil, err
	}
	return life.NewStat(g, lifetimes, len(order)), nil
}

// EstimatePeak is a cheap peak-only alternative to Analyze, for
// comparing many candidate orders without materializing each one's full
// lifetime list.
func EstimatePeak(g *graph.Graph, order Order) int64 {
	reg := optrait.NewRegistry()
	return life.EstimatePeak(g, reg, order)
}

// MemoryPlan is a concrete byte-offset layout, not just a peak number.
type MemoryPlan = plan.MemoryPlan

// Plan packs stat's lifetimes into a single arena using best-fit.
func Plan(g *graph.Graph, stat *life.Stat) MemoryPlan {
	return plan.BestFit(g, stat)
}
