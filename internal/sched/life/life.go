// Package life implements lifetime analysis (SPEC_FULL.md §4.5): given a
// complete linear op order, compute each value's [gen, kill) interval and
// derive peak memory usage from the resulting histogram.
//
// Grounded on original_source/include/hos/sched/life.hpp and
// src/sched/life.cpp.
package life

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/optrait"
	"github.com/hmcos-go/hmcos/internal/sched/mem"
)

// TimeInput marks a value alive before any op has run (a graph input).
const TimeInput = -1

// Lifetime is the half-open interval [Gen, Kill) during which Value must
// be resident.
type Lifetime struct {
	Value int
	Gen   int
	Kill  int
}

// Compute returns one Lifetime per non-parameter value defined or
// consumed while running order (a permutation of g.Ops). Parameters are
// excluded per SPEC_FULL.md §9's codified Open-Question decision: they
// never enter the memory model.
func Compute(g *graph.Graph, reg *optrait.Registry, order []int) ([]Lifetime, error) {
	if len(order) != len(g.Ops) {
		return nil, errors.Errorf("life: order has %d ops, graph has %d", len(order), len(g.Ops))
	}
	remaining := make(map[int]int)
	lifetimes := make(map[int]*Lifetime)

	isParam := func(v int) bool { return g.Values[v].Kind == graph.ValueParameter }

	for _, gv := range g.Inputs {
		v := g.Vertices[gv].Value
		remaining[v] = len(g.Values[v].Uses)
		lifetimes[v] = &Lifetime{Value: v, Gen: TimeInput}
	}

	for i, opIdx := range order {
		op := &g.Vertices[opIdx]

		var killedHere []int
		for _, in := range op.Inputs {
			if in < 0 || isParam(in) {
				continue
			}
			if _, ok := remaining[in]; !ok {
				return nil, errors.Errorf("life: value %q used before it is defined", g.Values[in].Name)
			}
			remaining[in]--
			if remaining[in] == 0 {
				killedHere = append(killedHere, in)
			}
		}

		overlap := mem.OverlapInput(g, reg, opIdx, killedHere)
		for _, k := range killedHere {
			end := i + 1
			if k == overlap {
				end = i
			}
			lifetimes[k].Kill = end
		}

		for _, out := range op.Outputs {
			remaining[out] = len(g.Values[out].Uses)
			lifetimes[out] = &Lifetime{Value: out, Gen: i}
		}
	}

	n := len(order)
	for v, lt := range lifetimes {
		if lt.Kill == 0 && remaining[v] > 0 {
			// Only remaining use left is a graph Output vertex, which
			// never appears in `order`.
			lt.Kill = n
		}
	}

	out := make([]Lifetime, 0, len(lifetimes))
	for _, lt := range lifetimes {
		out = append(out, *lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}
