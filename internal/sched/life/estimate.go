package life

import (
	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/optrait"
	"github.com/hmcos-go/hmcos/internal/sched/mem"
)

// EstimatePeak is life.Compute's cheap sibling: it replays order with the
// same remaining-use bookkeeping mem.ComputeIncDec relies on, but only
// tracks the running transient peak rather than materializing a full
// Lifetime list. Graph inputs count as resident before the first op, as
// in Stat.Histogram. Used by comparison tooling (cmd/hmcos's baseline
// peak, via schedule.EstimatePeak) that only needs a peak number.
//
// Grounded on original_source/src/sched/life.cpp's EstimatePeak.
func EstimatePeak(g *graph.Graph, reg *optrait.Registry, order []int) int64 {
	remaining := make(map[int]int, len(g.Values))
	var inputBytes int64
	for _, gv := range g.Inputs {
		v := g.Vertices[gv].Value
		remaining[v] = len(g.Values[v].Uses)
		inputBytes += g.Values[v].Type.Size()
	}

	states := mem.States{Transient: []int64{inputBytes}, Stable: []int64{inputBytes}}
	for _, opIdx := range order {
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
	return states.Peak()
}
