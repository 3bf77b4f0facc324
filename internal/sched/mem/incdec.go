package mem

import (
	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/optrait"
)

// OverlapInput returns the input value index that opIdx's single output
// may alias, or -1 if none. An op is eligible when it carries the
// ElementWise trait, has exactly one output, and one of the values in
// killed (values whose last use is this op) has a Type identical to that
// output's. At most one input may be overlapped per op.
func OverlapInput(g *graph.Graph, reg *optrait.Registry, opIdx int, killed []int) int {
	op := &g.Vertices[opIdx]
	if len(op.Outputs) != 1 || !reg.Match(op.OpType, optrait.ElementWise) {
		return -1
	}
	outType := g.Values[op.Outputs[0]].Type
	for _, k := range killed {
		if !g.Values[k].Type.Equal(outType) {
			continue
		}
		for _, in := range op.Inputs {
			if in == k {
				return k
			}
		}
	}
	return -1
}

// ComputeIncDec computes the byte increment and decrement for scheduling
// opIdx, given the input value indices that are killed (reach zero
// remaining uses) at this step. Parameters must already be excluded from
// killed by the caller (they never occupy an activation budget).
func ComputeIncDec(g *graph.Graph, reg *optrait.Registry, opIdx int, killed []int) (inc, dec int64) {
	overlap := OverlapInput(g, reg, opIdx, killed)

	op := &g.Vertices[opIdx]
	if overlap == -1 {
		for _, o := range op.Outputs {
			inc += g.Values[o].Type.Size()
		}
	}

	for _, k := range killed {
		if k == overlap {
			continue
		}
		dec += g.Values[k].Type.Size()
	}
	return inc, dec
}
