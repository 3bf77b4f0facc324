// Package graphtest builds small graph.Graph fixtures for tests across
// internal/dom, internal/hier, internal/sched, and their subpackages,
// matching the seed scenarios named in SPEC_FULL.md §8 (straight chain,
// Y-fork, diamond, inception cell, element-wise overlap, graph with a
// parameter).
package graphtest

import (
	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/tensor"
)

// f32 is the shape/dtype every fixture value shares unless noted.
func f32(dims ...int64) tensor.Type {
	return tensor.Type{Shape: tensor.Shape(dims), Dtype: tensor.Float}
}

// source is a hand-assembled graph.ModelSource: tests build one directly
// rather than going through onnx.Source, since these fixtures have no
// ONNX file behind them.
type source struct {
	inputs        []graph.NamedType
	outputs       []graph.NamedType
	params        []graph.Parameter
	intermediates []graph.NamedType
	nodes         []graph.Node
}

func (s *source) GraphInputs() []graph.NamedType     { return s.inputs }
func (s *source) GraphOutputs() []graph.NamedType    { return s.outputs }
func (s *source) GraphParameters() []graph.Parameter { return s.params }
func (s *source) Intermediates() []graph.NamedType   { return s.intermediates }
func (s *source) Nodes() []graph.Node                { return s.nodes }

func node(name, opType string, inputs, outputs []string) graph.Node {
	return graph.Node{Name: name, OpType: opType, Inputs: inputs, Outputs: outputs}
}

// build wraps graph.Build, panicking on error since every fixture here
// is constructed to be valid; a panic in a fixture builder is a bug in
// the fixture, not something a test should have to handle.
func build(s *source) *graph.Graph {
	g, err := graph.Build(s)
	if err != nil {
		panic(err)
	}
	return g
}

// Chain returns x -> Relu -> y -> Relu -> z, one input, two ops, one output.
func Chain() *graph.Graph {
	s := &source{
		inputs:        []graph.NamedType{{Name: "x", Type: f32(4)}},
		outputs:       []graph.NamedType{{Name: "z", Type: f32(4)}},
		intermediates: []graph.NamedType{{Name: "y", Type: f32(4)}},
		nodes: []graph.Node{
			node("n0", "Relu", []string{"x"}, []string{"y"}),
			node("n1", "Relu", []string{"y"}, []string{"z"}),
		},
	}
	return build(s)
}

// Fork returns a Y-fork: x -> Relu -> a, then a feeds both Sigmoid and
// Tanh, which are combined by Add into the single output.
func Fork() *graph.Graph {
	s := &source{
		inputs:  []graph.NamedType{{Name: "x", Type: f32(4)}},
		outputs: []graph.NamedType{{Name: "d", Type: f32(4)}},
		intermediates: []graph.NamedType{
			{Name: "a", Type: f32(4)},
			{Name: "b", Type: f32(4)},
			{Name: "c", Type: f32(4)},
		},
		nodes: []graph.Node{
			node("n0", "Relu", []string{"x"}, []string{"a"}),
			node("n1", "Sigmoid", []string{"a"}, []string{"b"}),
			node("n2", "Tanh", []string{"a"}, []string{"c"}),
			node("n3", "Add", []string{"b", "c"}, []string{"d"}),
		},
	}
	return build(s)
}

// Diamond is Fork with a Concat instead of Add at the join, matching
// DefaultCellPredicate's Concat-based cell detector.
func Diamond() *graph.Graph {
	s := &source{
		inputs:  []graph.NamedType{{Name: "x", Type: f32(4)}},
		outputs: []graph.NamedType{{Name: "d", Type: f32(8)}},
		intermediates: []graph.NamedType{
			{Name: "a", Type: f32(4)},
			{Name: "b", Type: f32(4)},
			{Name: "c", Type: f32(4)},
		},
		nodes: []graph.Node{
			node("n0", "Relu", []string{"x"}, []string{"a"}),
			node("n1", "Sigmoid", []string{"a"}, []string{"b"}),
			node("n2", "Tanh", []string{"a"}, []string{"c"}),
			node("n3", "Concat", []string{"b", "c"}, []string{"d"}),
		},
	}
	return build(s)
}

// WithParameter returns x, w(parameter) -> MatMul -> y, exercising a
// value that must never enter the memory model.
func WithParameter() *graph.Graph {
	s := &source{
		inputs:  []graph.NamedType{{Name: "x", Type: f32(4, 4)}},
		outputs: []graph.NamedType{{Name: "y", Type: f32(4, 4)}},
		params: []graph.Parameter{
			{Name: "w", Type: f32(4, 4), Data: make([]byte, 4*4*4)},
		},
		nodes: []graph.Node{
			node("n0", "MatMul", []string{"x", "w"}, []string{"y"}),
		},
	}
	return build(s)
}

// InceptionCell is scenario 4 of SPEC_FULL.md §8: a shared root feeding
// two reconvergent branches of unequal length (three ops, one op) that
// join at a Concat. Branch and root sizes are chosen so that running the
// short branch immediately after the root — rather than after the long
// branch finishes, as reverse post order would — frees the root's
// storage before the long branch reaches its own local peak, giving
// HierarchicalSchedule strictly lower peak memory than ReversePostOrder.
func InceptionCell() *graph.Graph {
	s := &source{
		inputs:  []graph.NamedType{{Name: "x", Type: f32(8)}},
		outputs: []graph.NamedType{{Name: "d", Type: f32(1)}},
		intermediates: []graph.NamedType{
			{Name: "root", Type: f32(6)},
			{Name: "a1", Type: f32(5)},
			{Name: "a2", Type: f32(7)},
			{Name: "a3", Type: f32(9)},
			{Name: "b1", Type: f32(3)},
		},
		nodes: []graph.Node{
			node("root", "Relu", []string{"x"}, []string{"root"}),
			node("b1", "Sigmoid", []string{"root"}, []string{"b1"}),
			node("a1", "Sigmoid", []string{"root"}, []string{"a1"}),
			node("a2", "Tanh", []string{"a1"}, []string{"a2"}),
			node("a3", "Identity", []string{"a2"}, []string{"a3"}),
			node("cat", "Concat", []string{"a3", "b1"}, []string{"d"}),
		},
	}
	return build(s)
}

// CellWithDownstreamIntrusion is a Concat cell (root splitting into a, b)
// whose output feeds three independent downstream ops (d1, d2, d3) that
// only later recombine into the graph output. d1-d3 are each dominated by
// the cell but not post-dominated by it, so they are "intrusion"
// candidates rather than inbound members — and there are three of them,
// exceeding IntrusionSkipThreshold, which should force MakeGroup to split
// the cell (root, a, b, cat) from the intruded side (d1, d2, d3, e1, out)
// into two separate groups instead of merging them into one.
func CellWithDownstreamIntrusion() *graph.Graph {
	s := &source{
		inputs:  []graph.NamedType{{Name: "x", Type: f32(4)}},
		outputs: []graph.NamedType{{Name: "out", Type: f32(4)}},
		intermediates: []graph.NamedType{
			{Name: "root", Type: f32(4)},
			{Name: "a", Type: f32(4)},
			{Name: "b", Type: f32(4)},
			{Name: "cat", Type: f32(8)},
			{Name: "d1", Type: f32(8)},
			{Name: "d2", Type: f32(8)},
			{Name: "d3", Type: f32(8)},
			{Name: "e1", Type: f32(8)},
		},
		nodes: []graph.Node{
			node("root", "Relu", []string{"x"}, []string{"root"}),
			node("a", "Sigmoid", []string{"root"}, []string{"a"}),
			node("b", "Tanh", []string{"root"}, []string{"b"}),
			node("cat", "Concat", []string{"a", "b"}, []string{"cat"}),
			node("d1", "Sigmoid", []string{"cat"}, []string{"d1"}),
			node("d2", "Tanh", []string{"cat"}, []string{"d2"}),
			node("d3", "Identity", []string{"cat"}, []string{"d3"}),
			node("e1", "Add", []string{"d1", "d2"}, []string{"e1"}),
			node("out", "Add", []string{"e1", "d3"}, []string{"out"}),
		},
	}
	return build(s)
}

// CellWithParamOnlyMember is a Concat cell where one branch ("bias") is
// fed only by a parameter, so its Sequence has no predecessor edge at
// all — neither to another Sequence nor to a HierInput. It exercises the
// vacuously-true case of MakeGroup's Entrs/Exits: a member with zero
// predecessors must still count as "entirely external on its in side"
// and land in Entrs, which an OR-only accumulator (false on an empty
// loop) would miss.
func CellWithParamOnlyMember() *graph.Graph {
	s := &source{
		inputs:  []graph.NamedType{{Name: "x", Type: f32(4)}},
		outputs: []graph.NamedType{{Name: "d", Type: f32(8)}},
		params: []graph.Parameter{
			{Name: "w", Type: f32(4), Data: make([]byte, 4*4)},
		},
		intermediates: []graph.NamedType{
			{Name: "root", Type: f32(4)},
			{Name: "bias", Type: f32(4)},
		},
		nodes: []graph.Node{
			node("root", "Relu", []string{"x"}, []string{"root"}),
			node("bias", "Identity", []string{"w"}, []string{"bias"}),
			node("cat", "Concat", []string{"root", "bias"}, []string{"d"}),
		},
	}
	return build(s)
}

// ElementWiseOverlap is a linear run of single-use, same-shape
// element-wise ops, so every step after the first should overlap its
// sole input's storage (mem.OverlapInput picks a nonnegative match).
func ElementWiseOverlap() *graph.Graph {
	s := &source{
		inputs:  []graph.NamedType{{Name: "x", Type: f32(8)}},
		outputs: []graph.NamedType{{Name: "d", Type: f32(8)}},
		intermediates: []graph.NamedType{
			{Name: "a", Type: f32(8)},
			{Name: "b", Type: f32(8)},
			{Name: "c", Type: f32(8)},
		},
		nodes: []graph.Node{
			node("n0", "Relu", []string{"x"}, []string{"a"}),
			node("n1", "Sigmoid", []string{"a"}, []string{"b"}),
			node("n2", "Tanh", []string{"b"}, []string{"c"}),
			node("n3", "Identity", []string{"c"}, []string{"d"}),
		},
	}
	return build(s)
}
