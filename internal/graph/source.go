package graph

import "github.com/hmcos-go/hmcos/internal/tensor"

// NamedType pairs a value name with its declared type. Used for graph
// inputs, outputs, and intermediate value_info entries.
type NamedType struct {
	Name string
	Type tensor.Type
}

// Parameter is a named constant tensor baked into the graph (an ONNX
// initializer, in the concrete loader).
type Parameter struct {
	Name string
	Type tensor.Type
	Data []byte
}

// Node is one operator invocation: a named op-type consuming and
// producing named values. Names are resolved against the source's
// declared inputs/outputs/parameters/intermediates during Build.
type Node struct {
	Name    string
	OpType  string
	Inputs  []string
	Outputs []string
	Attrs   []Attribute
}

// ModelSource is everything Build needs to construct a Graph. A concrete
// loader (internal/onnx, in this repository) implements it by decoding a
// serialized model; Build itself never touches a file or a wire format.
//
// Per SPEC_FULL.md §6, ModelSource is assumed to already carry concrete,
// shape-inferred types for every intermediate value: Build does not infer
// shapes, it only wires named values together and fails loudly when a
// name is not declared anywhere.
type ModelSource interface {
	GraphInputs() []NamedType
	GraphOutputs() []NamedType
	GraphParameters() []Parameter
	// Intermediates declares the type of every value produced by a Node
	// that is not itself a graph output.
	Intermediates() []NamedType
	Nodes() []Node
}
