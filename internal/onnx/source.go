package onnx

import (
	"github.com/pkg/errors"

	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/tensor"
)

// Source adapts a parsed Model into a graph.ModelSource: purely
// structural bookkeeping (names, shapes, attributes), never touching
// tensor data beyond copying an initializer's raw bytes through as a
// graph.Parameter. This repository never executes a model, so nothing
// here reaches for the tensor-execution machinery original_source's
// onnx loader wires into a runtime.
type Source struct {
	model *Model
}

// NewSource wraps a parsed ONNX model for graph.Build.
func NewSource(model *Model) *Source {
	return &Source{model: model}
}

// Load parses path and wraps the result, the common case for cmd/hmcos.
func Load(path string) (*Source, error) {
	model, err := ParseFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "onnx.Load")
	}
	return NewSource(model), nil
}

func dtype(elem int32) tensor.DataType { return tensor.DataType(elem) }

func namedType(vi ValueInfo) graph.NamedType {
	var shape tensor.Shape
	var dt tensor.DataType
	if vi.Type != nil && vi.Type.TensorType != nil {
		tt := vi.Type.TensorType
		dt = dtype(tt.ElemType)
		if tt.Shape != nil {
			shape = make(tensor.Shape, len(tt.Shape.Dims))
			for i, d := range tt.Shape.Dims {
				// A named (dynamic) dimension has no static value; record
				// it as unknown (-1) rather than silently picking a size.
				if d.DimParam != "" {
					shape[i] = -1
				} else {
					shape[i] = d.DimValue
				}
			}
		}
	}
	return graph.NamedType{Name: vi.Name, Type: tensor.Type{Shape: shape, Dtype: dt}}
}

// GraphInputs implements graph.ModelSource.
func (s *Source) GraphInputs() []graph.NamedType {
	out := make([]graph.NamedType, len(s.model.Graph.Inputs))
	for i, vi := range s.model.Graph.Inputs {
		out[i] = namedType(vi)
	}
	return out
}

// GraphOutputs implements graph.ModelSource.
func (s *Source) GraphOutputs() []graph.NamedType {
	out := make([]graph.NamedType, len(s.model.Graph.Outputs))
	for i, vi := range s.model.Graph.Outputs {
		out[i] = namedType(vi)
	}
	return out
}

// GraphParameters implements graph.ModelSource, converting each
// initializer's static shape/dtype/raw bytes into a graph.Parameter.
func (s *Source) GraphParameters() []graph.Parameter {
	out := make([]graph.Parameter, len(s.model.Graph.Initializers))
	for i, t := range s.model.Graph.Initializers {
		shape := make(tensor.Shape, len(t.Dims))
		copy(shape, t.Dims)
		out[i] = graph.Parameter{
			Name: t.Name,
			Type: tensor.Type{Shape: shape, Dtype: dtype(t.DataType)},
			Data: t.RawData,
		}
	}
	return out
}

// Intermediates implements graph.ModelSource from the model's
// value_info list, ONNX's optional shape/dtype annotations for values
// that are neither inputs, outputs, nor initializers.
func (s *Source) Intermediates() []graph.NamedType {
	out := make([]graph.NamedType, len(s.model.Graph.ValueInfo))
	for i, vi := range s.model.Graph.ValueInfo {
		out[i] = namedType(vi)
	}
	return out
}

func convertAttr(a Attribute) graph.Attribute {
	return graph.Attribute{
		Name:    a.Name,
		Int:     a.I,
		Float:   a.F,
		Str:     string(a.S),
		Ints:    a.Ints,
		Floats:  a.Floats,
		Strings: convertStrings(a.Strings),
	}
}

func convertStrings(raw [][]byte) []string {
	if raw == nil {
		return nil
	}
	out := make([]string, len(raw))
	for i, b := range raw {
		out[i] = string(b)
	}
	return out
}

// Nodes implements graph.ModelSource.
func (s *Source) Nodes() []graph.Node {
	out := make([]graph.Node, len(s.model.Graph.Nodes))
	for i, n := range s.model.Graph.Nodes {
		attrs := make([]graph.Attribute, len(n.Attributes))
		for j, a := range n.Attributes {
			attrs[j] = convertAttr(a)
		}
		name := n.Name
		if name == "" {
			// Nodes are frequently unnamed in exported ONNX models;
			// give each one an identity a Vertex can carry as Name.
			name = n.OpType + "_" + itoa(i)
		}
		out[i] = graph.Node{Name: name, OpType: n.OpType, Inputs: n.Inputs, Outputs: n.Outputs, Attrs: attrs}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
