package onnx

// Wire-format structs for the ONNX protobuf messages this loader actually
// consumes. This is not a full mirror of onnx.proto: fields with no
// counterpart in graph.ModelSource (producer metadata, opset imports,
// doc strings, the legacy inline float/int32/int64 tensor-data arrays,
// nested Tensor/Graph attribute values used by control-flow ops) are
// never materialized — the decoder still walks over their wire bytes
// (skipField) so a real exported model parses cleanly, but nothing
// downstream can observe them.

// Model is the top-level ONNX message; only its Graph is structural.
type Model struct {
	Graph *GraphDef
}

// GraphDef is the computation graph: nodes, boundary values, and weights.
type GraphDef struct {
	Nodes        []NodeDef
	Inputs       []ValueInfo
	Outputs      []ValueInfo
	Initializers []TensorDef
	ValueInfo    []ValueInfo
}

// NodeDef is a single operation.
type NodeDef struct {
	Name       string
	OpType     string
	Inputs     []string
	Outputs    []string
	Attributes []Attribute
}

// TensorDef is a weight/initializer tensor. Only the raw little-endian
// payload is kept; this loader never executes a model, so the legacy
// inline float/int32/int64 data arrays ONNX also allows have no reader.
type TensorDef struct {
	Name     string
	DataType int32
	Dims     []int64
	RawData  []byte
}

// ValueInfo describes an input, output, or intermediate value's type.
type ValueInfo struct {
	Name string
	Type *TypeInfo
}

// TypeInfo wraps the tensor-shaped case of ONNX's oneof type message;
// sequence/map/optional types have no analogue in graph.NamedType and
// are left for skipField.
type TypeInfo struct {
	TensorType *TensorTypeInfo
}

// TensorTypeInfo is an element type plus a shape.
type TensorTypeInfo struct {
	ElemType int32
	Shape    *ShapeInfo
}

// ShapeInfo is an ordered list of dimensions.
type ShapeInfo struct {
	Dims []Dim
}

// Dim is either a static size or a named (dynamic) dimension.
type Dim struct {
	DimValue int64
	DimParam string
}

// Attribute is a node attribute. Only the scalar/array value kinds
// graph.Attribute can represent are decoded; the TENSOR and GRAPH/GRAPHS
// kinds (nested weights and control-flow subgraphs) have no field here.
type Attribute struct {
	Name    string
	F       float32
	I       int64
	S       []byte
	Floats  []float32
	Ints    []int64
	Strings [][]byte
}

// TensorProtoFloat is the one element-type constant this loader tests
// against directly (buildValueInfo's default dtype in tests); the rest
// of ONNX's TensorProto.DataType enum passes through as a raw int32 into
// tensor.DataType, which is numbered to match it directly.
const TensorProtoFloat = 1

// AttributeProtoInts is the ONNX AttributeProto.Type tag for a repeated
// int64 attribute (e.g. Conv's kernel_shape), used by parser_test.go's
// wire-format fixtures.
const AttributeProtoInts = 7
