// Package tensor defines the typed tensor records the scheduler reasons
// about: a DataType enum consistent with ONNX's TensorProto.DataType, and
// a TensorType combining a DataType with a shape.
package tensor

// DataType is the element type of a tensor, numbered to match ONNX's
// TensorProto.DataType so that a loader can copy the wire value directly.
type DataType int32

// Data types, in ONNX TensorProto.DataType order.
const (
	Undefined DataType = iota
	Float
	Uint8
	Int8
	Uint16
	Int16
	Int32
	Int64
	String
	Bool
	Float16
	Double
	Uint32
	Uint64
	Complex64
	Complex128
	BFloat16
)

// bytesPerElement gives the storage width the scheduler must account for.
// String has no fixed width; its byte count is not derivable from the type
// alone, so it is treated as opaque (0) and callers should not build
// TensorTypes with String dtype into a memory model.
func (dt DataType) bytesPerElement() int {
	switch dt {
	case Float, Int32, Uint32:
		return 4
	case Double, Int64, Uint64, Complex64:
		return 8
	case Complex128:
		return 16
	case Uint8, Int8, Bool:
		return 1
	case Uint16, Int16, Float16, BFloat16:
		return 2
	default:
		return 0
	}
}

// String returns a human-readable name, matching ONNX's enum names.
func (dt DataType) String() string {
	switch dt {
	case Undefined:
		return "UNDEFINED"
	case Float:
		return "FLOAT"
	case Uint8:
		return "UINT8"
	case Int8:
		return "INT8"
	case Uint16:
		return "UINT16"
	case Int16:
		return "INT16"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case String:
		return "STRING"
	case Bool:
		return "BOOL"
	case Float16:
		return "FLOAT16"
	case Double:
		return "DOUBLE"
	case Uint32:
		return "UINT32"
	case Uint64:
		return "UINT64"
	case Complex64:
		return "COMPLEX64"
	case Complex128:
		return "COMPLEX128"
	case BFloat16:
		return "BFLOAT16"
	default:
		return "UNKNOWN"
	}
}
