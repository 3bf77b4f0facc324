package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ParseFile parses an ONNX model from file.
//
//nolint:gosec // G304: Path is provided by user, file inclusion is intentional for ONNX model loading
func ParseFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses an ONNX model from bytes, keeping only the structural
// subset graph.ModelSource needs and skipping over everything else's
// wire bytes without materializing it.
func Parse(data []byte) (*Model, error) {
	p := &parser{data: data, pos: 0}
	model := &Model{}
	if err := p.readModel(model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// parser implements a minimal protobuf wire format decoder: no generated
// ONNX message code exists for this repository to link against, so field
// numbers below are read directly off the ONNX proto3 schema.
type parser struct {
	data []byte
	pos  int
}

// Protobuf wire types.
const (
	wireVarint = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	wire64Bit  = 1 // fixed64, sfixed64, double
	wireBytes  = 2 // string, bytes, embedded messages, packed repeated fields
	wire32Bit  = 5 // fixed32, sfixed32, float
)

// readModel reads the top-level ModelProto message, keeping only the
// embedded GraphProto (field 7) and skipping producer/version/metadata
// fields this loader has no use for.
func (p *parser) readModel(m *Model) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 7: // graph
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data, pos: 0}
			m.Graph = &GraphDef{}
			if err2 := sub.readGraph(m.Graph); err2 != nil {
				return err2
			}
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readGraph reads GraphProto, keeping nodes, boundary value_infos, and
// initializers; the graph's own name has no home in graph.ModelSource.
func (p *parser) readGraph(m *GraphDef) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // node
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data, pos: 0}
			node := NodeDef{}
			if err2 := sub.readNode(&node); err2 != nil {
				return err2
			}
			m.Nodes = append(m.Nodes, node)
			continue
		case 5: // initializer
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data, pos: 0}
			tensor := TensorDef{}
			if err2 := sub.readTensor(&tensor); err2 != nil {
				return err2
			}
			m.Initializers = append(m.Initializers, tensor)
			continue
		case 11: // input
			vi, err2 := p.readEmbeddedValueInfo()
			if err2 != nil {
				return err2
			}
			m.Inputs = append(m.Inputs, vi)
			continue
		case 12: // output
			vi, err2 := p.readEmbeddedValueInfo()
			if err2 != nil {
				return err2
			}
			m.Outputs = append(m.Outputs, vi)
			continue
		case 13: // value_info
			vi, err2 := p.readEmbeddedValueInfo()
			if err2 != nil {
				return err2
			}
			m.ValueInfo = append(m.ValueInfo, vi)
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) readEmbeddedValueInfo() (ValueInfo, error) {
	data, err := p.readBytes()
	if err != nil {
		return ValueInfo{}, err
	}
	sub := &parser{data: data, pos: 0}
	vi := ValueInfo{}
	if err := sub.readValueInfo(&vi); err != nil {
		return ValueInfo{}, err
	}
	return vi, nil
}

// readNode reads NodeProto, keeping name/op_type/inputs/outputs/attributes;
// a node's custom domain has no analogue in graph.Node.
func (p *parser) readNode(m *NodeDef) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // input
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Inputs = append(m.Inputs, string(data))
			continue
		case 2: // output
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Outputs = append(m.Outputs, string(data))
			continue
		case 3: // name
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Name = string(data)
			continue
		case 4: // op_type
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.OpType = string(data)
			continue
		case 5: // attribute
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data, pos: 0}
			attr := Attribute{}
			if err2 := sub.readAttribute(&attr); err2 != nil {
				return err2
			}
			m.Attributes = append(m.Attributes, attr)
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readTensor reads TensorProto, keeping only dims/data_type/name/raw_data.
// The legacy inline float_data/int32_data/int64_data arrays fall through
// to skipField: nothing in this repository reads a tensor's values, only
// its raw bytes, and real exporters emit raw_data almost universally.
//
//nolint:gocognit,gocyclo,cyclop // packed-varint dims still need field-by-field handling
func (p *parser) readTensor(m *TensorDef) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // dims (repeated int64, occasionally packed)
			if wireType == wireBytes {
				data, err2 := p.readBytes()
				if err2 != nil {
					return err2
				}
				sub := &parser{data: data, pos: 0}
				for sub.pos < len(sub.data) {
					v, err3 := sub.readVarint()
					if err3 != nil {
						break
					}
					m.Dims = append(m.Dims, v)
				}
				continue
			}
			v, err2 := p.readVarint()
			if err2 != nil {
				return err2
			}
			m.Dims = append(m.Dims, v)
			continue
		case 2: // data_type
			m.DataType, err = p.readInt32()
		case 8: // name
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Name = string(data)
			continue
		case 9: // raw_data
			m.RawData, err = p.readBytes()
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readValueInfo reads ValueInfoProto, keeping name and type.
func (p *parser) readValueInfo(m *ValueInfo) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // name
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Name = string(data)
			continue
		case 2: // type
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data, pos: 0}
			m.Type = &TypeInfo{}
			if err2 := sub.readType(m.Type); err2 != nil {
				return err2
			}
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readType reads TypeProto, keeping only the tensor_type case; ONNX's
// sequence/map/optional/sparse-tensor cases have no graph.NamedType
// analogue and fall through to skipField.
func (p *parser) readType(m *TypeInfo) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // tensor_type
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data, pos: 0}
			m.TensorType = &TensorTypeInfo{}
			if err2 := sub.readTensorType(m.TensorType); err2 != nil {
				return err2
			}
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) readTensorType(m *TensorTypeInfo) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // elem_type
			m.ElemType, err = p.readInt32()
		case 2: // shape
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data, pos: 0}
			m.Shape = &ShapeInfo{}
			if err2 := sub.readShape(m.Shape); err2 != nil {
				return err2
			}
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) readShape(m *ShapeInfo) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // dim
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data, pos: 0}
			dim := Dim{}
			if err2 := sub.readDim(&dim); err2 != nil {
				return err2
			}
			m.Dims = append(m.Dims, dim)
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) readDim(m *Dim) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // dim_value
			m.DimValue, err = p.readVarint()
		case 2: // dim_param
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.DimParam = string(data)
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readAttribute reads AttributeProto, keeping the scalar and array value
// kinds graph.Attribute can hold. AttributeProto.Type (field 20 in the
// wire layout this decoder was built against) is read past but never
// stored: convertAttr copies every value field as it is and records no
// value kind.
//
//nolint:gocognit,gocyclo,cyclop // protobuf field switch
func (p *parser) readAttribute(m *Attribute) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case 1: // name
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Name = string(data)
			continue
		case 2: // f (float)
			m.F, err = p.readFloat32()
		case 3: // i (int)
			m.I, err = p.readVarint()
		case 4: // s (bytes)
			m.S, err = p.readBytes()
		case 6: // floats (packed)
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			for i := 0; i+4 <= len(data); i += 4 {
				bits := binary.LittleEndian.Uint32(data[i:])
				m.Floats = append(m.Floats, math.Float32frombits(bits))
			}
			continue
		case 7: // ints (packed)
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data, pos: 0}
			for sub.pos < len(sub.data) {
				v, err3 := sub.readVarint()
				if err3 != nil {
					break
				}
				m.Ints = append(m.Ints, v)
			}
			continue
		case 8: // strings
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Strings = append(m.Strings, data)
			continue
		default:
			err = p.skipField(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readTag reads a protobuf field tag.
func (p *parser) readTag() (fieldNum, wireType int, err error) {
	if p.pos >= len(p.data) {
		return 0, 0, io.EOF
	}
	tag, err := p.readVarint()
	if err != nil {
		return 0, 0, err
	}
	fieldNum = int(tag >> 3)
	wireType = int(tag & 0x7)
	return fieldNum, wireType, nil
}

// readVarint reads a varint-encoded int64.
func (p *parser) readVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if p.pos >= len(p.data) {
			return 0, io.EOF
		}
		b := p.data[p.pos]
		p.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil //nolint:gosec // G115: Protobuf varint fits in int64.
}

// readInt32 reads a varint-encoded int32.
func (p *parser) readInt32() (int32, error) {
	v, err := p.readVarint()
	if err != nil {
		return 0, err
	}
	return int32(v), nil //nolint:gosec // G115: Protobuf varint fits in int32.
}

// readBytes reads a length-delimited byte slice.
func (p *parser) readBytes() ([]byte, error) {
	length, err := p.readVarint()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.New("negative length")
	}
	end := p.pos + int(length)
	if end > len(p.data) {
		return nil, io.ErrUnexpectedEOF
	}
	result := p.data[p.pos:end]
	p.pos = end
	return result, nil
}

// readFloat32 reads a 32-bit float.
func (p *parser) readFloat32() (float32, error) {
	if p.pos+4 > len(p.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return math.Float32frombits(bits), nil
}

// skipField skips a field based on wire type, advancing past whatever
// this decoder chose not to materialize (producer metadata, opset
// imports, doc strings, nested Tensor/Graph attribute values, ...) so a
// real exported ONNX model — which carries all of it — still parses.
func (p *parser) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := p.readVarint()
		return err
	case wire64Bit:
		if p.pos+8 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 8
		return nil
	case wireBytes:
		_, err := p.readBytes()
		return err
	case wire32Bit:
		if p.pos+4 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}
