// Package onnx decodes just enough of the ONNX protobuf wire format to
// produce a graph.ModelSource: node topology, boundary/intermediate value
// shapes and dtypes, and initializer bytes. It performs no shape
// inference of its own — the spec's model source is assumed to arrive
// with value_info already carrying concrete shapes, matching
// original_source's Graph constructor.
//
// There is no generated ONNX message code to link against here, so
// Parse walks the wire format directly (field tag, wire type, varint/
// length-delimited payload) rather than through google.golang.org/protobuf.
// Everything ONNX defines that graph.ModelSource has no use for —
// producer/version metadata, opset imports, doc strings, the legacy
// inline tensor-data arrays, nested Tensor/Graph attribute values used by
// control-flow ops — is walked past via skipField without being
// materialized into a struct.
//
// Example usage:
//
//	src, err := onnx.Load("resnet50.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g, err := graph.Build(src)
package onnx
