// Package onnx provides ONNX model loading for the scheduler.
//
// This package only parses a model's structure — names, shapes, node
// attributes — into a graph.ModelSource. It never loads weight data
// beyond an initializer's raw bytes, and never executes a model.
//
// # Example Usage
//
//	src, err := onnx.Load("model.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g, err := graph.Build(src)
package onnx

import (
	"github.com/hmcos-go/hmcos/internal/graph"
	internalonnx "github.com/hmcos-go/hmcos/internal/onnx"
)

// Source adapts a parsed ONNX model into a graph.ModelSource.
type Source = internalonnx.Source

// Model is the parsed top-level ONNX model, exposed for callers that
// parse it themselves before handing it to NewSource.
type Model = internalonnx.Model

// Load parses an ONNX model file and wraps it as a graph.ModelSource.
func Load(path string) (*Source, error) {
	return internalonnx.Load(path)
}

// Parse parses an ONNX model from bytes and wraps it as a
// graph.ModelSource.
func Parse(data []byte) (*Source, error) {
	model, err := internalonnx.Parse(data)
	if err != nil {
		return nil, err
	}
	return internalonnx.NewSource(model), nil
}

// NewSource wraps an already-parsed Model, for callers that parsed it
// themselves.
func NewSource(model *Model) *Source {
	return internalonnx.NewSource(model)
}

var _ graph.ModelSource = (*Source)(nil)
