// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the public computation-graph type the scheduler
// operates on: a flat, arena-indexed DAG of ops and values built once
// from a model source and never mutated afterward.
//
// # Example Usage
//
//	src, err := onnx.Load("model.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g, err := graph.Build(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("ops:", g.NumOps())
package graph

import (
	internalgraph "github.com/hmcos-go/hmcos/internal/graph"
)

// Graph is the flat computation graph: every Value and Vertex a model
// source produced, connected by plain index references rather than
// pointers.
type Graph = internalgraph.Graph

// Value is a single tensor slot: a graph input, a parameter, or an op
// result.
type Value = internalgraph.Value

// Vertex is a single graph node: an Input/Output sentinel or an Op.
type Vertex = internalgraph.Vertex

// ModelSource is what Build needs from a model format: named
// inputs/outputs, parameters, optional intermediate shape hints, and the
// node list. onnx.Source implements it for ONNX model files; test
// fixtures use small hand-written implementations.
type ModelSource = internalgraph.ModelSource

// NamedType, Parameter, Node, and Attribute are the plain data a
// ModelSource hands to Build.
type (
	NamedType = internalgraph.NamedType
	Parameter = internalgraph.Parameter
	Node      = internalgraph.Node
	Attribute = internalgraph.Attribute
)

// Build constructs a Graph from src, validating that every node input
// resolves to a known value and that the resulting graph is acyclic.
//
// Example:
//
//	g, err := graph.Build(onnx.NewSource(model))
func Build(src ModelSource) (*Graph, error) {
	return internalgraph.Build(src)
}
