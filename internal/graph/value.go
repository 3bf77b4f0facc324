// Package graph implements the flat computation-graph data model: typed
// values with def-use chains, and a DAG of Input/Output/Op vertices built
// from an external model source.
package graph

import "github.com/hmcos-go/hmcos/internal/tensor"

// ValueKind tags the three ways a value can come to exist.
type ValueKind int

const (
	// ValueInput is a value carried by a graph-level Input vertex.
	ValueInput ValueKind = iota
	// ValueParameter is a constant weight baked into the graph.
	ValueParameter
	// ValueResult is defined by exactly one Op vertex.
	ValueResult
)

func (k ValueKind) String() string {
	switch k {
	case ValueInput:
		return "input"
	case ValueParameter:
		return "parameter"
	case ValueResult:
		return "result"
	default:
		return "unknown"
	}
}

// noVertex marks an absent vertex reference (a weak ref with nothing to
// point at yet, or an index-typed field that legitimately has no target).
const noVertex = -1

// Value is a typed, named record in the graph's def-use chain. Def and
// Uses hold vertex indices into the owning Graph's Vertices slice rather
// than pointers: this is the arena scheme described in SPEC_FULL.md §3.1,
// chosen so a Result's weak back-reference to its defining Op and an Op's
// strong references to its Values never form a reference-counted cycle.
type Value struct {
	Kind ValueKind
	Name string
	Type tensor.Type

	// Data holds the raw payload of a Parameter value. Unused otherwise.
	Data []byte

	// Def is the vertex index that defines this value. Set for Result
	// values only; noVertex until the defining Op is linked.
	Def int

	// Uses lists the Op and Output vertex indices that consume this
	// value, in the order they were linked. An Op may appear more than once if it
	// consumes the same value through two of its input slots.
	Uses []int
}

func newInputValue(name string, typ tensor.Type) Value {
	return Value{Kind: ValueInput, Name: name, Type: typ, Def: noVertex}
}

func newParameterValue(name string, typ tensor.Type, data []byte) Value {
	return Value{Kind: ValueParameter, Name: name, Type: typ, Data: data, Def: noVertex}
}

func newResultValue(name string, typ tensor.Type) Value {
	return Value{Kind: ValueResult, Name: name, Type: typ, Def: noVertex}
}

// Defined reports whether a Result value has been linked to its defining
// Op. Input and Parameter values are always considered defined.
func (v Value) Defined() bool {
	return v.Kind != ValueResult || v.Def != noVertex
}
