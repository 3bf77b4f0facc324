package graph

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Build constructs a Graph from a ModelSource, wiring named values into a
// def-use chain and def-use chain into vertex predecessor/successor
// edges. It performs the single upfront name lookup SPEC_FULL.md §9
// requires: once construction returns, nothing downstream ever resolves
// a value by name again.
//
// Grounded on original_source's Graph constructor (src/core/graph.cpp),
// which builds the same name->Value map from a ModelProto before wiring
// any edges and fails with "Cannot find information of value X" on a
// dangling reference.
func Build(src ModelSource) (*Graph, error) {
	g := &Graph{}
	names := make(map[string]int) // value name -> Values index

	registerValue := func(v Value) int {
		idx := len(g.Values)
		g.Values = append(g.Values, v)
		names[v.Name] = idx
		return idx
	}

	// Declare every name up front (SPEC_FULL.md §6/§9): inputs, params,
	// intermediates, outputs. Nodes are wired against this table alone.
	inputValues := make([]int, 0, len(src.GraphInputs()))
	for _, in := range src.GraphInputs() {
		inputValues = append(inputValues, registerValue(newInputValue(in.Name, in.Type)))
	}
	for _, p := range src.GraphParameters() {
		idx := registerValue(newParameterValue(p.Name, p.Type, p.Data))
		g.Parameters = append(g.Parameters, idx)
	}
	for _, im := range src.Intermediates() {
		registerValue(newResultValue(im.Name, im.Type))
	}
	outputTypes := src.GraphOutputs()
	for _, out := range outputTypes {
		if _, ok := names[out.Name]; !ok {
			// A graph output may be a value with no separate value_info
			// entry (e.g. it aliases a declared input); only register a
			// fresh Result if nothing already claims the name.
			registerValue(newResultValue(out.Name, out.Type))
		}
	}

	// definedBy[value index] = vertex index that produces it, or
	// noVertex for a value with no vertex of its own (a Parameter).
	definedBy := make([]int, len(g.Values))
	for i := range definedBy {
		definedBy[i] = noVertex
	}

	newVertex := func(v Vertex) int {
		idx := len(g.Vertices)
		g.Vertices = append(g.Vertices, v)
		return idx
	}

	for i, valIdx := range inputValues {
		vIdx := newVertex(Vertex{Kind: VertexInput, Value: valIdx, Name: src.GraphInputs()[i].Name})
		definedBy[valIdx] = vIdx
		g.Inputs = append(g.Inputs, vIdx)
	}

	var lookupErr error
	lookup := func(name string) (int, bool) {
		idx, ok := names[name]
		if !ok {
			lookupErr = multierr.Append(lookupErr, errors.Errorf("cannot find information of value %q", name))
		}
		return idx, ok
	}

	for _, n := range src.Nodes() {
		opInputs := make([]int, 0, len(n.Inputs))
		for _, name := range n.Inputs {
			if name == "" {
				opInputs = append(opInputs, noVertex) // optional input slot
				continue
			}
			idx, ok := lookup(name)
			if !ok {
				continue
			}
			opInputs = append(opInputs, idx)
		}
		opOutputs := make([]int, 0, len(n.Outputs))
		for _, name := range n.Outputs {
			idx, ok := lookup(name)
			if !ok {
				continue
			}
			opOutputs = append(opOutputs, idx)
		}
		if lookupErr != nil {
			continue
		}

		opIdx := newVertex(Vertex{
			Kind:    VertexOp,
			Name:    n.Name,
			OpType:  n.OpType,
			Attrs:   n.Attrs,
			Inputs:  opInputs,
			Outputs: opOutputs,
		})
		g.Ops = append(g.Ops, opIdx)

		for _, valIdx := range opInputs {
			if valIdx == noVertex {
				continue
			}
			g.Values[valIdx].Uses = append(g.Values[valIdx].Uses, opIdx)
		}
		for _, valIdx := range opOutputs {
			if g.Values[valIdx].Kind != ValueResult {
				lookupErr = multierr.Append(lookupErr, errors.Errorf("value %q is redefined by op %q", g.Values[valIdx].Name, n.Name))
				continue
			}
			if g.Values[valIdx].Def != noVertex {
				lookupErr = multierr.Append(lookupErr, errors.Errorf("value %q has more than one defining op", g.Values[valIdx].Name))
				continue
			}
			g.Values[valIdx].Def = opIdx
			definedBy[valIdx] = opIdx
		}
	}
	if lookupErr != nil {
		return nil, errors.Wrap(lookupErr, "building graph")
	}

	for _, out := range outputTypes {
		valIdx, ok := names[out.Name]
		if !ok {
			return nil, errors.Errorf("cannot find information of value %q", out.Name)
		}
		outIdx := newVertex(Vertex{Kind: VertexOutput, Value: valIdx, Name: out.Name})
		g.Outputs = append(g.Outputs, outIdx)
		g.Values[valIdx].Uses = append(g.Values[valIdx].Uses, outIdx)
	}

	// Wire edges: definingVertex -> each user, mirroring ConnectVerts.
	// Parameter values have definedBy == noVertex and contribute no edge,
	// matching original_source skipping PARAM-kind edges entirely.
	for valIdx := range g.Values {
		from := definedBy[valIdx]
		if from == noVertex {
			continue
		}
		for _, to := range g.Values[valIdx].Uses {
			g.addSucc(from, to)
		}
	}

	for i := range g.Values {
		if !g.Values[i].Defined() {
			return nil, errors.Errorf("value %q is used but never defined", g.Values[i].Name)
		}
	}

	if cyc := findCycle(g); cyc != nil {
		return nil, errors.Errorf("graph contains a cycle through vertex %d", cyc[0])
	}

	return g, nil
}

// findCycle runs a three-color DFS from every not-yet-visited vertex. On
// the first back edge it returns the edge's target followed by the DFS
// stack at that moment (a slice of vertex indices that contains the
// cycle); it returns nil if the graph is a DAG. A structural precondition
// per SPEC_FULL.md §7.
func findCycle(g *Graph) []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.Vertices))
	var stack []int
	var cycle []int

	var visit func(v int) bool
	visit = func(v int) bool {
		color[v] = gray
		stack = append(stack, v)
		for _, s := range g.Vertices[v].Succs {
			switch color[s] {
			case white:
				if visit(s) {
					return true
				}
			case gray:
				cycle = append([]int{s}, stack...)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[v] = black
		return false
	}

	for v := range g.Vertices {
		if color[v] == white && visit(v) {
			return cycle
		}
	}
	return nil
}
