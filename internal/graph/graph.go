package graph

// Graph owns every Value and Vertex reachable from a model source and
// never changes shape after Build returns: HierGraph construction (see
// internal/hier) reads it once and takes its own copy of the topology.
type Graph struct {
	Values   []Value
	Vertices []Vertex

	// Inputs/Outputs/Ops are vertex indices in declaration order.
	Inputs  []int
	Outputs []int
	Ops     []int

	// Parameters are value indices in declaration order. Parameters have
	// no vertex of their own — original_source's ConnectVerts skips
	// PARAM-kind edges for the same reason: a weight is available from
	// the first moment and never has a producer to schedule.
	Parameters []int
}

// Op returns the vertex at index i, which must be a VertexOp.
func (g *Graph) Op(i int) *Vertex { return &g.Vertices[i] }

// NumOps is the number of Op vertices.
func (g *Graph) NumOps() int { return len(g.Ops) }
