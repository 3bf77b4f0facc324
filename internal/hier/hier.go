// Package hier implements the hierarchical graph: a coarser DAG whose
// nodes are Sequence (a linear op chain) or Group (a jointly-scheduled
// set of Sequences), plus HierInput/HierOutput sentinels mirroring the
// underlying graph.Graph's Input/Output vertices.
//
// Grounded on original_source/include/hos/core/hier.hpp.
package hier

import (
	"github.com/google/uuid"

	"github.com/hmcos-go/hmcos/internal/graph"
)

// Kind tags the four shapes a hierarchical-graph vertex can take.
type Kind int

const (
	KindInput Kind = iota
	KindOutput
	KindSequence
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	case KindSequence:
		return "sequence"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// noHier marks the absence of an enclosing Group.
const noHier = -1

// NoGroup is the public spelling of "not enclosed in any Group", for
// packages outside hier that need to test Vertex.Group.
const NoGroup = noHier

// ValueCount is one entry of a Group's consumed/produced multiset: a
// graph value together with how many boundary-crossing uses it accounts
// for.
type ValueCount struct {
	Value int
	Count int
}

// Vertex is a node of the hierarchical graph. Following the same
// tagged-struct convention as graph.Vertex, fields are populated only
// for the Kind that owns them; pattern-match on Kind rather than adding
// virtual dispatch.
type Vertex struct {
	Kind Kind

	// GraphVertex is the underlying graph.Graph vertex index. Input/Output only.
	GraphVertex int

	// --- Sequence fields ---

	// Ops is the ordered list of graph.Graph op-vertex indices this
	// Sequence runs, fixed once built by JoinSequence.
	Ops []int
	// SeqInputs/SeqOutputs are graph value indices, parameters excluded.
	SeqInputs  []int
	SeqOutputs []int
	// Group is the enclosing Group's hier-vertex index, or noHier.
	Group int

	// --- Group fields ---

	ID   uuid.UUID
	Seqs []int // contained Sequence hier-vertex indices
	// Entrs/Exits are the stricter, ALL-quantified sets: a Sequence whose
	// predecessors/successors are *entirely* outside the group (vacuously
	// true if it has none). InFront/OutFront are the ANY-quantified sets:
	// at least one predecessor/successor crosses the boundary. The two
	// pairs differ whenever a member has a mix of internal and external
	// neighbors on the same side.
	Entrs    []int
	Exits    []int
	InFront  []int // Sequences with an inbound boundary-crossing edge
	OutFront []int // Sequences with an outbound boundary-crossing edge
	Consumed []ValueCount
	Produced []ValueCount

	// --- Shared ---

	Preds []int
	Succs []int

	// PrevPreds/PrevSuccs are shadow copies of Preds/Succs captured just
	// before MakeGroup starts rewriting edges (SPEC_FULL.md §9): ungroup
	// uses them to restore direct Sequence-to-Sequence edges.
	PrevPreds []int
	PrevSuccs []int
}

// Dominates/PostDominates are computed lazily by the caller via the dom
// package; HierGraph stores neither the trees nor per-vertex booleans.

// Graph is the hierarchical graph built once from a graph.Graph and then
// mutated in place by JoinSequence and MakeGroup.
type Graph struct {
	Base *graph.Graph

	Vertices []Vertex

	Inputs  []int // HierInput vertex indices
	Outputs []int // HierOutput vertex indices

	// Seqs and Groups list every live Sequence/Group vertex index, kept
	// in sync as passes fuse, split, or delete vertices.
	Seqs   []int
	Groups []int
}

func (h *Graph) newVertex(v Vertex) int {
	idx := len(h.Vertices)
	h.Vertices = append(h.Vertices, v)
	return idx
}

// addSucc records v -> to once (no multi-edges), mirroring graph.Graph.
func (h *Graph) addSucc(v, to int) {
	for _, s := range h.Vertices[v].Succs {
		if s == to {
			return
		}
	}
	h.Vertices[v].Succs = append(h.Vertices[v].Succs, to)
	h.Vertices[to].Preds = append(h.Vertices[to].Preds, v)
}

// removeEdge deletes v -> to if present, from both sides.
func (h *Graph) removeEdge(v, to int) {
	h.Vertices[v].Succs = removeInt(h.Vertices[v].Succs, to)
	h.Vertices[to].Preds = removeInt(h.Vertices[to].Preds, v)
}

// AddSucc is the exported form of addSucc, for callers outside this package.
func (h *Graph) AddSucc(v, to int) {
	h.addSucc(v, to)
}

// RemoveEdge is the exported form of removeEdge, for callers outside this package.
func (h *Graph) RemoveEdge(v, to int) {
	h.removeEdge(v, to)
}

func removeInt(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// IsLive reports whether vertex idx is still part of the graph (Groups
// deleted by ungroup, and Sequences fused away by JoinSequence, are left
// in place in Vertices but dropped from Seqs/Groups).
func (h *Graph) IsLive(idx int) bool {
	if h.Vertices[idx].Kind == KindGroup {
		for _, g := range h.Groups {
			if g == idx {
				return true
			}
		}
		return false
	}
	if h.Vertices[idx].Kind == KindSequence {
		for _, s := range h.Seqs {
			if s == idx {
				return true
			}
		}
		return false
	}
	return true
}

// Label renders a short diagnostic name for a vertex: an op-type chain
// for a Sequence, or "group(<id>){<seq count> seqs}" for a Group. This is
// original_source's habit of giving every hierarchical vertex a debug
// label (used by its Graphviz reporter); this repository has no
// Graphviz reporter, but internal/reporter's text dump uses the same
// labels, and it is convenient during development regardless.
func (h *Graph) Label(idx int) string {
	v := &h.Vertices[idx]
	switch v.Kind {
	case KindInput:
		return "in:" + h.Base.Values[h.Base.Vertices[v.GraphVertex].Value].Name
	case KindOutput:
		return "out:" + h.Base.Values[h.Base.Vertices[v.GraphVertex].Value].Name
	case KindSequence:
		label := ""
		for i, op := range v.Ops {
			if i > 0 {
				label += ">"
			}
			label += h.Base.Vertices[op].OpType
		}
		return label
	case KindGroup:
		return "group(" + v.ID.String()[:8] + "){" + itoa(len(v.Seqs)) + " seqs}"
	default:
		return "?"
	}
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
