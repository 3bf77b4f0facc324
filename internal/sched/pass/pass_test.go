package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmcos-go/hmcos/internal/graphtest"
	"github.com/hmcos-go/hmcos/internal/hier"
	"github.com/hmcos-go/hmcos/internal/optrait"
)

func TestJoinSequenceFusesStraightChain(t *testing.T) {
	g := graphtest.Chain()
	h := hier.Build(g)
	reg := optrait.NewRegistry()

	require.NoError(t, JoinSequence(g, h, reg))

	// Both Relu ops are single-use, same-shape, so the chain never grows
	// its peak by fusing: the two Sequences should collapse into one.
	var live []int
	for _, s := range h.Seqs {
		if h.IsLive(s) {
			live = append(live, s)
		}
	}
	assert.Len(t, live, 1)
	assert.Len(t, h.Vertices[live[0]].Ops, 2)
}

func TestJoinSequenceIsIdempotent(t *testing.T) {
	g := graphtest.Fork()
	h := hier.Build(g)
	reg := optrait.NewRegistry()

	require.NoError(t, JoinSequence(g, h, reg))
	firstPass := append([]int(nil), h.Seqs...)

	require.NoError(t, JoinSequence(g, h, reg))
	assert.Equal(t, firstPass, h.Seqs, "running JoinSequence again must leave the graph unchanged")
}

func TestJoinSequenceRejectsGroupedGraph(t *testing.T) {
	g := graphtest.Diamond()
	h := hier.Build(g)
	reg := optrait.NewRegistry()
	require.NoError(t, MakeGroup(g, h, DefaultCellPredicate))

	err := JoinSequence(g, h, reg)
	assert.Error(t, err)
}

func TestMakeGroupIsolatesConcatCell(t *testing.T) {
	g := graphtest.Diamond()
	h := hier.Build(g)

	require.NoError(t, MakeGroup(g, h, DefaultCellPredicate))
	assert.Len(t, h.Groups, 1, "the Concat join point should be wrapped in exactly one group")

	group := h.Vertices[h.Groups[0]]
	assert.Equal(t, hier.KindGroup, group.Kind)
	assert.GreaterOrEqual(t, len(group.Seqs), 2, "both diamond arms feeding the Concat should be grouped")
}

func TestMakeGroupNilPredicateUsesDefault(t *testing.T) {
	g := graphtest.Diamond()
	h := hier.Build(g)

	require.NoError(t, MakeGroup(g, h, nil))
	assert.Len(t, h.Groups, 1)
}

func TestMakeGroupNoOpWithoutCell(t *testing.T) {
	g := graphtest.Chain()
	h := hier.Build(g)

	require.NoError(t, MakeGroup(g, h, DefaultCellPredicate))
	assert.Empty(t, h.Groups, "a straight chain has no Concat cell to isolate")
}

func TestMakeGroupConsumedProducedCrossBoundaryOnly(t *testing.T) {
	g := graphtest.Diamond()
	h := hier.Build(g)

	require.NoError(t, MakeGroup(g, h, DefaultCellPredicate))
	require.Len(t, h.Groups, 1)

	group := h.Vertices[h.Groups[0]]
	memberOps := map[int]bool{}
	for _, seqIdx := range group.Seqs {
		for _, op := range h.Vertices[seqIdx].Ops {
			memberOps[op] = true
		}
	}

	for _, vc := range group.Consumed {
		assert.False(t, memberOps[g.Values[vc.Value].Def],
			"a consumed value must be defined by an op outside the group")
	}
	for _, vc := range group.Produced {
		assert.True(t, memberOps[g.Values[vc.Value].Def],
			"a produced value must be defined by an op inside the group")
		assert.Greater(t, vc.Count, 0)
	}
}

func TestMakeGroupInceptionCellExitsAndConsumed(t *testing.T) {
	// Scenario 4 (SPEC_FULL.md §8): a shared root feeding two reconvergent
	// branches joining at a Concat collapses into exactly one Group whose
	// only external exit is the Concat sequence and whose only consumed
	// value is the shared input.
	g := graphtest.InceptionCell()
	h := hier.Build(g)

	require.NoError(t, MakeGroup(g, h, DefaultCellPredicate))
	require.Len(t, h.Groups, 1)

	group := h.Vertices[h.Groups[0]]
	require.Len(t, group.Exits, 1)
	exitOps := h.Vertices[group.Exits[0]].Ops
	assert.Equal(t, "Concat", g.Vertices[exitOps[0]].OpType)

	require.Len(t, group.Consumed, 1)
	assert.Equal(t, "x", g.Values[group.Consumed[0].Value].Name)
	assert.Equal(t, 1, group.Consumed[0].Count)
}

func TestMakeGroupEntrsIncludesZeroPredMember(t *testing.T) {
	g := graphtest.CellWithParamOnlyMember()
	h := hier.Build(g)

	require.NoError(t, MakeGroup(g, h, DefaultCellPredicate))
	require.Len(t, h.Groups, 1)

	group := h.Vertices[h.Groups[0]]
	require.Len(t, group.Seqs, 3, "root, bias, cat")

	biasIdx := -1
	for _, seqIdx := range group.Seqs {
		if g.Vertices[h.Vertices[seqIdx].Ops[0]].OpType == "Identity" {
			biasIdx = seqIdx
		}
	}
	require.NotEqual(t, -1, biasIdx, "no group member ran the param-fed Identity op")
	assert.Empty(t, h.Vertices[biasIdx].Preds, "a param-only input leaves no predecessor edge")

	assert.Contains(t, group.Entrs, biasIdx,
		"a member with zero predecessors is vacuously all-external and must appear in Entrs")
	assert.NotContains(t, group.InFront, biasIdx,
		"a member with zero predecessors has no boundary-crossing edge to report in InFront")
}

func TestMakeGroupSplitsOnLargeIntrusion(t *testing.T) {
	g := graphtest.CellWithDownstreamIntrusion()
	h := hier.Build(g)

	require.NoError(t, MakeGroup(g, h, DefaultCellPredicate))
	require.Len(t, h.Groups, 2, "an intrusion set larger than IntrusionSkipThreshold must split into two groups")

	var cellGroup, intrudedGroup hier.Vertex
	for _, groupIdx := range h.Groups {
		group := h.Vertices[groupIdx]
		require.NotEmpty(t, group.Seqs)
		hasConcat := false
		for _, seqIdx := range group.Seqs {
			if g.Vertices[h.Vertices[seqIdx].Ops[0]].OpType == "Concat" {
				hasConcat = true
				break
			}
		}
		if hasConcat {
			cellGroup = group
		} else {
			intrudedGroup = group
		}
	}

	require.NotNil(t, cellGroup.Seqs, "no group contained the Concat cell")
	assert.Len(t, cellGroup.Seqs, 4, "cell-side group should hold root, a, b, cat")
	assert.Len(t, intrudedGroup.Seqs, 5, "intruded-side group should hold d1, d2, d3, e1, out")

	seen := map[int]bool{}
	for _, groupIdx := range h.Groups {
		for _, m := range h.Vertices[groupIdx].Seqs {
			assert.False(t, seen[m], "sequence %d must belong to exactly one group", m)
			seen[m] = true
		}
	}

	assert.NotEmpty(t, cellGroup.Exits, "the cell-side group must still expose an exit into the intruded side")
	assert.NotEmpty(t, intrudedGroup.Entrs, "the intruded-side group must still expose an entry from the cell side")
}

func TestUngroupRestoresDirectEdges(t *testing.T) {
	g := graphtest.Diamond()
	h := hier.Build(g)

	require.NoError(t, MakeGroup(g, h, DefaultCellPredicate))
	require.Len(t, h.Groups, 1)
	groupIdx := h.Groups[0]
	members := append([]int(nil), h.Vertices[groupIdx].Seqs...)

	Ungroup(h, groupIdx)

	assert.Empty(t, h.Groups)
	for _, m := range members {
		assert.Equal(t, hier.NoGroup, h.Vertices[m].Group)
		assert.Contains(t, h.Seqs, m)
	}
}
