package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmcos-go/hmcos/internal/graphtest"
	"github.com/hmcos-go/hmcos/internal/optrait"
	"github.com/hmcos-go/hmcos/internal/sched/life"
)

func TestContainerPlaceAndLift(t *testing.T) {
	c := NewContainer(0, 4)

	off, ok := c.Place(0, 2, 10)
	require.True(t, ok)
	assert.Equal(t, int64(0), off)
	assert.Equal(t, int64(10), c.MaxHeight())

	off, ok = c.Place(2, 2, 5)
	require.True(t, ok)
	assert.Equal(t, int64(0), off, "the second block does not overlap the first in time, so it starts at offset 0 too")

	c.Lift(0)
	assert.Equal(t, int64(10), c.MaxHeight())
}

func TestContainerPlaceRejectsOutOfRange(t *testing.T) {
	c := NewContainer(0, 4)
	_, ok := c.Place(3, 2, 10)
	assert.False(t, ok, "a block ending past the container's tEnd must not place")
}

func TestBestFitPacksElementWiseChain(t *testing.T) {
	g := graphtest.ElementWiseOverlap()
	reg := optrait.NewRegistry()
	order := append([]int(nil), g.Ops...)

	lts, err := life.Compute(g, reg, order)
	require.NoError(t, err)
	stat := life.NewStat(g, lts, len(order))

	mplan := BestFit(g, stat)
	assert.Equal(t, stat.Peak(), mplan.Peak, "BestFit's concrete layout must realize the same peak life.Stat computed")
	assert.Len(t, mplan.Descs, len(lts))
	for _, d := range mplan.Descs {
		assert.GreaterOrEqual(t, d.Offset, int64(0))
		assert.Contains(t, mplan.Offsets, d.Value)
	}
}

func TestBestFitNoOverlappingOffsets(t *testing.T) {
	g := graphtest.Fork()
	reg := optrait.NewRegistry()
	order := append([]int(nil), g.Ops...)

	lts, err := life.Compute(g, reg, order)
	require.NoError(t, err)
	stat := life.NewStat(g, lts, len(order))

	mplan := BestFit(g, stat)
	for i, a := range mplan.Descs {
		for _, b := range mplan.Descs[i+1:] {
			overlapsTime := a.Gen < b.Kill && b.Gen < a.Kill
			if !overlapsTime {
				continue
			}
			overlapsSpace := a.Offset < b.Offset+b.Size && b.Offset < a.Offset+a.Size
			assert.False(t, overlapsSpace, "two values alive at the same time must not share byte offsets: %+v vs %+v", a, b)
		}
	}
}
