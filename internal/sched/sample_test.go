package sched

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hmcos-go/hmcos/internal/graphtest"
	"github.com/hmcos-go/hmcos/internal/hier"
	"github.com/hmcos-go/hmcos/internal/optrait"
	"github.com/hmcos-go/hmcos/internal/sched/life"
)

func TestRandomSampleCoversEveryOp(t *testing.T) {
	g := graphtest.Fork()
	h := hier.Build(g)
	rng := rand.New(rand.NewSource(1))

	order := RandomSample(h, rng)
	assert.ElementsMatch(t, g.Ops, order)
}

func TestRandomSampleIsAValidSchedule(t *testing.T) {
	g := graphtest.Fork()
	h := hier.Build(g)
	reg := optrait.NewRegistry()
	rng := rand.New(rand.NewSource(7))

	order := RandomSample(h, rng)
	_, err := life.Compute(g, reg, order)
	assert.NoError(t, err, "every op's inputs must already be produced by the time RandomSample places it")
}

func TestSerenityScheduleFindsWithinRPOPeak(t *testing.T) {
	g := graphtest.Diamond()
	reg := optrait.NewRegistry()

	rpo := ReversePostOrder(g)
	rpoPeak := life.EstimatePeak(g, reg, rpo)

	order, peak := SerenitySchedule(g, reg, SerenityConfig{Samples: 200, Seed: 42, JoinOps: true})
	assert.Len(t, order, len(g.Ops))
	assert.LessOrEqual(t, peak, rpoPeak)
}

func TestSerenityScheduleDeterministicForSameSeed(t *testing.T) {
	g := graphtest.Fork()
	reg := optrait.NewRegistry()

	order1, peak1 := SerenitySchedule(g, reg, SerenityConfig{Samples: 50, Seed: 5})
	order2, peak2 := SerenitySchedule(g, reg, SerenityConfig{Samples: 50, Seed: 5})
	assert.Equal(t, order1, order2)
	assert.Equal(t, peak1, peak2)
}

func TestSerenityScheduleParallelMatchesSequential(t *testing.T) {
	g := graphtest.Fork()
	reg := optrait.NewRegistry()

	_, seqPeak := SerenitySchedule(g, reg, SerenityConfig{Samples: 100, Seed: 3, Parallel: false})
	_, parPeak := SerenitySchedule(g, reg, SerenityConfig{Samples: 100, Seed: 3, Parallel: true})
	assert.Equal(t, seqPeak, parPeak, "the same seeded samples should find the same best peak whether run sequentially or in parallel")
}

func TestSerenityScheduleDefaultsSampleCount(t *testing.T) {
	g := graphtest.Chain()
	reg := optrait.NewRegistry()

	order, _ := SerenitySchedule(g, reg, SerenityConfig{})
	assert.Len(t, order, len(g.Ops))
}

func TestSerenityScheduleTrySimpleUsesGroupRPOWhenItFits(t *testing.T) {
	g := graphtest.Diamond()
	reg := optrait.NewRegistry()

	order, peak := SerenitySchedule(g, reg, SerenityConfig{Samples: 20, Seed: 9, JoinOps: true, TrySimple: true})
	assert.Len(t, order, len(g.Ops))
	assert.Greater(t, peak, int64(0))
}
