// Package plan turns a computed lifetime list into a concrete byte-offset
// memory plan: an actual arena layout, not just a peak number.
//
// Grounded on original_source/include/hos/sched/plan.hpp and
// src/sched/plan.cpp (the best-fit heuristic of Sekiyama et al.).
package plan

import (
	"sort"

	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/sched/life"
)

// Step is one contiguous [Begin, End) time range of a Container that
// currently sits at a single Offset.
type Step struct {
	Begin, Width int
	Offset       int64
}

// End is the exclusive end time of the step.
func (s Step) End() int { return s.Begin + s.Width }

// Desc is a placed or unplaced memory block: a value's [Gen, Kill) range
// at a given byte size, plus the offset BestFit assigns it.
type Desc struct {
	Value  int
	Gen    int
	Kill   int
	Size   int64
	Offset int64
}

// Length is the number of time steps this block occupies.
func (d Desc) Length() int { return d.Kill - d.Gen }

// Container models the packing surface as a sequence of steps, each a
// horizontal band with its own current offset (height).
type Container struct {
	tBegin, tEnd int
	maxHeight    int64
	steps        []Step
}

// NewContainer creates a container spanning [begin, end) with everything
// initially at offset 0.
func NewContainer(begin, end int) *Container {
	return &Container{tBegin: begin, tEnd: end, steps: []Step{{Begin: begin, Width: end - begin}}}
}

// MaxHeight is the tallest offset any block has reached.
func (c *Container) MaxHeight() int64 { return c.maxHeight }

// findStepAt returns the index of the step covering time t.
func (c *Container) findStepAt(t int) int {
	idx := sort.Search(len(c.steps), func(i int) bool { return c.steps[i].Begin > t }) - 1
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Place lays a [begin, begin+width) block of the given height at the
// lowest free offset within the step covering begin, returning that
// offset and whether placement succeeded. Placement fails if the block
// would fall outside the container or spill past the end of its step.
func (c *Container) Place(begin, width int, height int64) (int64, bool) {
	end := begin + width
	if begin < c.tBegin || end > c.tEnd {
		return 0, false
	}
	idx := c.findStepAt(begin)
	step := c.steps[idx]
	if end > step.End() {
		return 0, false
	}

	newHeight := step.Offset + height
	if newHeight > c.maxHeight {
		c.maxHeight = newHeight
	}

	var inserted []Step
	if begin != step.Begin {
		inserted = append(inserted, Step{Begin: step.Begin, Width: begin - step.Begin, Offset: step.Offset})
	}
	inserted = append(inserted, Step{Begin: begin, Width: width, Offset: newHeight})
	if end != step.End() {
		inserted = append(inserted, Step{Begin: end, Width: step.End() - end, Offset: step.Offset})
	}

	rest := append([]Step(nil), c.steps[idx+1:]...)
	c.steps = append(append(c.steps[:idx], inserted...), rest...)

	beginIdx := idx - 1
	if beginIdx < 0 {
		beginIdx = 0
	}
	c.tryMerge(beginIdx, len(inserted)+1)

	return step.Offset, true
}

// tryMerge coalesces up to nTrial adjacent step pairs starting at
// beginIdx whenever they share the same offset.
func (c *Container) tryMerge(beginIdx, nTrial int) {
	stepIdx := beginIdx
	for i := 0; i < nTrial; i++ {
		if stepIdx >= len(c.steps)-1 {
			return
		}
		cur, next := &c.steps[stepIdx], &c.steps[stepIdx+1]
		if cur.Offset == next.Offset {
			cur.Width += next.Width
			c.steps = append(c.steps[:stepIdx+1], c.steps[stepIdx+2:]...)
		} else {
			stepIdx++
		}
	}
}

// Lift raises the step at time so it sits level with its lowest
// neighbor, freeing up the gap below it for a future Place. A no-op if
// the step is already the container's only step, or is already lower
// than every neighbor.
func (c *Container) Lift(time int) {
	if len(c.steps) == 1 {
		return
	}
	idx := c.findStepAt(time)
	step := &c.steps[idx]

	switch {
	case idx == 0:
		right := &c.steps[1]
		if step.Offset > right.Offset {
			return
		}
		step.Offset = right.Offset
		c.tryMerge(idx, 1)
	case idx == len(c.steps)-1:
		left := &c.steps[idx-1]
		if step.Offset > left.Offset {
			return
		}
		step.Offset = left.Offset
		c.tryMerge(idx-1, 1)
	default:
		left, right := &c.steps[idx-1], &c.steps[idx+1]
		if step.Offset > left.Offset || step.Offset > right.Offset {
			return
		}
		if left.Offset < right.Offset {
			step.Offset = left.Offset
		} else {
			step.Offset = right.Offset
		}
		c.tryMerge(idx-1, 2)
	}
}

// minOffsetStep returns the lowest-offset step currently in the container.
func (c *Container) minOffsetStep() Step {
	best := c.steps[0]
	for _, s := range c.steps[1:] {
		if s.Offset < best.Offset {
			best = s
		}
	}
	return best
}

// MemoryPlan is a concrete byte-offset layout: every value's Desc, the
// resulting peak footprint, and a value->offset index for callers that
// only need lookups.
type MemoryPlan struct {
	Peak    int64
	Descs   []Desc
	Offsets map[int]int64
}

// BestFit packs stat's lifetimes into a single arena using the best-fit
// heuristic: repeatedly take the container's lowest step, place the
// widest still-unplaced block that fits it, and Lift the step out of the
// way if nothing fits.
func BestFit(g *graph.Graph, stat *life.Stat) MemoryPlan {
	unplaced := make([]Desc, len(stat.Lifetimes))
	minGen, maxKill := 0, 0
	for i, lt := range stat.Lifetimes {
		unplaced[i] = Desc{Value: lt.Value, Gen: lt.Gen, Kill: lt.Kill, Size: g.Values[lt.Value].Type.Size()}
		if lt.Gen < minGen {
			minGen = lt.Gen
		}
		if lt.Kill > maxKill {
			maxKill = lt.Kill
		}
	}

	cont := NewContainer(minGen, maxKill)
	var placed []Desc

	for len(unplaced) > 0 {
		step := cont.minOffsetStep()

		bestIdx := -1
		for i, d := range unplaced {
			if d.Gen < step.Begin || d.Kill > step.End() {
				continue
			}
			if bestIdx == -1 || d.Length() > unplaced[bestIdx].Length() {
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			cont.Lift(step.Begin)
			continue
		}

		block := unplaced[bestIdx]
		offset, ok := cont.Place(block.Gen, block.Length(), block.Size)
		if !ok {
			// Best-fit search already checked the block fits inside this
			// step, so a failed Place means the step boundaries moved
			// under us; retry from scratch on the next loop iteration.
			cont.Lift(step.Begin)
			continue
		}
		block.Offset = offset
		placed = append(placed, block)
		unplaced = append(unplaced[:bestIdx], unplaced[bestIdx+1:]...)
	}

	sort.Slice(placed, func(i, j int) bool {
		if placed[i].Gen != placed[j].Gen {
			return placed[i].Gen < placed[j].Gen
		}
		return placed[i].Kill < placed[j].Kill
	})
	offsets := make(map[int]int64, len(placed))
	for _, d := range placed {
		offsets[d.Value] = d.Offset
	}
	return MemoryPlan{Peak: cont.MaxHeight(), Descs: placed, Offsets: offsets}
}
