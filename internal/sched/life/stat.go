package life

import (
	"sort"

	"github.com/hmcos-go/hmcos/internal/graph"
)

// Stat wraps a computed lifetime list with the sizing information needed
// to answer peak-memory questions.
type Stat struct {
	Lifetimes []Lifetime
	NumSteps  int
	g         *graph.Graph
}

// NewStat builds a Stat from a Compute result.
func NewStat(g *graph.Graph, lifetimes []Lifetime, numSteps int) *Stat {
	return &Stat{Lifetimes: lifetimes, NumSteps: numSteps, g: g}
}

type event struct {
	time int
	size int64
	end  bool
}

// Histogram sweeps time from TimeInput to NumSteps-1, returning the
// active-byte total at each step. O((n + values) log n).
func (s *Stat) Histogram() []int64 {
	events := make([]event, 0, 2*len(s.Lifetimes))
	for _, lt := range s.Lifetimes {
		size := s.g.Values[lt.Value].Type.Size()
		events = append(events, event{time: lt.Gen, size: size, end: false})
		events = append(events, event{time: lt.Kill, size: size, end: true})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].time != events[j].time {
			return events[i].time < events[j].time
		}
		// Process kills before gens at the same time so a value dying
		// exactly when another is born doesn't double-count.
		return events[i].end && !events[j].end
	})

	hist := make([]int64, s.NumSteps+1) // index 0 == TimeInput
	var active int64
	ei := 0
	for t := TimeInput; t < s.NumSteps; t++ {
		for ei < len(events) && events[ei].time == t {
			if events[ei].end {
				active -= events[ei].size
			} else {
				active += events[ei].size
			}
			ei++
		}
		hist[t-TimeInput] = active
	}
	return hist
}

// Peak is the maximum value of Histogram.
func (s *Stat) Peak() int64 {
	var peak int64
	for _, v := range s.Histogram() {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// PeakValues returns the values alive at the moment of peak usage,
// used by the iterative refinement driver (SPEC_FULL.md §4.8.3) to pick
// which sequences to ungroup.
func (s *Stat) PeakValues() []int {
	hist := s.Histogram()
	var peak int64
	peakTime := TimeInput
	for i, v := range hist {
		if v > peak {
			peak = v
			peakTime = i + TimeInput
		}
	}
	var values []int
	for _, lt := range s.Lifetimes {
		if lt.Gen <= peakTime && peakTime < lt.Kill {
			values = append(values, lt.Value)
		}
	}
	return values
}
