package schedule_test

import (
	"math/rand"
	"testing"

	"github.com/hmcos-go/hmcos/internal/graphtest"
	"github.com/hmcos-go/hmcos/schedule"
)

func TestRunFindsScheduleWithinBudget(t *testing.T) {
	g := graphtest.Diamond()

	order, peak, err := schedule.Run(g, 1<<30)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(order) != g.NumOps() {
		t.Errorf("expected an order over all %d ops, got %d", g.NumOps(), len(order))
	}
	if peak <= 0 {
		t.Errorf("expected a positive peak, got %d", peak)
	}
}

func TestRunReportsBudgetExceeded(t *testing.T) {
	g := graphtest.Diamond()

	_, _, err := schedule.Run(g, 1)
	if err != schedule.ErrBudgetExceeded {
		t.Errorf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestBaselineCoversAllOps(t *testing.T) {
	g := graphtest.Fork()
	order := schedule.Baseline(g)
	if len(order) != g.NumOps() {
		t.Errorf("expected %d ops, got %d", g.NumOps(), len(order))
	}
}

func TestRunSerenityMatchesOrLosesToBaseline(t *testing.T) {
	g := graphtest.Diamond()
	baseline := schedule.Baseline(g)
	baselinePeak := schedule.EstimatePeak(g, baseline)

	order, peak := schedule.RunSerenity(g, schedule.SerenityConfig{Samples: 200, Seed: 11})
	if len(order) != g.NumOps() {
		t.Errorf("expected %d ops, got %d", g.NumOps(), len(order))
	}
	if peak > baselinePeak {
		t.Errorf("Serenity peak %d should never exceed the baseline peak %d", peak, baselinePeak)
	}
}

func TestRandomSampleCoversAllOps(t *testing.T) {
	g := graphtest.Fork()
	rng := rand.New(rand.NewSource(9))

	order := schedule.RandomSample(g, rng)
	if len(order) != g.NumOps() {
		t.Errorf("expected %d ops, got %d", g.NumOps(), len(order))
	}
}

func TestAnalyzeAndPlan(t *testing.T) {
	g := graphtest.Fork()
	order := schedule.Baseline(g)

	stat, err := schedule.Analyze(g, order)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	mplan := schedule.Plan(g, stat)
	if mplan.Peak != stat.Peak() {
		t.Errorf("MemoryPlan.Peak = %d, want %d", mplan.Peak, stat.Peak())
	}
}
