// Package reporter provides best-effort diagnostics for the scheduler:
// dumping intermediate structures and diffing two schedules. Per
// SPEC_FULL.md §7, a reporter failure is logged and ignored rather than
// propagated — nothing here ever returns an error.
package reporter

import (
	"fmt"
	"log"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/hmcos-go/hmcos/internal/graph"
	"github.com/hmcos-go/hmcos/internal/hier"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump renders v as an indented, deterministic tree, the way a developer
// debugging a hung schedule would print a HierGraph or a MemoryPlan at a
// REPL. Never fails: an unprintable value just yields spew's own
// "(unhandled...)" placeholder text.
func Dump(label string, v interface{}) string {
	return label + ":\n" + dumpConfig.Sdump(v)
}

// LabelSchedule renders order (a flat list of graph.Graph op vertex
// indices) as one op name per line, for feeding into DiffSchedules.
func LabelSchedule(g *graph.Graph, order []int) []string {
	lines := make([]string, len(order))
	for i, op := range order {
		v := &g.Vertices[op]
		lines[i] = fmt.Sprintf("%d: %s(%s)", i, v.Name, v.OpType)
	}
	return lines
}

// DiffSchedules unified-diffs two labeled schedules (see LabelSchedule),
// for comparing e.g. a HierScheduler result against ReversePostOrder
// during development. Returns an empty string on failure, logged rather
// than surfaced, since a reporter is never load-bearing.
func DiffSchedules(fromName string, from []string, toName string, to []string) string {
	diff := difflib.UnifiedDiff{
		A:        from,
		B:        to,
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		log.Printf("reporter: diff failed: %v", err)
		return ""
	}
	return text
}

// DumpHierGraph renders every live vertex of h with its Label and edges,
// a text-only stand-in for original_source's Graphviz plot_hier_graph.
func DumpHierGraph(h *hier.Graph) string {
	var b strings.Builder
	for _, s := range h.Seqs {
		fmt.Fprintf(&b, "seq %d %q preds=%v succs=%v\n", s, h.Label(s), h.Vertices[s].Preds, h.Vertices[s].Succs)
	}
	for _, gIdx := range h.Groups {
		fmt.Fprintf(&b, "group %d %q preds=%v succs=%v\n", gIdx, h.Label(gIdx), h.Vertices[gIdx].Preds, h.Vertices[gIdx].Succs)
	}
	return b.String()
}
