package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/practice-sim/practice-sim/sim/trace"
)

// printSummary displays the run statistics at the end of a simulation.
func printSummary(out io.Writer, res *runResult) {
	s := res.Summary
	fmt.Fprintln(out, "=== Simulation Summary ===")
	if res.RunID != "" {
		fmt.Fprintf(out, "Run ID               : %s\n", res.RunID)
	}
	fmt.Fprintf(out, "Ticks                : %s\n", humanize.Comma(res.Ticks))
	fmt.Fprintf(out, "Wall Time            : %s\n", res.Elapsed)
	fmt.Fprintf(out, "Total Events         : %s\n", humanize.Comma(int64(s.TotalEvents)))
	for _, k := range []trace.EventKind{
		trace.KindEntityEnteredLocation,
		trace.KindPracticeStarted,
		trace.KindPracticeEnded,
		trace.KindSalienceVectorRegistered,
	} {
		fmt.Fprintf(out, "  %-26s: %s\n", k, humanize.Comma(int64(s.EventsByKind[k])))
	}
	if len(s.Agents) == 0 {
		return
	}
	fmt.Fprintf(out, "Trips                : %.2f ± %.2f\n", s.TripsMean, s.TripsSD)
	fmt.Fprintf(out, "Locations Visited    : %.2f ± %.2f\n", s.LocationsVisitedMean, s.LocationsVisitedSD)
	fmt.Fprintf(out, "Beds Used            : %.2f ± %.2f\n", s.BedsUsedMean, s.BedsUsedSD)
	fmt.Fprintf(out, "Sleep Ticks          : %.2f ± %.2f\n", s.SleepTicksMean, s.SleepTicksSD)

	fmt.Fprintln(out, "=== Agents ===")
	for _, name := range s.AgentNames() {
		a := s.Agents[name]
		fmt.Fprintf(out, "%-12s trips=%-6s visited=%-3d beds=%-3d slept=%-6s starts=%s\n",
			name, humanize.Comma(int64(a.Trips)), a.LocationsVisited, a.BedsUsed, humanize.Comma(a.SleepTicks), formatCounts(a.PracticeStarts))
	}
}

// formatCounts renders label counts in sorted label order.
func formatCounts(m map[string]int) string {
	labels := make([]string, 0, len(m))
	for l := range m {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	out := ""
	for i, l := range labels {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s:%d", l, m[l])
	}
	return out
}
