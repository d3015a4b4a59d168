package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/vanderheijden86/pandemap/pkg/debug"
	"github.com/vanderheijden86/pandemap/pkg/metrics"
)

// printTimings writes the fetch and render timings collected during the
// command, and the retry counters, as a table.
func printTimings(w io.Writer) {
	stats := metrics.AllTimingStats()
	if len(stats) == 0 {
		fmt.Fprintln(w, "No timings recorded.")
		return
	}
	ms := func(v float64) string { return humanize.FormatFloat("#,###.##", v) + "ms" }
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Operation", "Count", "Avg", "Min", "Max")
	for _, s := range stats {
		t.Row(s.Name, humanize.Comma(s.Count), ms(s.AvgMs), ms(s.MinMs), ms(s.MaxMs))
	}
	fmt.Fprintln(w, t.Render())
	for _, c := range metrics.AllCounters() {
		if c.Value() > 0 {
			fmt.Fprintf(w, "%s: %d\n", c.Name(), c.Value())
		}
	}
}

// logTimings sends the same figures to the debug log.
func logTimings() {
	if !debug.Enabled() {
		return
	}
	debug.Section("timings")
	for _, s := range metrics.AllTimingStats() {
		debug.LogTiming(fmt.Sprintf("%s x%d avg", s.Name, s.Count), time.Duration(s.AvgMs*float64(time.Millisecond)))
	}
}
