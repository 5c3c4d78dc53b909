package report

import (
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/heymagurany/toggl-to-jira/internal/epic"
)

// WriteEpicSummary renders the epic aggregates as an aligned console table,
// with grouped thousands in the seconds column.
func WriteEpicSummary(w io.Writer, aggregates map[string]epic.Aggregate, workingSeconds int) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "%-20s %15s %12s %10s\n", "EPIC", "SECONDS", "HOURS", "PERCENT")
	totalSeconds := 0
	for _, key := range sortedKeys(aggregates) {
		agg := aggregates[key]
		hours := time.Duration(agg.TimeSpentSeconds) * time.Second
		p.Fprintf(w, "%-20s %15d %12.1f %9d%%\n", key, agg.TimeSpentSeconds, hours.Hours(), agg.TimeSpentPercent)
		totalSeconds += agg.TimeSpentSeconds
	}
	p.Fprintf(w, "%-20s %15d %12.1f  (of %d working seconds)\n",
		"TOTAL", totalSeconds, (time.Duration(totalSeconds) * time.Second).Hours(), workingSeconds)
}
