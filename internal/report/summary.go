package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/logredact/logredact/internal/stats"
)

type SummaryOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	FilesChanged int
}

// PrintSummary renders per-rule redaction counts as a table plus a totals
// footer. Intended for stderr so it never mixes with redacted output on
// stdout.
func PrintSummary(w io.Writer, s stats.Snapshot, opts SummaryOptions) {
	if s.RedactionsTotal == 0 {
		fmt.Fprintln(w, "No redactions needed")
	} else {
		ids := make([]string, 0, len(s.RedactionsByRule))
		for id := range s.RedactionsByRule {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		t := tablewriter.NewWriter(w)
		t.Header("RULE", "REDACTIONS")
		for _, id := range ids {
			_ = t.Append([]string{id, fmt.Sprintf("%d", s.RedactionsByRule[id])})
		}
		_ = t.Render()
	}

	total := fmt.Sprintf("%d", s.RedactionsTotal)
	if !opts.NoColor && s.RedactionsTotal > 0 {
		total = "\x1b[33m" + total + "\x1b[0m" // yellow
	}
	fmt.Fprintf(w, "Lines: %d  Redactions: %s\n", s.LinesTotal, total)
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d (changed: %d)\n", opts.FilesScanned, opts.FilesChanged)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Duration: %.2fs\n", opts.Duration.Seconds())
	}
}
