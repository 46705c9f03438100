// Package stats accumulates run-level redaction counters.
package stats

import (
	"encoding/json"
	"io"

	"github.com/logredact/logredact/internal/redactor"
)

// Snapshot is a read-only copy of the counters, taken at end-of-stream.
// Field names match the emitted JSON object.
type Snapshot struct {
	LinesTotal       int            `json:"lines_total"`
	RedactionsTotal  int            `json:"redactions_total"`
	RedactionsByRule map[string]int `json:"redactions_by_rule"`
}

// Accumulator aggregates per-line results into running totals. Counters only
// ever increase; the accumulator is owned by a single driver for the run and
// is never reset mid-run.
type Accumulator struct {
	lines  int
	total  int
	byRule map[string]int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{byRule: map[string]int{}}
}

// Observe folds one line result into the totals. It must be called exactly
// once per input line, in input order, including lines with zero redactions.
func (a *Accumulator) Observe(res redactor.LineResult) {
	a.lines++
	for _, h := range res.Hits {
		a.total += h.Count
		a.byRule[h.RuleID] += h.Count
	}
}

// Snapshot copies the current counters. The byRule map is always non-nil so
// the JSON form is {} rather than null when nothing matched.
func (a *Accumulator) Snapshot() Snapshot {
	byRule := make(map[string]int, len(a.byRule))
	for k, v := range a.byRule {
		byRule[k] = v
	}
	return Snapshot{
		LinesTotal:       a.lines,
		RedactionsTotal:  a.total,
		RedactionsByRule: byRule,
	}
}

// WriteJSON emits the snapshot as a single compact JSON object followed by a
// newline. Map keys are marshaled in sorted order, so output is deterministic
// for identical runs.
func (s Snapshot) WriteJSON(w io.Writer) error {
	if s.RedactionsByRule == nil {
		s.RedactionsByRule = map[string]int{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
