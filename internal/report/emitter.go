// Package report handles the audit report stream, the human summary and the
// gating policy.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/logredact/logredact/internal/redactor"
)

// Record is one audit entry: a rule matched on a line. File is set only in
// sweep mode, where records from several inputs share one report stream.
type Record struct {
	Line   int    `json:"line"`
	RuleID string `json:"rule_id"`
	Count  int    `json:"count"`
	File   string `json:"file,omitempty"`
}

// Emitter serializes records as JSON lines, one self-contained object per
// line. Each record is written with a single Write call against the
// underlying writer, so an interrupted process never leaves a half-written
// record behind. The stream itself is append-only and not atomic: on abort,
// records already written remain.
type Emitter struct {
	w    io.Writer
	file string
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// SetFile tags subsequent records with a source file path (sweep mode).
func (e *Emitter) SetFile(path string) {
	e.file = path
}

// Observe writes one record per rule with a nonzero count on the line, in
// rule application order.
func (e *Emitter) Observe(res redactor.LineResult) error {
	for _, h := range res.Hits {
		rec := Record{Line: res.LineNumber, RuleID: h.RuleID, Count: h.Count, File: e.file}
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := e.w.Write(append(b, '\n')); err != nil {
			return fmt.Errorf("write report record: %w", err)
		}
	}
	return nil
}
