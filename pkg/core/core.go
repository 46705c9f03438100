package core

import (
	"io"

	"github.com/logredact/logredact/internal/pipeline"
	"github.com/logredact/logredact/internal/report"
	"github.com/logredact/logredact/internal/rules"
	"github.com/logredact/logredact/internal/stats"
	"github.com/logredact/logredact/internal/stream"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type Rule = rules.Rule
type RuleSet = rules.Set
type Result = pipeline.Result
type Stats = stats.Snapshot
type Policy = report.Policy

// BuildRules resolves a preset plus rule files into an immutable rule set.
// With an empty preset and no files, the full default set is used.
func BuildRules(preset string, files []string) (*RuleSet, error) {
	return rules.Build(preset, files)
}

// Redact streams r through the rule set into w (UTF-8, replace policy) and
// returns the finalized stats. This is the embedding entrypoint; transport
// selection (files, gzip, atomic commit) belongs to the CLI.
func Redact(r io.Reader, w io.Writer, set *RuleSet) (Result, error) {
	src, err := stream.New(r, "", stream.PolicyReplace)
	if err != nil {
		return Result{}, err
	}
	return pipeline.Run(pipeline.Options{
		Rules:  set,
		Source: src,
		Sink:   stream.NewWriterSink(w),
	})
}

// RedactWithReport is Redact with a JSONL audit stream attached.
func RedactWithReport(r io.Reader, w, reportW io.Writer, set *RuleSet) (Result, error) {
	src, err := stream.New(r, "", stream.PolicyReplace)
	if err != nil {
		return Result{}, err
	}
	return pipeline.Run(pipeline.Options{
		Rules:  set,
		Source: src,
		Sink:   stream.NewWriterSink(w),
		Report: report.NewEmitter(reportW),
	})
}
