// Package pipeline drives one redaction run: it pulls lines from a source,
// transforms each through the rule set, routes the result to the sink, the
// stats accumulator and the optional report emitter, then commits the sink at
// end-of-stream.
//
// The run moves through Init -> Streaming -> Finalizing and ends Committed or
// Aborted. Processing is strictly sequential: line N's output bytes, stats
// delta and report records are applied before line N+1 is read. Any error
// aborts the run without commit; staged output is discarded, report records
// already written remain (the report stream is documented non-atomic).
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/logredact/logredact/internal/logger"
	"github.com/logredact/logredact/internal/redactor"
	"github.com/logredact/logredact/internal/report"
	"github.com/logredact/logredact/internal/rules"
	"github.com/logredact/logredact/internal/stats"
	"github.com/logredact/logredact/internal/stream"
)

// Error kinds surfaced by a run. All are fatal to the run; there are no
// retries in a one-shot batch transform.
var (
	ErrConfig = errors.New("invalid configuration")
	ErrDecode = errors.New("input decode error")
	ErrIO     = errors.New("i/o error")
)

// Options wires one run. Source and Sink are owned by the caller for opening
// and by the run for commit/abort; Stats may be shared across runs by a
// multi-file driver, otherwise a fresh accumulator is used.
type Options struct {
	Rules  *rules.Set
	Source *stream.Source
	Sink   stream.Sink
	Report *report.Emitter // optional
	Stats  *stats.Accumulator
	Log    *logger.Logger // optional, diagnostics only
}

// Result is the outcome of a committed run.
type Result struct {
	Stats    stats.Snapshot
	Changed  bool // output differs from input
	Duration time.Duration
}

// Run executes the pipeline to completion. On success the sink is committed
// and the finalized stats snapshot is returned; on any error the sink is
// aborted and the error is classified as ErrDecode or ErrIO.
func Run(opts Options) (Result, error) {
	if opts.Rules == nil {
		return Result{}, fmt.Errorf("%w: nil rule set", ErrConfig)
	}
	acc := opts.Stats
	if acc == nil {
		acc = stats.NewAccumulator()
	}

	inHash, outHash := xxhash.New(), xxhash.New()
	started := time.Now()
	lineNo := 0
	for {
		line, err := opts.Source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			opts.Sink.Abort()
			if errors.Is(err, stream.ErrUndecodable) {
				return Result{}, fmt.Errorf("%w: line %d: %v", ErrDecode, lineNo+1, err)
			}
			return Result{}, fmt.Errorf("%w: read line %d: %v", ErrIO, lineNo+1, err)
		}
		lineNo++
		res := redactor.Apply(opts.Rules, lineNo, line)
		if err := opts.Sink.WriteLine(res.Redacted); err != nil {
			opts.Sink.Abort()
			return Result{}, fmt.Errorf("%w: write line %d: %v", ErrIO, lineNo, err)
		}
		acc.Observe(res)
		if opts.Report != nil {
			if err := opts.Report.Observe(res); err != nil {
				opts.Sink.Abort()
				return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
			}
		}
		_, _ = inHash.WriteString(line)
		_, _ = outHash.WriteString(res.Redacted)
	}

	if err := opts.Sink.Commit(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
	}

	snap := acc.Snapshot()
	if opts.Log != nil {
		opts.Log.Debugf("run committed: %d lines, %d redactions", snap.LinesTotal, snap.RedactionsTotal)
	}
	return Result{
		Stats:    snap,
		Changed:  inHash.Sum64() != outHash.Sum64(),
		Duration: time.Since(started),
	}, nil
}
