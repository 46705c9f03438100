package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logredact/logredact/internal/report"
	"github.com/logredact/logredact/internal/rules"
	"github.com/logredact/logredact/internal/stream"
)

func tokenSet(t *testing.T) *rules.Set {
	t.Helper()
	r, err := rules.Compile("tok1", `token=\w+`, "token=[REDACTED]")
	require.NoError(t, err)
	set, err := rules.NewSet([]rules.Rule{r})
	require.NoError(t, err)
	return set
}

func memSource(t *testing.T, text string) *stream.Source {
	t.Helper()
	src, err := stream.New(strings.NewReader(text), "", stream.PolicyReplace)
	require.NoError(t, err)
	return src
}

func TestRunRedactsAndReports(t *testing.T) {
	var out, rep bytes.Buffer
	res, err := Run(Options{
		Rules:  tokenSet(t),
		Source: memSource(t, "token=abc123 ok\nclean line\n"),
		Sink:   stream.NewWriterSink(&out),
		Report: report.NewEmitter(&rep),
	})
	require.NoError(t, err)

	assert.Equal(t, "token=[REDACTED] ok\nclean line\n", out.String())
	assert.Equal(t, 2, res.Stats.LinesTotal)
	assert.Equal(t, 1, res.Stats.RedactionsTotal)
	assert.Equal(t, map[string]int{"tok1": 1}, res.Stats.RedactionsByRule)
	assert.True(t, res.Changed)
	assert.Equal(t, `{"line":1,"rule_id":"tok1","count":1}`+"\n", rep.String())
}

func TestRunChangedFalseWhenNothingMatches(t *testing.T) {
	var out bytes.Buffer
	res, err := Run(Options{
		Rules:  tokenSet(t),
		Source: memSource(t, "nothing here\nstill nothing"),
		Sink:   stream.NewWriterSink(&out),
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "nothing here\nstill nothing", out.String())
	assert.Equal(t, 2, res.Stats.LinesTotal)
}

func TestRunPreservesMissingFinalNewline(t *testing.T) {
	var out bytes.Buffer
	_, err := Run(Options{
		Rules:  tokenSet(t),
		Source: memSource(t, "token=x"),
		Sink:   stream.NewWriterSink(&out),
	})
	require.NoError(t, err)
	assert.Equal(t, "token=[REDACTED]", out.String())
}

func TestRunNilRulesIsConfigError(t *testing.T) {
	_, err := Run(Options{Source: memSource(t, ""), Sink: stream.Null()})
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestRunDryRunIsRepeatable(t *testing.T) {
	const input = "token=aaa\ntoken=bbb and token=ccc\nplain\n"

	run := func() Result {
		res, err := Run(Options{
			Rules:  tokenSet(t),
			Source: memSource(t, input),
			Sink:   stream.Null(),
		})
		require.NoError(t, err)
		return res
	}

	first := run()
	second := run()
	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, 3, first.Stats.RedactionsTotal)
	assert.True(t, first.Changed)
}

func TestRunDecodeErrorAborts(t *testing.T) {
	src, err := stream.New(strings.NewReader("fine\n\xff\xfe\n"), "utf-8", stream.PolicyStrict)
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = Run(Options{
		Rules:  tokenSet(t),
		Source: src,
		Sink:   stream.NewWriterSink(&out),
	})
	assert.True(t, errors.Is(err, ErrDecode), "got %v", err)
	assert.Contains(t, err.Error(), "line 2")
}

type failingSink struct {
	wrapped stream.Sink
	failAt  int
	writes  int
	aborted bool
}

func (s *failingSink) WriteLine(line string) error {
	s.writes++
	if s.writes >= s.failAt {
		return errors.New("disk full")
	}
	return s.wrapped.WriteLine(line)
}
func (s *failingSink) Commit() error { return s.wrapped.Commit() }
func (s *failingSink) Abort()        { s.aborted = true; s.wrapped.Abort() }

func TestRunWriteErrorAbortsAtomicSink(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(dst, []byte("token=abc\ntoken=def\n"), 0o644))

	atomic, err := stream.OpenAtomic(dst, ".bak")
	require.NoError(t, err)
	sink := &failingSink{wrapped: atomic, failAt: 2}

	_, err = Run(Options{
		Rules:  tokenSet(t),
		Source: memSource(t, "token=abc\ntoken=def\n"),
		Sink:   sink,
	})
	assert.True(t, errors.Is(err, ErrIO), "got %v", err)
	assert.True(t, sink.aborted)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "token=abc\ntoken=def\n", string(got), "destination untouched after abort")

	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, ents, 1, "no temp or backup files remain")
}

func TestRunEmptyInputCommitsEmpty(t *testing.T) {
	var out bytes.Buffer
	res, err := Run(Options{
		Rules:  tokenSet(t),
		Source: memSource(t, ""),
		Sink:   stream.NewWriterSink(&out),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stats.LinesTotal)
	assert.False(t, res.Changed)
	assert.Equal(t, "", out.String())
}
