package stream

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		names = append(names, e.Name())
	}
	return names
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)
	require.NoError(t, s.WriteLine("hello\n"))
	require.NoError(t, s.WriteLine("world"))
	require.NoError(t, s.Commit())
	assert.Equal(t, "hello\nworld", buf.String())
}

func TestAtomicCommitReplacesDestination(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(dst, []byte("old\n"), 0o600))

	s, err := OpenAtomic(dst, "")
	require.NoError(t, err)
	require.NoError(t, s.WriteLine("new\n"))
	require.NoError(t, s.Commit())

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(got))

	st, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	assert.Equal(t, []string{"app.log"}, listNames(t, dir), "no temp or backup left behind")
}

func TestAtomicAbortLeavesDestinationIntact(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(dst, []byte("original\n"), 0o644))

	s, err := OpenAtomic(dst, ".bak")
	require.NoError(t, err)
	require.NoError(t, s.WriteLine("partial\n"))
	s.Abort()

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(got))
	assert.Equal(t, []string{"app.log"}, listNames(t, dir))
}

func TestAtomicCommitWithBackup(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(dst, []byte("A secret\n"), 0o644))

	s, err := OpenAtomic(dst, ".bak")
	require.NoError(t, err)
	require.NoError(t, s.WriteLine("A [REDACTED]\n"))
	require.NoError(t, s.Commit())

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "A [REDACTED]\n", string(got))

	bak, err := os.ReadFile(dst + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "A secret\n", string(bak))

	st, err := os.Stat(dst + ".bak")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), st.Mode().Perm())
}

func TestAtomicCommitUnchangedLeavesDestinationAlone(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(dst, []byte("clean line\nanother\n"), 0o644))
	before, err := os.Stat(dst)
	require.NoError(t, err)

	s, err := OpenAtomic(dst, ".bak")
	require.NoError(t, err)
	require.NoError(t, s.WriteLine("clean line\n"))
	require.NoError(t, s.WriteLine("another\n"))
	require.NoError(t, s.Commit())

	after, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "unchanged file must not be rewritten")
	assert.Equal(t, []string{"app.log"}, listNames(t, dir), "no backup or temp for unchanged output")
}

func TestAtomicCommitUnchangedGzip(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "app.log.gz")
	f, err := os.Create(dst)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("same content\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	before, err := os.Stat(dst)
	require.NoError(t, err)

	s, err := OpenAtomic(dst, ".bak")
	require.NoError(t, err)
	require.NoError(t, s.WriteLine("same content\n"))
	require.NoError(t, s.Commit())

	after, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Equal(t, []string{"app.log.gz"}, listNames(t, dir))
}

func TestAtomicNewDestination(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "fresh.log")
	s, err := OpenAtomic(dst, ".bak")
	require.NoError(t, err)
	require.NoError(t, s.WriteLine("line\n"))
	require.NoError(t, s.Commit())

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(got))
	// no preexisting file means no backup
	_, err = os.Stat(dst + ".bak")
	assert.True(t, os.IsNotExist(err))
}

func TestAtomicRejectsStdio(t *testing.T) {
	_, err := OpenAtomic(StdioPath, "")
	assert.Error(t, err)
}

func TestAtomicGzipOutput(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.log.gz")
	s, err := OpenAtomic(dst, "")
	require.NoError(t, err)
	require.NoError(t, s.WriteLine("compressed\n"))
	require.NoError(t, s.Commit())

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "compressed\n", string(body))
}

func TestOpenDirectFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "direct.log")
	s, err := OpenDirect(dst)
	require.NoError(t, err)
	require.NoError(t, s.WriteLine("x\n"))
	require.NoError(t, s.Commit())

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(got))
}

func TestNullSink(t *testing.T) {
	s := Null()
	require.NoError(t, s.WriteLine("ignored\n"))
	require.NoError(t, s.Commit())
}
