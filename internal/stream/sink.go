package stream

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	xxhash "github.com/cespare/xxhash/v2"
)

// Sink accepts transformed lines and commits or discards them exactly once.
//
// Commit and Abort are terminal: after either, the sink must not be used.
// Direct sinks write incrementally and are inherently non-atomic; atomic
// sinks stage everything into an adjacent temp file and rename on Commit.
type Sink interface {
	WriteLine(line string) error
	Commit() error
	Abort()
}

// Null returns a sink that discards everything (dry-run mode: no destination
// file or temp file is created or touched).
func Null() Sink { return nullSink{} }

type nullSink struct{}

func (nullSink) WriteLine(string) error { return nil }
func (nullSink) Commit() error          { return nil }
func (nullSink) Abort()                 {}

// NewWriterSink wraps an arbitrary writer as a direct sink. Commit flushes;
// the caller owns the writer's lifecycle.
func NewWriterSink(w io.Writer) Sink {
	return &directSink{buf: bufio.NewWriter(w)}
}

// OpenDirect opens a direct (incremental, non-atomic) sink. "-" writes to
// standard output; a .gz suffix selects transparent compression.
func OpenDirect(path string) (Sink, error) {
	if path == StdioPath {
		return &directSink{buf: bufio.NewWriter(os.Stdout)}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := &directSink{f: f}
	if IsGzipPath(path) {
		s.gz = gzip.NewWriter(f)
		s.buf = bufio.NewWriter(s.gz)
	} else {
		s.buf = bufio.NewWriter(f)
	}
	return s, nil
}

type directSink struct {
	buf *bufio.Writer
	gz  *gzip.Writer
	f   *os.File
}

func (s *directSink) WriteLine(line string) error {
	_, err := s.buf.WriteString(line)
	return err
}

func (s *directSink) Commit() error {
	if err := s.buf.Flush(); err != nil {
		s.closeHandles()
		return err
	}
	return s.closeHandlesErr()
}

func (s *directSink) Abort() {
	// Partial output may remain; direct mode makes no atomicity promise.
	s.closeHandles()
}

func (s *directSink) closeHandles() { _ = s.closeHandlesErr() }

func (s *directSink) closeHandlesErr() error {
	var first error
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			first = err
		}
		s.gz = nil
	}
	if s.f != nil {
		if err := s.f.Close(); err != nil && first == nil {
			first = err
		}
		s.f = nil
	}
	return first
}

// OpenAtomic opens a sink that stages output in a temporary file next to dst
// (same directory, so the final rename stays on one filesystem) and renames
// it over dst on Commit. With a backup suffix, the original dst is first
// copied to dst+suffix, so the destination path stays present through the
// whole commit. When the staged output is byte-identical to the current dst
// content, Commit discards the temp file and leaves dst completely untouched:
// no backup, no rename, no mtime churn. Any failure before the final rename
// removes the temp file and leaves dst untouched.
func OpenAtomic(dst, backupSuffix string) (Sink, error) {
	if dst == StdioPath {
		return nil, fmt.Errorf("atomic output requires a real file path, not %q", StdioPath)
	}
	dir := filepath.Dir(dst)
	base := filepath.Base(dst)
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	mode := os.FileMode(0o644)
	if st, err := os.Stat(dst); err == nil {
		mode = st.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	s := &atomicSink{tmp: tmp, tmpPath: tmp.Name(), dst: dst, backupSuffix: backupSuffix, sum: xxhash.New()}
	if IsGzipPath(dst) {
		s.gz = gzip.NewWriter(tmp)
		s.buf = bufio.NewWriter(s.gz)
	} else {
		s.buf = bufio.NewWriter(tmp)
	}
	return s, nil
}

type atomicSink struct {
	buf          *bufio.Writer
	gz           *gzip.Writer
	tmp          *os.File
	tmpPath      string
	dst          string
	backupSuffix string
	sum          *xxhash.Digest
	written      int64
}

func (s *atomicSink) WriteLine(line string) error {
	_, _ = s.sum.WriteString(line)
	s.written += int64(len(line))
	_, err := s.buf.WriteString(line)
	return err
}

func (s *atomicSink) Commit() error {
	if err := s.buf.Flush(); err != nil {
		s.discard()
		return err
	}
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			s.discard()
			return err
		}
		s.gz = nil
	}
	if err := s.tmp.Sync(); err != nil {
		s.discard()
		return err
	}
	if err := s.tmp.Close(); err != nil {
		_ = os.Remove(s.tmpPath)
		return err
	}
	s.tmp = nil
	if s.sameAsDst() {
		_ = os.Remove(s.tmpPath)
		return nil
	}
	if s.backupSuffix != "" {
		if st, err := os.Stat(s.dst); err == nil {
			// Copy, not rename: the destination path must stay present
			// through the whole commit.
			if err := copyFile(s.dst, s.dst+s.backupSuffix, st.Mode().Perm()); err != nil {
				_ = os.Remove(s.tmpPath)
				return fmt.Errorf("create backup: %w", err)
			}
		}
	}
	if err := os.Rename(s.tmpPath, s.dst); err != nil {
		_ = os.Remove(s.tmpPath)
		return fmt.Errorf("commit output: %w", err)
	}
	return nil
}

// sameAsDst reports whether the staged output matches the current destination
// content byte for byte. Gzip destinations are compared on decompressed
// content, since recompression does not reproduce the original compressed
// bytes. Any read problem counts as a difference.
func (s *atomicSink) sameAsDst() bool {
	f, err := os.Open(s.dst)
	if err != nil {
		return false
	}
	defer f.Close()
	var r io.Reader = f
	if IsGzipPath(s.dst) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return false
		}
		defer gz.Close()
		r = gz
	}
	h := xxhash.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return false
	}
	return n == s.written && h.Sum64() == s.sum.Sum64()
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (s *atomicSink) Abort() {
	s.discard()
}

func (s *atomicSink) discard() {
	if s.gz != nil {
		_ = s.gz.Close()
		s.gz = nil
	}
	if s.tmp != nil {
		_ = s.tmp.Close()
		s.tmp = nil
	}
	_ = os.Remove(s.tmpPath)
}
