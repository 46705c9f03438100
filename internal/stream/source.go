// Package stream presents line-oriented sources and sinks over plain files,
// standard streams and gzip-compressed files. Compression is purely a
// transport concern: the line contract is identical either way.
package stream

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// StdioPath selects standard input or output instead of a file.
const StdioPath = "-"

// ErrUndecodable marks input bytes that cannot be decoded under the
// configured strict policy.
var ErrUndecodable = errors.New("undecodable input byte sequence")

// DecodePolicy selects how undecodable input bytes are handled.
type DecodePolicy string

const (
	// PolicyReplace substitutes U+FFFD for undecodable bytes.
	PolicyReplace DecodePolicy = "replace"
	// PolicyStrict fails the run on the first undecodable byte.
	PolicyStrict DecodePolicy = "strict"
)

// ParsePolicy validates a policy string, defaulting empty to replace.
func ParsePolicy(s string) (DecodePolicy, error) {
	switch DecodePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyReplace:
		return PolicyReplace, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown decode policy %q (strict|replace)", s)
	}
}

// IsGzipPath reports whether the path selects the gzip transport.
func IsGzipPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// Source yields decoded text lines, forward-only, terminator included except
// possibly on the final line.
type Source struct {
	r          *bufio.Reader
	strictScan bool
	closers    []io.Closer
}

// Open opens path as a line source. "-" reads standard input; a .gz suffix
// selects transparent decompression. The configured encoding and decode
// policy apply uniformly in both cases.
func Open(path, encName string, policy DecodePolicy) (*Source, error) {
	if path == StdioPath {
		return newSource(os.Stdin, nil, encName, policy)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var r io.Reader = f
	closers := []io.Closer{f}
	if IsGzipPath(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		r = gz
		closers = []io.Closer{gz, f}
	}
	return newSource(r, closers, encName, policy)
}

// New wraps an arbitrary reader as a line source (used by the embedding API
// and tests). No transport selection happens here.
func New(r io.Reader, encName string, policy DecodePolicy) (*Source, error) {
	return newSource(r, nil, encName, policy)
}

func newSource(r io.Reader, closers []io.Closer, encName string, policy DecodePolicy) (*Source, error) {
	dec, strictScan, err := decodeReader(r, encName, policy)
	if err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}
	return &Source{r: bufio.NewReader(dec), strictScan: strictScan, closers: closers}, nil
}

// decodeReader wraps r so it yields UTF-8 text per the configured encoding.
// UTF-8 strictness is enforced precisely by the validator transformer. For
// other charsets the x/text decoders substitute U+FFFD without erroring, so
// strict policy is enforced by rejecting decoded lines that contain the
// replacement rune. That scan can false-positive on charsets able to encode
// U+FFFD themselves (UTF-16 input carrying a literal replacement character);
// single-byte charsets have no such code point and are unaffected.
func decodeReader(r io.Reader, encName string, policy DecodePolicy) (io.Reader, bool, error) {
	name := strings.ToLower(strings.TrimSpace(encName))
	if name == "" || name == "utf-8" || name == "utf8" {
		if policy == PolicyStrict {
			return transform.NewReader(r, encoding.UTF8Validator), false, nil
		}
		return transform.NewReader(r, runes.ReplaceIllFormed()), false, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, false, fmt.Errorf("unknown encoding %q", encName)
	}
	return transform.NewReader(r, enc.NewDecoder()), policy == PolicyStrict, nil
}

// Next returns the next line including its terminator. The final line may
// lack one. Returns io.EOF when the source is exhausted.
func (s *Source) Next() (string, error) {
	line, err := s.r.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", io.EOF
		}
		err = nil
	}
	if err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return "", err
	}
	if s.strictScan && strings.ContainsRune(line, utf8.RuneError) {
		return "", fmt.Errorf("%w: line contains bytes outside the configured encoding", ErrUndecodable)
	}
	return line, nil
}

// Close releases the underlying handles. Safe to call after an error.
func (s *Source) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
