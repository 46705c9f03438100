package stream

import (
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, s *Source) []string {
	t.Helper()
	var lines []string
	for {
		line, err := s.Next()
		if err == io.EOF {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestSourceKeepsTerminators(t *testing.T) {
	s, err := New(strings.NewReader("one\ntwo\nlast"), "", PolicyReplace)
	require.NoError(t, err)
	assert.Equal(t, []string{"one\n", "two\n", "last"}, readAll(t, s))
}

func TestSourceEmptyInput(t *testing.T) {
	s, err := New(strings.NewReader(""), "", PolicyReplace)
	require.NoError(t, err)
	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestOpenGzipFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "app.log.gz")
	f, err := os.Create(p)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("alpha\nbeta\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	s, err := Open(p, "", PolicyReplace)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, []string{"alpha\n", "beta\n"}, readAll(t, s))
}

func TestStrictUTF8Fails(t *testing.T) {
	s, err := New(strings.NewReader("ok\n\xff\xfe bad\n"), "utf-8", PolicyStrict)
	require.NoError(t, err)

	line, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "ok\n", line)

	_, err = s.Next()
	assert.True(t, errors.Is(err, ErrUndecodable), "got %v", err)
}

func TestReplaceUTF8SubstitutesRune(t *testing.T) {
	s, err := New(strings.NewReader("a\xffb\n"), "utf-8", PolicyReplace)
	require.NoError(t, err)
	line, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "a�b\n", line)
}

func TestLatin1Decode(t *testing.T) {
	// 0xE9 is é in ISO-8859-1
	s, err := New(strings.NewReader("caf\xe9\n"), "iso-8859-1", PolicyReplace)
	require.NoError(t, err)
	line, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "café\n", line)
}

func TestUnknownEncoding(t *testing.T) {
	_, err := New(strings.NewReader("x"), "no-such-charset", PolicyReplace)
	assert.ErrorContains(t, err, "unknown encoding")
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    DecodePolicy
		wantErr bool
	}{
		{"", PolicyReplace, false},
		{"replace", PolicyReplace, false},
		{"STRICT", PolicyStrict, false},
		{" strict ", PolicyStrict, false},
		{"ignore", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestIsGzipPath(t *testing.T) {
	assert.True(t, IsGzipPath("app.log.gz"))
	assert.True(t, IsGzipPath("APP.LOG.GZ"))
	assert.False(t, IsGzipPath("app.log"))
	assert.False(t, IsGzipPath("-"))
}
