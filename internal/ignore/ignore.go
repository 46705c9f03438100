// Package ignore matches paths against a .logredactignore file: one pattern
// per line, '#' comments, blank lines skipped. A trailing slash matches a
// directory prefix; otherwise patterns are shell globs tried against the
// relative path and its base name.
package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type Matcher struct {
	dirs  []string
	globs []string
}

// Load reads patterns from the given file. A missing file yields an empty
// matcher and an error the caller may ignore.
func Load(file string) (Matcher, error) {
	var m Matcher
	f, err := os.Open(file)
	if err != nil {
		return m, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, "/") {
			m.dirs = append(m.dirs, strings.TrimSuffix(line, "/"))
			continue
		}
		m.globs = append(m.globs, line)
	}
	return m, sc.Err()
}

// Match reports whether the relative path is excluded.
func (m Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, d := range m.dirs {
		if rel == d || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	base := path.Base(rel)
	for _, g := range m.globs {
		if ok, _ := path.Match(g, rel); ok {
			return true
		}
		if ok, _ := path.Match(g, base); ok {
			return true
		}
	}
	return false
}
