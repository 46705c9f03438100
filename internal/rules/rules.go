// Package rules defines the redaction rule model: an ordered, immutable set
// of pattern -> replacement mappings with stable identifiers. A Set is built
// once (presets plus rule files) before streaming starts and is never
// modified afterwards.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Rule is a single pattern -> replacement mapping. The replacement may
// reference captured groups using Go's template syntax (${1}, ${name}).
type Rule struct {
	ID          string
	Pattern     string
	Regexp      *regexp.Regexp
	Replacement string
}

// Set is an ordered sequence of rules. Order is semantically significant:
// rules apply in sequence to the output of the previous rule, so a later rule
// can match text introduced by an earlier rule's replacement. This is a
// deliberate single forward pass, not a fixed-point rewrite.
type Set struct {
	rules []Rule
	byID  map[string]int
}

// ruleID derives a stable identifier from the pattern and replacement text.
func ruleID(pattern, replacement string) string {
	h := sha256.New()
	h.Write([]byte(pattern))
	h.Write([]byte{0})
	h.Write([]byte(replacement))
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// Compile builds a Rule from a raw pattern/replacement pair. When id is empty
// a stable one is derived from the pattern and replacement.
func Compile(id, pattern, replacement string) (Rule, error) {
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if id == "" {
		id = ruleID(pattern, replacement)
	}
	return Rule{ID: id, Pattern: pattern, Regexp: rx, Replacement: replacement}, nil
}

// NewSet builds an ordered Set from compiled rules. Duplicate IDs are an
// error rather than last-wins: a colliding stable ID almost always means the
// same rule was supplied twice, and dropping one would skew per-rule counts.
func NewSet(rs []Rule) (*Set, error) {
	byID := make(map[string]int, len(rs))
	for i, r := range rs {
		if prev, ok := byID[r.ID]; ok {
			return nil, fmt.Errorf("duplicate rule id %q (rules #%d and #%d)", r.ID, prev, i)
		}
		byID[r.ID] = i
	}
	out := make([]Rule, len(rs))
	copy(out, rs)
	return &Set{rules: out, byID: byID}, nil
}

// Merge concatenates sets in order into a new Set, re-checking ID uniqueness
// across the combined sequence.
func Merge(sets ...*Set) (*Set, error) {
	var all []Rule
	for _, s := range sets {
		if s == nil {
			continue
		}
		all = append(all, s.rules...)
	}
	return NewSet(all)
}

// Rules returns the rules in application order. The returned slice is a copy.
func (s *Set) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len reports the number of rules in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// IDs returns the rule identifiers in application order.
func (s *Set) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, len(s.rules))
	for i, r := range s.rules {
		ids[i] = r.ID
	}
	return ids
}
