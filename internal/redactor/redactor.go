// Package redactor applies an ordered rule set to single lines of text.
package redactor

import (
	"github.com/logredact/logredact/internal/rules"
)

// Hit records one rule's nonzero match count on a line, in rule order.
type Hit struct {
	RuleID string
	Count  int
}

// LineResult is the outcome of transforming one input line. It is produced
// fresh per line and handed to the sink, stats and report observers; nothing
// retains it beyond that.
type LineResult struct {
	LineNumber int // 1-based
	Original   string
	Redacted   string
	// PerRule has an entry for every rule in the set, including zeroes.
	PerRule map[string]int
	// Hits lists only the rules that matched, in application order.
	Hits []Hit
}

// Redactions sums the per-rule counts for the line.
func (r LineResult) Redactions() int {
	n := 0
	for _, h := range r.Hits {
		n += h.Count
	}
	return n
}

// Apply runs the rule set over one line and returns the transformed line with
// per-rule match counts. Rules apply strictly in set order, each seeing the
// output of the previous rule; there is no re-scan by earlier rules and no
// fixed-point iteration. An empty set is the identity transform.
//
// Counting uses the same non-overlapping match walk as the substitution, so
// the counts equal the number of substitutions performed. Go's regexp engine
// always advances past a zero-length match, so empty-matching patterns
// terminate.
func Apply(set *rules.Set, lineNumber int, line string) LineResult {
	res := LineResult{
		LineNumber: lineNumber,
		Original:   line,
		Redacted:   line,
		PerRule:    make(map[string]int, set.Len()),
	}
	for _, rule := range set.Rules() {
		n := len(rule.Regexp.FindAllStringIndex(res.Redacted, -1))
		res.PerRule[rule.ID] = n
		if n == 0 {
			continue
		}
		res.Redacted = rule.Regexp.ReplaceAllString(res.Redacted, rule.Replacement)
		res.Hits = append(res.Hits, Hit{RuleID: rule.ID, Count: n})
	}
	return res
}
