package rules

import (
	"fmt"
	"sort"
)

type patternPair struct {
	pattern     string
	replacement string
}

// Built-in pattern groups. Replacements use ${n} for captured groups.
//
// The token-parameter rule excludes values starting with '[' instead of the
// original negative lookahead (RE2 has no lookahead); this keeps already
// redacted values from being re-counted on a second pass.
var (
	secretPatterns = []patternPair{
		{`AKIA[0-9A-Z]{16}`, "[REDACTED_AWS_KEY]"},
		{`ghp_[A-Za-z0-9]{36}`, "[REDACTED_GITHUB_TOKEN]"},
		{`github_pat_[A-Za-z0-9_]{22,255}`, "[REDACTED_GITHUB_TOKEN]"},
		{`xox[aboprs]-[0-9A-Za-z-]{10,200}`, "[REDACTED_SLACK_TOKEN]"},
		{`sk_(?:live|test)_[0-9A-Za-z]{16,}`, "[REDACTED_STRIPE_KEY]"},
		{`AIza[0-9A-Za-z_-]{35}`, "[REDACTED_GOOGLE_API_KEY]"},
		{`eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`, "[REDACTED_JWT]"},
		{`(https?://)([^\s:/?#]+):([^\s@]+)@`, "${1}[REDACTED_USER]:[REDACTED_PASS]@"},
		{`-----BEGIN (?:[A-Z0-9 ]+ )?PRIVATE KEY-----`, "[REDACTED_PRIVATE_KEY]"},
	}

	headerPatterns = []patternPair{
		{`(?i)^(cookie:\s*)[^\r\n]+`, "${1}[REDACTED]"},
		{`(?i)^(set-cookie:\s*)[^\r\n]+`, "${1}[REDACTED]"},
		{`(?i)authorization: basic [a-z0-9+/=]+`, "authorization: basic [REDACTED]"},
		{`(?i)authorization: bearer [a-z0-9\-_.=]+`, "authorization: bearer [REDACTED]"},
		{`(?i)x-api-key:\s*[^\s]+`, "x-api-key: [REDACTED]"},
	}

	paramPatterns = []patternPair{
		{`(?i)\b(access_token|refresh_token|id_token|session(?:id)?|session_id|csrf(?:_token)?|auth_token|session_token|token)=([^\s&;[][^\s&;]*)`, "${1}=[REDACTED]"},
		{`(?i)api[_-]?key=([a-z0-9\-_.]+)`, "api_key=[REDACTED]"},
		{`(?i)password=([^\s&]+)`, "password=[REDACTED]"},
	}

	piiPatterns = []patternPair{
		{`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`, "[REDACTED_EMAIL]"},
		{`\b\d{3}-\d{2}-\d{4}\b`, "[REDACTED_SSN]"},
	}
)

func concat(groups ...[]patternPair) []patternPair {
	var out []patternPair
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var presets = map[string][]patternPair{
	"default": concat(secretPatterns, headerPatterns, paramPatterns, piiPatterns),
	"secrets": concat(secretPatterns, headerPatterns, paramPatterns),
	"pii":     piiPatterns,
}

// PresetNames lists the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset compiles the named built-in rule group.
func Preset(name string) (*Set, error) {
	pairs, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}
	return compilePairs(pairs)
}

// Default returns the full built-in rule set.
func Default() *Set {
	s, err := Preset("default")
	if err != nil {
		panic(err) // built-in patterns are tested; unreachable
	}
	return s
}

func compilePairs(pairs []patternPair) (*Set, error) {
	rs := make([]Rule, 0, len(pairs))
	for _, p := range pairs {
		r, err := Compile("", p.pattern, p.replacement)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return NewSet(rs)
}
