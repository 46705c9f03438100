package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileRule is the on-disk shape of one rule record. The id is optional; a
// stable one is derived when absent.
type fileRule struct {
	ID          string `json:"id" yaml:"id"`
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
}

type fileDoc struct {
	Rules []fileRule `json:"rules" yaml:"rules"`
}

// LoadFile reads an ordered rule list from a JSON or YAML file, chosen by
// extension (.json vs .yml/.yaml). Two layouts are accepted: a bare list of
// records, or an object with a top-level "rules" list.
func LoadFile(path string) (*Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	var recs []fileRule
	switch ext {
	case ".yml", ".yaml":
		recs, err = parseYAMLRules(b)
	default:
		recs, err = parseJSONRules(b)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rs := make([]Rule, 0, len(recs))
	for i, rec := range recs {
		if rec.Pattern == "" {
			return nil, fmt.Errorf("%s: rule #%d is missing a pattern", path, i)
		}
		r, err := Compile(rec.ID, rec.Pattern, rec.Replacement)
		if err != nil {
			return nil, fmt.Errorf("%s: rule #%d: %w", path, i, err)
		}
		rs = append(rs, r)
	}
	return NewSet(rs)
}

func parseJSONRules(b []byte) ([]fileRule, error) {
	var list []fileRule
	if err := json.Unmarshal(b, &list); err == nil {
		return list, nil
	}
	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("rules JSON must be a list or an object with a 'rules' list: %w", err)
	}
	if doc.Rules == nil {
		return nil, fmt.Errorf("rules JSON must be a list or an object with a 'rules' list")
	}
	return doc.Rules, nil
}

func parseYAMLRules(b []byte) ([]fileRule, error) {
	var list []fileRule
	if err := yaml.Unmarshal(b, &list); err == nil {
		return list, nil
	}
	var doc fileDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("rules YAML must be a list or a mapping with a 'rules' list: %w", err)
	}
	if doc.Rules == nil {
		return nil, fmt.Errorf("rules YAML must be a list or a mapping with a 'rules' list")
	}
	return doc.Rules, nil
}

// Build resolves the effective rule set for a run: the named preset (or the
// default set when name is empty and no files are given) followed by each
// rule file in order. The result is immutable for the rest of the run.
func Build(preset string, files []string) (*Set, error) {
	var parts []*Set
	switch {
	case preset != "":
		p, err := Preset(preset)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	case len(files) == 0:
		parts = append(parts, Default())
	}
	for _, f := range files {
		s, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return Merge(parts...)
}
