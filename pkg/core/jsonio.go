package core

import (
	"encoding/json"
	"io"
)

// MarshalStats writes the stats object as a single JSON line.
func MarshalStats(w io.Writer, s Stats) error {
	return s.WriteJSON(w)
}

// UnmarshalStats decodes a stats JSON object, useful for ingestion tests.
func UnmarshalStats(r io.Reader) (Stats, error) {
	var s Stats
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Stats{}, err
	}
	if s.RedactionsByRule == nil {
		s.RedactionsByRule = map[string]int{}
	}
	return s, nil
}
