// Package cache persists a path -> content-hash map so sweep runs can skip
// files that were already clean last time and have not changed since.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

type DB struct {
	// Path relative to sweep root -> xxhash hex of file content.
	Entries map[string]string `json:"entries"`
}

func defaultPath(root string) string {
	return filepath.Join(root, ".logredact-cache.json")
}

func Load(root string) (DB, error) {
	var db DB
	b, err := os.ReadFile(defaultPath(root))
	if err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if err := json.Unmarshal(b, &db); err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]string{}
	}
	return db, nil
}

func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	b, _ := json.MarshalIndent(db, "", "  ")
	return os.WriteFile(defaultPath(root), b, 0o644)
}
