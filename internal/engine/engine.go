// Package engine implements sweep mode: walk a directory tree, select text
// files by glob/size/ignore rules, and run the redaction pipeline in-place on
// each. One sweep is one logical run: stats accumulate across all files into
// a single snapshot, and every file's commit follows the same atomic
// temp-and-rename discipline as a single-stream run.
package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/logredact/logredact/internal/cache"
	"github.com/logredact/logredact/internal/ignore"
	"github.com/logredact/logredact/internal/logger"
	"github.com/logredact/logredact/internal/pipeline"
	"github.com/logredact/logredact/internal/report"
	"github.com/logredact/logredact/internal/rules"
	"github.com/logredact/logredact/internal/stats"
	"github.com/logredact/logredact/internal/stream"
)

// Config controls one sweep.
type Config struct {
	Root         string
	IncludeGlobs string // comma-separated doublestar globs
	ExcludeGlobs string
	MaxBytes     int64 // skip files larger than this (0 = no limit)
	BackupSuffix string
	DryRun       bool
	NoCache      bool
	Encoding     string
	DecodePolicy stream.DecodePolicy
	Rules        *rules.Set
	Report       *report.Emitter // optional, shared across files
	Log          *logger.Logger  // optional
	Progress     func()
}

// Result aggregates the sweep outcome.
type Result struct {
	FilesScanned int
	FilesChanged int
	Stats        stats.Snapshot
	Duration     time.Duration
}

// Sweep walks cfg.Root and redacts each eligible file in place. Any pipeline
// error aborts the sweep; files already committed stay committed (each file's
// commit is independent), files not yet reached are untouched.
func Sweep(cfg Config) (Result, error) {
	var result Result
	if cfg.Rules == nil {
		return result, fmt.Errorf("%w: nil rule set", pipeline.ErrConfig)
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	ign, _ := ignore.Load(filepath.Join(cfg.Root, ".logredactignore"))

	var db cache.DB
	if !cfg.NoCache {
		db, _ = cache.Load(cfg.Root)
	} else {
		db.Entries = map[string]string{}
	}
	updated := map[string]string{}

	acc := stats.NewAccumulator()
	started := time.Now()

	err := filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(cfg.Root, p)
		if !eligible(rel, cfg, ign) {
			return nil
		}
		info, _ := d.Info()
		if cfg.MaxBytes > 0 && info != nil && info.Size() > cfg.MaxBytes {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		if looksBinary(b) && !stream.IsGzipPath(rel) {
			return nil
		}
		h := fastHash(b)
		if !cfg.NoCache && db.Entries[rel] == h {
			log.Debugf("cache hit, skipping %s", rel)
			return nil
		}

		res, err := sweepOne(cfg, p, rel, acc)
		if err != nil {
			return err
		}
		result.FilesScanned++
		if res.Changed {
			result.FilesChanged++
			log.Debugf("redacted %s", rel)
		}
		if cfg.Progress != nil {
			cfg.Progress()
		}
		if cfg.NoCache || cfg.DryRun {
			return nil
		}
		// Cache the on-disk content hash: unchanged files keep the hash we
		// already computed, changed files are re-read after commit.
		if !res.Changed {
			updated[rel] = h
		} else if nb, err := os.ReadFile(p); err == nil {
			updated[rel] = fastHash(nb)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	if !cfg.NoCache && len(updated) > 0 {
		if db.Entries == nil {
			db.Entries = map[string]string{}
		}
		for k, v := range updated {
			db.Entries[k] = v
		}
		_ = cache.Save(cfg.Root, db)
	}

	result.Stats = acc.Snapshot()
	result.Duration = time.Since(started)
	return result, nil
}

func sweepOne(cfg Config, path, rel string, acc *stats.Accumulator) (pipeline.Result, error) {
	src, err := stream.Open(path, cfg.Encoding, cfg.DecodePolicy)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("%w: open %s: %v", pipeline.ErrIO, rel, err)
	}
	defer src.Close()

	var sink stream.Sink
	if cfg.DryRun {
		sink = stream.Null()
	} else {
		sink, err = stream.OpenAtomic(path, cfg.BackupSuffix)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("%w: %s: %v", pipeline.ErrIO, rel, err)
		}
	}
	if cfg.Report != nil {
		cfg.Report.SetFile(rel)
	}

	res, err := pipeline.Run(pipeline.Options{
		Rules:  cfg.Rules,
		Source: src,
		Sink:   sink,
		Report: cfg.Report,
		Stats:  acc,
		Log:    cfg.Log,
	})
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("%s: %w", rel, err)
	}
	return res, nil
}

func eligible(rel string, cfg Config, ign ignore.Matcher) bool {
	base := filepath.Base(rel)
	if base == ".logredact-cache.json" || base == ".logredactignore" {
		return false
	}
	if cfg.BackupSuffix != "" && strings.HasSuffix(rel, cfg.BackupSuffix) {
		return false
	}
	if !allowedByGlobs(rel, cfg.IncludeGlobs, cfg.ExcludeGlobs) {
		return false
	}
	if ign.Match(rel) {
		return false
	}
	return true
}

func isDefaultDirExcluded(name string) bool {
	switch name {
	case ".git", "node_modules", "vendor", "dist", ".idea", ".vscode":
		return true
	}
	return false
}

func looksBinary(b []byte) bool {
	const sniff = 800
	n := sniff
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

func fastHash(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}
