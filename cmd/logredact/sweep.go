package logredact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/logredact/logredact/internal/config"
	"github.com/logredact/logredact/internal/engine"
	"github.com/logredact/logredact/internal/pipeline"
	"github.com/logredact/logredact/internal/report"
	"github.com/logredact/logredact/internal/rules"
	"github.com/logredact/logredact/internal/stream"
)

var (
	flagSweepInclude        string
	flagSweepExclude        string
	flagSweepMaxBytes       int64
	flagSweepBackupSuffix   string
	flagSweepDryRun         bool
	flagSweepNoCache        bool
	flagSweepRuleFiles      []string
	flagSweepPreset         string
	flagSweepEncoding       string
	flagSweepEncodingErrors string
	flagSweepReport         string
	flagSweepStats          string
	flagSweepFailOn         bool
	flagSweepMaxRedactions  int
)

func init() {
	cmd := &cobra.Command{
		Use:   "sweep [path]",
		Short: "Redact every matching file under a directory, in place",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagSweepInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagSweepExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagSweepMaxBytes, "max-bytes", 0, "skip files larger than this (0 = no limit)")
	cmd.Flags().StringVar(&flagSweepBackupSuffix, "backup-suffix", "", "keep each original at path+suffix (e.g. .bak)")
	cmd.Flags().BoolVar(&flagSweepDryRun, "dry-run", false, "compute stats without modifying any file")
	cmd.Flags().BoolVar(&flagSweepNoCache, "no-cache", false, "disable the clean-file cache")
	cmd.Flags().StringArrayVar(&flagSweepRuleFiles, "rules", nil, "rule file (JSON or YAML), repeatable")
	cmd.Flags().StringVar(&flagSweepPreset, "preset", "", "built-in rule preset: default | secrets | pii")
	cmd.Flags().StringVar(&flagSweepEncoding, "encoding", "", "input character encoding (IANA name, default utf-8)")
	cmd.Flags().StringVar(&flagSweepEncodingErrors, "encoding-errors", "", "undecodable byte policy: replace | strict")
	cmd.Flags().StringVar(&flagSweepReport, "report", "", "write JSONL audit records (with file paths) to this path")
	cmd.Flags().StringVar(&flagSweepStats, "stats", "", "write the stats JSON object to this path ('-' = stdout)")
	cmd.Flags().BoolVar(&flagSweepFailOn, "fail-on-redaction", false, "exit 1 if any redaction occurred")
	cmd.Flags().IntVar(&flagSweepMaxRedactions, "max-redactions", -1, "exit 1 if total redactions exceed N (-1 = off)")
}

func runSweep(_ *cobra.Command, args []string) error {
	log := newLogger()
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	abs, _ := filepath.Abs(root)

	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(abs); err == nil {
		lcfg = c
	}

	decPolicy, err := stream.ParsePolicy(pickString(flagSweepEncodingErrors, lcfg.EncodingErrors, gcfg.EncodingErrors))
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}
	set, err := rules.Build(
		pickString(flagSweepPreset, lcfg.Preset, gcfg.Preset),
		pickStrings(flagSweepRuleFiles, lcfg.Rules, gcfg.Rules),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}

	var emitter *report.Emitter
	if reportPath := pickString(flagSweepReport, lcfg.Report, gcfg.Report); reportPath != "" {
		rf, err := os.Create(reportPath)
		if err != nil {
			return fmt.Errorf("%w: open report: %v", pipeline.ErrIO, err)
		}
		defer rf.Close()
		emitter = report.NewEmitter(rf)
	}

	res, err := engine.Sweep(engine.Config{
		Root:         abs,
		IncludeGlobs: pickString(flagSweepInclude, lcfg.Include, gcfg.Include),
		ExcludeGlobs: pickString(flagSweepExclude, lcfg.Exclude, gcfg.Exclude),
		MaxBytes:     pickInt64(flagSweepMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		BackupSuffix: pickString(flagSweepBackupSuffix, lcfg.BackupSuffix, gcfg.BackupSuffix),
		DryRun:       flagSweepDryRun,
		NoCache:      flagSweepNoCache,
		Encoding:     pickString(flagSweepEncoding, lcfg.Encoding, gcfg.Encoding),
		DecodePolicy: decPolicy,
		Rules:        set,
		Report:       emitter,
		Log:          log,
	})
	if err != nil {
		return err
	}

	statsPath := pickString(flagSweepStats, lcfg.Stats, gcfg.Stats)
	switch {
	case flagJSON || statsPath == stream.StdioPath:
		if err := res.Stats.WriteJSON(os.Stdout); err != nil {
			return fmt.Errorf("%w: write stats: %v", pipeline.ErrIO, err)
		}
	case statsPath != "":
		f, err := os.Create(statsPath)
		if err != nil {
			return fmt.Errorf("%w: open stats: %v", pipeline.ErrIO, err)
		}
		werr := res.Stats.WriteJSON(f)
		_ = f.Close()
		if werr != nil {
			return fmt.Errorf("%w: write stats: %v", pipeline.ErrIO, werr)
		}
	default:
		report.PrintSummary(os.Stderr, res.Stats, report.SummaryOptions{
			NoColor:      !useColor(),
			Duration:     res.Duration,
			FilesScanned: res.FilesScanned,
			FilesChanged: res.FilesChanged,
		})
	}

	policy := report.Policy{
		FailOnRedaction: pickBool(flagSweepFailOn, lcfg.FailOnRedaction, gcfg.FailOnRedaction),
		MaxRedactions:   pickInt(flagSweepMaxRedactions, -1, lcfg.MaxRedactions, gcfg.MaxRedactions),
	}
	if policy.Violated(res.Stats) {
		log.Warnf("gating policy violated: %d redactions across %d files", res.Stats.RedactionsTotal, res.FilesScanned)
		os.Exit(1)
	}
	return nil
}
