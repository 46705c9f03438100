package logredact

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/logredact/logredact/internal/config"
	"github.com/logredact/logredact/internal/pipeline"
	"github.com/logredact/logredact/internal/report"
	"github.com/logredact/logredact/internal/rules"
	"github.com/logredact/logredact/internal/stream"
)

var (
	flagInput           string
	flagOut             string
	flagInPlace         bool
	flagBackupSuffix    string
	flagAtomic          bool
	flagDryRun          bool
	flagRuleFiles       []string
	flagPreset          string
	flagEncoding        string
	flagEncodingErrors  string
	flagReport          string
	flagStats           string
	flagFailOnRedaction bool
	flagMaxRedactions   int
)

func init() {
	cmd := &cobra.Command{
		Use:   "redact",
		Short: "Redact one log stream",
		Long:  "Reads a log file (or stdin), applies the effective rule set line by line, and writes the redacted stream to the output (or back in place).",
		RunE:  runRedact,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagInput, "input", "i", "-", "input log file ('-' = stdin, '.gz' = gzip)")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "-", "output file ('-' = stdout, '.gz' = gzip)")
	cmd.Flags().BoolVar(&flagInPlace, "in-place", false, "overwrite the input file atomically")
	cmd.Flags().StringVar(&flagBackupSuffix, "backup-suffix", "", "with --in-place, keep the original at input+suffix (e.g. .bak)")
	cmd.Flags().BoolVar(&flagAtomic, "atomic", false, "stage output in a temp file and rename on success")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "compute stats and report without writing any output")
	cmd.Flags().StringArrayVar(&flagRuleFiles, "rules", nil, "rule file (JSON or YAML), repeatable, applied after the preset")
	cmd.Flags().StringVar(&flagPreset, "preset", "", "built-in rule preset: default | secrets | pii")
	cmd.Flags().StringVar(&flagEncoding, "encoding", "", "input character encoding (IANA name, default utf-8)")
	cmd.Flags().StringVar(&flagEncodingErrors, "encoding-errors", "", "undecodable byte policy: replace | strict")
	cmd.Flags().StringVar(&flagReport, "report", "", "write JSONL audit records to this path")
	cmd.Flags().StringVar(&flagStats, "stats", "", "write the stats JSON object to this path ('-' = stdout)")
	cmd.Flags().BoolVar(&flagFailOnRedaction, "fail-on-redaction", false, "exit 1 if any redaction occurred")
	cmd.Flags().IntVar(&flagMaxRedactions, "max-redactions", -1, "exit 1 if total redactions exceed N (-1 = off)")
}

func runRedact(_ *cobra.Command, _ []string) error {
	log := newLogger()

	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if cwd, err := os.Getwd(); err == nil {
		if c, err := config.LoadLocal(cwd); err == nil {
			lcfg = c
		}
	}

	preset := pickString(flagPreset, lcfg.Preset, gcfg.Preset)
	ruleFiles := pickStrings(flagRuleFiles, lcfg.Rules, gcfg.Rules)
	encName := pickString(flagEncoding, lcfg.Encoding, gcfg.Encoding)
	encErrors := pickString(flagEncodingErrors, lcfg.EncodingErrors, gcfg.EncodingErrors)
	backup := pickString(flagBackupSuffix, lcfg.BackupSuffix, gcfg.BackupSuffix)
	reportPath := pickString(flagReport, lcfg.Report, gcfg.Report)
	statsPath := pickString(flagStats, lcfg.Stats, gcfg.Stats)
	policy := report.Policy{
		FailOnRedaction: pickBool(flagFailOnRedaction, lcfg.FailOnRedaction, gcfg.FailOnRedaction),
		MaxRedactions:   pickInt(flagMaxRedactions, -1, lcfg.MaxRedactions, gcfg.MaxRedactions),
	}

	decPolicy, err := stream.ParsePolicy(encErrors)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}
	set, err := rules.Build(preset, ruleFiles)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
	}
	log.Debugf("effective rule set: %d rules", set.Len())

	if flagInPlace && flagInput == stream.StdioPath {
		return fmt.Errorf("%w: --in-place requires a real input file", pipeline.ErrConfig)
	}
	if flagInPlace && flagAtomic {
		return fmt.Errorf("%w: --in-place already implies atomic commit", pipeline.ErrConfig)
	}

	src, err := stream.Open(flagInput, encName, decPolicy)
	if err != nil {
		return fmt.Errorf("%w: open input: %v", pipeline.ErrIO, err)
	}
	defer src.Close()

	var sink stream.Sink
	switch {
	case flagDryRun:
		sink = stream.Null()
	case flagInPlace:
		sink, err = stream.OpenAtomic(flagInput, backup)
	case flagAtomic:
		sink, err = stream.OpenAtomic(flagOut, "")
	default:
		sink, err = stream.OpenDirect(flagOut)
	}
	if err != nil {
		return fmt.Errorf("%w: open output: %v", pipeline.ErrIO, err)
	}

	var emitter *report.Emitter
	if reportPath != "" {
		rf, err := os.Create(reportPath)
		if err != nil {
			sink.Abort()
			return fmt.Errorf("%w: open report: %v", pipeline.ErrIO, err)
		}
		defer rf.Close()
		emitter = report.NewEmitter(rf)
	}

	res, err := pipeline.Run(pipeline.Options{
		Rules:  set,
		Source: src,
		Sink:   sink,
		Report: emitter,
		Log:    log,
	})
	if err != nil {
		return err
	}

	if err := emitStats(res, statsPath); err != nil {
		return err
	}
	if !flagJSON && statsPath == "" {
		report.PrintSummary(os.Stderr, res.Stats, report.SummaryOptions{
			NoColor:  !useColor(),
			Duration: res.Duration,
		})
	}

	if policy.Violated(res.Stats) {
		log.Warnf("gating policy violated: %d redactions", res.Stats.RedactionsTotal)
		os.Exit(1)
	}
	return nil
}

// emitStats writes the stats object to the configured destination. With
// --json and no explicit path, stats go to stdout unless the redacted stream
// already occupies it, in which case they fall back to stderr.
func emitStats(res pipeline.Result, statsPath string) error {
	var w *os.File
	switch {
	case statsPath == "" && !flagJSON:
		return nil
	case statsPath == "" || statsPath == stream.StdioPath:
		w = os.Stdout
		if !flagDryRun && flagOut == stream.StdioPath && !flagInPlace {
			w = os.Stderr
		}
	default:
		f, err := os.Create(statsPath)
		if err != nil {
			return fmt.Errorf("%w: open stats: %v", pipeline.ErrIO, err)
		}
		defer f.Close()
		w = f
	}
	if err := res.Stats.WriteJSON(w); err != nil {
		return fmt.Errorf("%w: write stats: %v", pipeline.ErrIO, err)
	}
	return nil
}
