package logredact

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/logredact/logredact/internal/logger"
	"github.com/logredact/logredact/internal/update"
)

var (
	flagJSON          bool
	flagNoColor       bool
	flagVerbose       bool
	flagLogFormat     string
	flagNoUpdateCheck bool
	flagSelfUpdate    bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the logredact CLI.
var rootCmd = &cobra.Command{
	Use:              "logredact",
	Short:            "Redact secrets and PII from log files",
	Long:             "logredact streams log files through an ordered set of redaction rules, writes the scrubbed output atomically, and reports what it removed.",
	SilenceUsage:     true,
	SilenceErrors:    true,
	PersistentPreRun: checkUpdates,
}

// checkUpdates prints the new-release banner and handles --self-update for
// every subcommand. Suppressed for JSON output and hidden commands.
func checkUpdates(cmd *cobra.Command, _ []string) {
	if flagJSON || cmd.Hidden {
		return
	}
	if !flagNoUpdateCheck {
		if latest, newer, _ := update.Check(version, false); newer && latest != "" {
			fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'logredact --self-update' to upgrade\n", latest)
		}
	}
	if flagSelfUpdate {
		if err := selfUpdate(); err == nil {
			fmt.Fprintln(os.Stderr, "updated to latest; re-run command")
			os.Exit(0)
		}
	}
}

// Execute runs the logredact CLI. It should be called by the main package.
// Pipeline and configuration errors exit 2; a violated gating policy exits 1
// from the subcommand after a successful commit.
func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit stats as JSON instead of the summary table")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "console", "diagnostic log format: console | json")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	rootCmd.PersistentFlags().BoolVar(&flagSelfUpdate, "self-update", false, "update logredact to the latest release")
}

func newLogger() *logger.Logger {
	level := "info"
	if flagVerbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: flagLogFormat})
	if err != nil {
		return logger.Nop()
	}
	return log
}

func useColor() bool {
	if flagNoColor {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
