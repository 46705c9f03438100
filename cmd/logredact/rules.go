package logredact

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/logredact/logredact/internal/pipeline"
	"github.com/logredact/logredact/internal/rules"
)

func init() {
	rulesCmd := &cobra.Command{Use: "rules", Short: "Inspect redaction rules"}
	rootCmd.AddCommand(rulesCmd)

	var preset string
	var ruleFiles []string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the effective rule set in application order",
		RunE: func(_ *cobra.Command, _ []string) error {
			set, err := rules.Build(preset, ruleFiles)
			if err != nil {
				return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
			}
			t := tablewriter.NewWriter(os.Stdout)
			t.Header("ID", "PATTERN", "REPLACEMENT")
			for _, r := range set.Rules() {
				_ = t.Append([]string{r.ID, r.Pattern, r.Replacement})
			}
			return t.Render()
		},
	}
	listCmd.Flags().StringVar(&preset, "preset", "", "built-in rule preset: default | secrets | pii")
	listCmd.Flags().StringArrayVar(&ruleFiles, "rules", nil, "rule file (JSON or YAML), repeatable")
	rulesCmd.AddCommand(listCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List built-in preset names",
		Run: func(_ *cobra.Command, _ []string) {
			for _, name := range rules.PresetNames() {
				fmt.Println(name)
			}
		},
	}
	rulesCmd.AddCommand(presetsCmd)
}
