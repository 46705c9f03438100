package logredact

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/logredact/logredact/internal/rules"
)

// gendocs regenerates the presets section in README.md between the markers
// <!-- BEGIN:PRESETS --> and <!-- END:PRESETS -->.
func init() {
	cmd := &cobra.Command{
		Use:    "gendocs",
		Short:  "Regenerate README presets section",
		Hidden: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := "README.md"
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			start := []byte("<!-- BEGIN:PRESETS -->")
			end := []byte("<!-- END:PRESETS -->")
			i := bytes.Index(b, start)
			j := bytes.Index(b, end)
			if i < 0 || j < 0 || j <= i {
				return fmt.Errorf("markers not found in README.md")
			}

			var out strings.Builder
			out.WriteString("\n")
			for _, name := range rules.PresetNames() {
				set, err := rules.Preset(name)
				if err != nil {
					return err
				}
				out.WriteString(fmt.Sprintf("- `%s` (%d rules)\n", name, set.Len()))
			}

			var nb bytes.Buffer
			nb.Write(b[:i])
			nb.Write(start)
			nb.WriteString(out.String())
			nb.Write(end)
			nb.Write(b[j+len(end):])
			return os.WriteFile(path, nb.Bytes(), 0o644)
		},
	}
	rootCmd.AddCommand(cmd)
}
