package core_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/logredact/logredact/pkg/core"
)

func Example() {
	set, err := core.BuildRules("pii", nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	in := strings.NewReader("contact alice@example.com for access\n")
	res, err := core.Redact(in, os.Stdout, set)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Printf("redactions: %d\n", res.Stats.RedactionsTotal)
	// Output:
	// contact [REDACTED_EMAIL] for access
	// redactions: 1
}
