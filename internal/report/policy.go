package report

import "github.com/logredact/logredact/internal/stats"

// Policy is the gating contract evaluated against the finalized stats of a
// committed run. A violated policy is not a pipeline failure: the run
// succeeded, and the outcome signals non-zero to the caller.
type Policy struct {
	// FailOnRedaction fails the gate when any redaction occurred.
	FailOnRedaction bool
	// MaxRedactions fails the gate when redactions_total exceeds it.
	// Negative disables the threshold.
	MaxRedactions int
}

// Violated reports whether the snapshot breaks the policy.
func (p Policy) Violated(s stats.Snapshot) bool {
	if p.FailOnRedaction && s.RedactionsTotal > 0 {
		return true
	}
	if p.MaxRedactions >= 0 && s.RedactionsTotal > p.MaxRedactions {
		return true
	}
	return false
}
