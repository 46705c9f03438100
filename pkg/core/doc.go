// Package core provides a small, stable facade over logredact's internal
// pipeline for external integrations. It deliberately re-exports a narrow
// API surface so other tools can depend on a stable import path without
// reaching into internal packages.
//
// Example:
//
//	set, err := core.BuildRules("default", nil)
//	if err != nil { /* handle */ }
//	res, err := core.Redact(os.Stdin, os.Stdout, set)
//	if err != nil { /* handle */ }
//	_ = core.MarshalStats(os.Stderr, res.Stats)
package core
