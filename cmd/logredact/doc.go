// Package logredact provides the command-line interface for the logredact
// tool. It configures subcommands (redact, sweep, rules, etc.), parses
// flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/logredact/logredact/cmd/logredact"
//	func main() { logredact.Execute() }
package logredact
