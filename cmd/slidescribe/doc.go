// Package main hosts the slidescribe CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into extraction runs,
// similarity inspections, transcript dumps, run history queries and
// configuration scaffolding. Configuration resolution and logger setup live
// in commandContext so subcommands only deal with their own flags.
//
// Keep this package thin: new behaviour belongs in the internal packages and
// is surfaced here through a command or flag.
package main
