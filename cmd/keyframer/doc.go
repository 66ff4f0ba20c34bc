// Package main hosts the keyframer CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into pipeline runs,
// standalone selection over an existing frames directory, boundary probes,
// dependency checks, configuration scaffolding, and result cache
// maintenance. Configuration and logger construction live in the shared
// command context so subcommands only describe their flags and output.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is surfaced here through a command or flag.
package main
