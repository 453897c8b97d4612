// Package cli implements the command-line interface for fixtures-ics.
//
// The Cobra root command loads the configuration, installs the logger and
// wires the configured cache backend, the fixtures fetcher and the pipeline.
// Subcommands write a calendar (calendar), list matches as text or JSON
// (matches), serve calendars over HTTP with optional scheduled warming
// (serve) and refresh the cache once (warm).
package cli
