// Package main hosts the cargotag CLI entrypoint and command graph.
//
// The Cobra-based command tree composes tagged artifacts from a record and a
// photo, prints and inspects payloads, watches input files, serves the HTTP
// API, and lists the delivery journal. It centralizes configuration
// resolution and logger setup so subcommands only deal with their own flags.
//
// Keep this package lean: the heavy lifting belongs in internal packages;
// commands translate flags into calls and results into terminal output.
package main
