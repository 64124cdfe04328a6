// Package services defines shared utilities consumed by the compositor
// pipeline and its shells (CLI, watcher, HTTP API).
//
// Key responsibilities:
//   - Context helpers that stamp generation numbers, cargo identifiers, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep the failure
//     taxonomy (payload too large, photo unavailable, location unavailable,
//     render failure) intact across package boundaries.
//
// Use these helpers when wiring new components so error reporting and
// observability stay uniform across the pipeline.
package services
