// Package preflight provides readiness checks for the filesystem paths and
// services cargotag depends on.
//
// These checks run in two contexts:
//   - `cargotag config validate` prints every result.
//   - `cargotag serve` logs failed checks at startup and keeps serving; a
//     failed check degrades the affected feature rather than the server.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
