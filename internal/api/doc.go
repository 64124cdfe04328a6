// Package api defines wire-format types and converters for the HTTP API and
// the CLI's --json output. It translates journal entries, pipeline results and
// errors into transport-friendly DTOs so clients never couple to internal
// types.
//
// # Key Types
//
// Delivery: one journaled artifact delivery.
//
// Artifact: the metadata of a freshly produced artifact (the JPEG bytes travel
// separately).
//
// Status: server runtime information.
//
// Error: the body of every non-2xx response.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds in
// UTC. Error kinds are the stable strings from services.Kind.
package api
