// Package server exposes the compositor over HTTP.
//
// Endpoints:
//
//	POST /api/payload    record JSON in, serialized payload out
//	POST /api/artifacts  multipart photo + record in, JPEG out
//	GET  /api/status     runtime information
//	GET  /api/history    journaled deliveries, newest first
//
// Every response carries an X-Request-ID header. Failures are JSON bodies of
// the form {"error": "...", "kind": "..."} where kind is services.Kind.
package server
