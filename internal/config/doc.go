// Package config loads, normalizes, and validates cargotag configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CARGOTAG_OUTPUT_DIR
// environment override. Validation errors name the offending key so
// `cargotag config validate` can point at the line to fix.
package config
