// Package cargo defines the canonical cargo record carried through the
// compositor pipeline.
//
// A Record is the snapshot a form shell hands to the core: text-valued
// dimensions and weight, unit systems stored as enums rather than per-field
// units, and an optional location fix. The fix is a single pointer to a
// complete Fix value, so a record either has latitude, longitude, and
// timestamp together or has no location at all.
//
// Record files (JSON, YAML, TOML) stand in for the interactive form; see
// LoadFile.
package cargo
