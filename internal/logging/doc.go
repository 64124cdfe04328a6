// Package logging assembles structured slog loggers for cargotag.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag lines with the pipeline generation, cargo id and
// request correlation id. NewNop serves tests and wiring code that has no
// logger to hand.
package logging
