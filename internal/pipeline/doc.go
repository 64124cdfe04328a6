// Package pipeline chains serialization, code rendering, composition and
// encoding into one artifact, and keeps a Session of editable inputs whose
// newest generation is the only one ever published.
//
// Each run owns its snapshot of the inputs and its own canvas. A run is
// cancelled as soon as newer input arrives, and a run that finishes late is
// discarded even if it succeeded.
package pipeline
