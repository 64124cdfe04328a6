// Package journal records delivered artifacts in a small SQLite database.
//
// The journal belongs to the delivery shell. It stores what was written
// where and the payload that went into it, so a field worker can find an
// artifact again by cargo id. Core packages never import it.
package journal
