// Package notifications pushes delivery and failure notices via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when notifications are disabled. Callers
// depend only on the Service interface; sink.Notified wraps any sink so every
// delivery produces a notice.
package notifications
