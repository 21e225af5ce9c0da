// Package logging constructs slog loggers for the daemon and CLI.
//
// Two output formats are supported: a compact console format for
// interactive use and JSON for machine consumption. Loggers write to
// stdout/stderr and, when a log directory is configured, to a shared
// append-only log file. Attr helpers keep call sites terse and consistent.
package logging
