// Package daemon wraps the worker manager in a single-instance lifecycle.
// A flock-based lock file prevents two daemons from draining the same queue
// database concurrently.
package daemon
