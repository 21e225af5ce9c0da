// Package queue persists enrichment jobs and pipeline logs in SQLite and
// exposes helpers for driving the job lifecycle.
//
// The Store manages database connections, schema initialization, claim
// transitions, crash recovery, and the append-only log collection the UI
// polls. Jobs move pending -> processing -> succeeded/failed; the only
// backward transition is processing -> pending, either on a retryable
// failure or when a restart finds a job that was mid-attempt.
//
// The database is treated as transient storage for in-flight work rather
// than a long-term archive. Schema changes bump the version in schema.go;
// users clear the database to adopt the new schema.
//
// Treat this package as the single source of truth for queue semantics;
// when you add statuses or job fields, update schema.sql and bump
// schemaVersion.
package queue
