// Package queue holds upload task records and the registry that tracks
// them for the lifetime of the process.
//
// The Store keeps tasks in an in-memory SQLite database behind a
// single-connection pool, so every mutation is serialized. It is owned
// exclusively by the uploader dispatcher; external callers only see
// snapshots. Payload data and cancellation handles never enter the store —
// only lifecycle metadata does.
package queue
