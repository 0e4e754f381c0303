// Package sqlite implements the content repository event store on SQLite.
//
// Every event lives in one table keyed by a global sequence. Per-stream
// versions are unique, so two writers racing for the same version cannot both
// succeed; the loser is reported as a concurrency conflict.
package sqlite
