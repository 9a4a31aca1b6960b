// Package groupstore provides Group Store implementations: a SQL store with
// MySQL and SQLite dialects, and an in-memory store for tests and
// single-process development.
package groupstore
