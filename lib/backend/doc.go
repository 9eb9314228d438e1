// Package backend defines the storage contract the client core builds on.
//
// A Backend stores raw bytes under string keys. The required surface is
// deliberately small (SetRaw, GetRaw, Delete, List, Close) so that almost any
// storage engine can be adapted with a thin wrapper. Optional capabilities
// (HealthChecker, BatchBackend, Snapshotter) are modeled as standalone
// interfaces that a backend may additionally implement; the client core
// discovers them with type assertions and degrades gracefully when they are
// absent.
//
// Implementations in this repository:
//
//   - backend/memory: embedded, sharded in-memory store (all capabilities)
//   - backend/postgres: PostgreSQL-backed store via pgx
package backend
