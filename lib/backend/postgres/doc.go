// Package postgres provides a PostgreSQL backend built on pgx.
//
// Rows are addressed by a BIGINT FNV-1a hash of the key (fast primary key
// lookups independent of key length) with the full key kept in a TEXT column
// for collision detection and prefix listing. Values are opaque BYTEA; the
// client core owns serialization. The backend implements the HealthChecker
// capability (pool ping) and native batch operations (multi-row upsert,
// ANY(...) select and delete).
package postgres
