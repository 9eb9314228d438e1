package postgres

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unikv/unikv/lib/backend"
)

// --------------------------------------------------------------------------
// Core Structure and Options
// --------------------------------------------------------------------------

// pgBackend implements backend.Backend on top of a PostgreSQL table.
// Lookups go through a BIGINT key hash (FNV-1a) primary key with the actual
// key stored alongside for collision detection. Values are stored as BYTEA
// since the client core hands the backend opaque encoded bytes.
type pgBackend struct {
	pool      *pgxpool.Pool
	schema    string
	tableName string
}

// Option configures the postgres backend.
type Option func(*pgBackend)

// WithSchema sets the PostgreSQL schema for the table. Default: "public".
func WithSchema(schema string) Option {
	return func(b *pgBackend) {
		b.schema = schema
	}
}

// WithTableName overrides the table name. Default: "unikv_store".
func WithTableName(name string) Option {
	return func(b *pgBackend) {
		b.tableName = name
	}
}

// New creates a PostgreSQL-backed backend using the given connection pool.
// The pool is shared, not owned: Close does not close it.
// Call CreateTable once before first use.
func New(pool *pgxpool.Pool, opts ...Option) backend.Backend {
	b := &pgBackend{
		pool:      pool,
		schema:    "public",
		tableName: "unikv_store",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CreateTable creates the key-value table if it does not exist.
func CreateTable(ctx context.Context, pool *pgxpool.Pool, opts ...Option) error {
	b := &pgBackend{
		pool:      pool,
		schema:    "public",
		tableName: "unikv_store",
	}
	for _, opt := range opts {
		opt(b)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key_hash BIGINT PRIMARY KEY,
			key TEXT NOT NULL,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, b.fullTableName())

	_, err := pool.Exec(ctx, query)
	return err
}

// fullTableName returns the sanitized schema-qualified table identifier.
func (b *pgBackend) fullTableName() string {
	return pgx.Identifier{b.schema, b.tableName}.Sanitize()
}

// hashKey creates a deterministic 64-bit hash from a key using FNV-1a.
func hashKey(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend.Backend)
// --------------------------------------------------------------------------

func (b *pgBackend) SetRaw(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key_hash, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key_hash)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, b.fullTableName())

	_, err := b.pool.Exec(ctx, query, hashKey(key), key, value)
	return err
}

func (b *pgBackend) GetRaw(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`
		SELECT value FROM %s WHERE key_hash = $1 AND key = $2
	`, b.fullTableName())

	var value []byte
	err := b.pool.QueryRow(ctx, query, hashKey(key), key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, backend.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (b *pgBackend) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE key_hash = $1 AND key = $2
	`, b.fullTableName())

	_, err := b.pool.Exec(ctx, query, hashKey(key), key)
	return err
}

func (b *pgBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var (
		query string
		args  []any
	)

	if prefix == "" {
		query = fmt.Sprintf(`SELECT key FROM %s`, b.fullTableName())
	} else {
		query = fmt.Sprintf(`SELECT key FROM %s WHERE key LIKE $1 || '%%'`, b.fullTableName())
		args = append(args, prefix)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close releases backend resources. The pool is shared with the caller and
// stays open.
func (b *pgBackend) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Optional Capability: Health
// --------------------------------------------------------------------------

func (b *pgBackend) Health(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// --------------------------------------------------------------------------
// Optional Capability: Batch Operations
// --------------------------------------------------------------------------

// BatchSetRaw upserts all pairs in a single multi-row statement.
func (b *pgBackend) BatchSetRaw(ctx context.Context, pairs map[string][]byte) error {
	if len(pairs) == 0 {
		return nil
	}

	args := make([]any, 0, len(pairs)*3)
	valueStrings := make([]string, 0, len(pairs))
	paramIdx := 1

	for key, value := range pairs {
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, NOW())",
			paramIdx, paramIdx+1, paramIdx+2))
		args = append(args, hashKey(key), key, value)
		paramIdx += 3
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key_hash, key, value, updated_at)
		VALUES %s
		ON CONFLICT (key_hash)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, b.fullTableName(), strings.Join(valueStrings, ", "))

	_, err := b.pool.Exec(ctx, query, args...)
	return err
}

// BatchGetRaw fetches all existing keys in one round trip.
func (b *pgBackend) BatchGetRaw(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}

	hashes := make([]int64, len(keys))
	for i, key := range keys {
		hashes[i] = hashKey(key)
	}

	query := fmt.Sprintf(`
		SELECT key, value FROM %s WHERE key_hash = ANY($1) AND key = ANY($2)
	`, b.fullTableName())

	rows, err := b.pool.Query(ctx, query, hashes, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]byte, len(keys))
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, rows.Err()
}

// BatchDelete removes all given keys in one round trip.
func (b *pgBackend) BatchDelete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	hashes := make([]int64, len(keys))
	for i, key := range keys {
		hashes[i] = hashKey(key)
	}

	query := fmt.Sprintf(`
		DELETE FROM %s WHERE key_hash = ANY($1) AND key = ANY($2)
	`, b.fullTableName())

	_, err := b.pool.Exec(ctx, query, hashes, keys)
	return err
}
