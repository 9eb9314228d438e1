package backend

import (
	"context"
	"errors"
	"io"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Backend is the minimal raw byte-level contract every storage adapter must
// implement. Implementations are responsible for their own thread-safety;
// the client core never serializes access to a backend.
type Backend interface {
	// SetRaw inserts or updates a key with the given raw bytes.
	SetRaw(ctx context.Context, key string, value []byte) error
	// GetRaw returns the raw bytes stored for a key.
	// It returns ErrNotFound if the key does not exist.
	GetRaw(ctx context.Context, key string) ([]byte, error)
	// Delete removes a key. Deleting a non-existing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all keys sharing the given prefix.
	// An empty prefix matches all keys. The order of the result is undefined.
	List(ctx context.Context, prefix string) ([]string, error)
	// Close releases all resources held by the backend.
	Close() error
}

// --------------------------------------------------------------------------
// Optional Capability Interfaces
// --------------------------------------------------------------------------

// HealthChecker is an optional capability for backends that can report
// their own availability (e.g. by pinging a remote server).
type HealthChecker interface {
	Health(ctx context.Context) error
}

// BatchBackend is an optional capability for backends with native batch
// support. Backends lacking this interface are driven key-by-key by the
// client core instead.
type BatchBackend interface {
	// BatchSetRaw stores all given pairs.
	BatchSetRaw(ctx context.Context, pairs map[string][]byte) error
	// BatchGetRaw returns the stored bytes for every key that exists.
	// Missing keys are simply absent from the result, not an error.
	BatchGetRaw(ctx context.Context, keys []string) (map[string][]byte, error)
	// BatchDelete removes all given keys.
	BatchDelete(ctx context.Context, keys []string) error
}

// Snapshotter is an optional capability for embedded backends that can
// persist their full state to a writer and restore it from a reader.
type Snapshotter interface {
	Save(w io.Writer) error
	Load(r io.Reader) error
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// ErrNotFound is returned by GetRaw when a key does not exist.
// Callers should test for it with errors.Is rather than comparing messages.
var ErrNotFound = errors.New("backend: key not found")
