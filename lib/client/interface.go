package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/unikv/unikv/lib/backend"
	"github.com/unikv/unikv/lib/hook"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Client is the unified key-value surface applications program against.
// All operations delegate byte storage to a backend.Backend and value
// serialization to a codec.Codec, so call sites stay identical across
// storage engines.
//
// Batch operations use the backend's native batch capability when it is
// implemented and fall back to sequential per-key calls otherwise; either
// way every successfully processed key emits its own hook event.
type Client interface {
	// Set encodes value and stores it under key.
	Set(ctx context.Context, key string, value any) error
	// SetRaw stores raw bytes under key, bypassing the codec.
	SetRaw(ctx context.Context, key string, value []byte) error
	// Get loads the bytes stored under key and decodes them into dest,
	// which must be a pointer. Returns a NotFound error if key is absent.
	Get(ctx context.Context, key string, dest any) error
	// GetRaw returns the stored bytes without decoding.
	GetRaw(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all keys sharing prefix. An empty prefix matches all
	// keys. Order is not guaranteed.
	List(ctx context.Context, prefix string) ([]string, error)

	// HasKey reports whether key exists. It fails (rather than returning
	// false) on an empty key or a backend error.
	HasKey(ctx context.Context, key string) (bool, error)
	// HasKeys reports whether every key exists. It fails on an empty key
	// slice instead of treating it as trivially true.
	HasKeys(ctx context.Context, keys []string) (bool, error)
	// MatchKeys lists the keys under prefix and evaluates the predicate
	// against them. It fails if the predicate is nil or List fails.
	MatchKeys(ctx context.Context, prefix string, predicate func(keys []string) bool) (bool, error)

	// BatchSet encodes and stores all pairs. Encoding errors reject the
	// whole batch before any I/O; storage errors are reported per key.
	BatchSet(ctx context.Context, pairs map[string]any) error
	// BatchGet returns the stored bytes for every existing key; absent
	// keys are missing from the result, not errors. Use BatchGetAs for
	// decoded values.
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)
	// BatchDelete removes all keys, reporting failures per key.
	BatchDelete(ctx context.Context, keys []string) error

	// Health delegates to the backend's health capability and returns a
	// Capability error if the backend does not implement one.
	Health(ctx context.Context) error

	// Hooks returns the dispatcher receiving this client's events.
	Hooks() *hook.Dispatcher

	// Close releases the backend.
	Close() error
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Kind classifies client errors so callers can branch on the class of
// failure without parsing messages.
type Kind uint64

const (
	KindValidation Kind = iota + 1 // rejected before any I/O
	KindNotFound                   // key absent
	KindCapability                 // backend lacks an optional capability
	KindEncode                     // value could not be serialized
	KindDecode                     // stored bytes could not be deserialized
	KindBackend                    // passthrough storage failure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindNotFound:
		return "NotFound"
	case KindCapability:
		return "Capability"
	case KindEncode:
		return "Encode"
	case KindDecode:
		return "Decode"
	case KindBackend:
		return "Backend"
	default:
		return "Unknown"
	}
}

// Error wraps a failure with the operation and key it occurred on.
type Error struct {
	Kind Kind
	Op   string
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("client: %s %q: %s: %v", e.Op, e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("client: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError creates a classified client error.
func newError(kind Kind, op, key string, err error) *Error {
	return &Error{Kind: kind, Op: op, Key: key, Err: err}
}

// IsNotFound reports whether err is a not-found failure, either the client
// classification or the underlying backend sentinel.
func IsNotFound(err error) bool {
	var ce *Error
	if errors.As(err, &ce) && ce.Kind == KindNotFound {
		return true
	}
	return errors.Is(err, backend.ErrNotFound)
}
