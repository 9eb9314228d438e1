package memory

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"runtime"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/unikv/unikv/lib/backend"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magicNum        = "UNIKVDB\x00" // Snapshot file format identifier
	snapshotVersion = 1             // Snapshot format version
)

// --------------------------------------------------------------------------
// Core Structure
// --------------------------------------------------------------------------

// memoryBackend implements backend.Backend with sharded concurrent maps.
// Keys are distributed over shards via FNV-1a hashing to reduce contention
// between concurrent writers.
type memoryBackend struct {
	numShards int
	shards    []*xsync.MapOf[string, []byte]
}

// Options configures the memory backend during initialization.
type Options struct {
	NumShards int // Number of shards (0 = number of CPUs)
}

// DefaultOptions returns the default memory backend options.
func DefaultOptions() *Options {
	return &Options{
		NumShards: runtime.NumCPU(),
	}
}

// New creates a new embedded in-memory backend.
//
// Thread-safety: the returned backend is safe for concurrent use.
func New(opts *Options) backend.Backend {
	if opts == nil {
		opts = DefaultOptions()
	}
	numShards := opts.NumShards
	if numShards < 1 {
		numShards = 1
	}

	shards := make([]*xsync.MapOf[string, []byte], numShards)
	for i := range shards {
		shards[i] = xsync.NewMapOf[string, []byte]()
	}

	return &memoryBackend{
		numShards: numShards,
		shards:    shards,
	}
}

// shardFor returns the shard responsible for a key.
//
// Thread-safety: this method is thread-safe and can be called concurrently.
func (m *memoryBackend) shardFor(key string) *xsync.MapOf[string, []byte] {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	// Shift right to use higher-quality bits for distribution
	return m.shards[(h.Sum64()>>7)%uint64(m.numShards)]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend.Backend)
// --------------------------------------------------------------------------

func (m *memoryBackend) SetRaw(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Copy value to decouple the stored bytes from the caller's slice
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	m.shardFor(key).Store(key, valueCopy)
	return nil
}

func (m *memoryBackend) GetRaw(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, ok := m.shardFor(key).Load(key)
	if !ok {
		return nil, backend.ErrNotFound
	}

	// Return a copy so callers can't mutate stored data
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}

func (m *memoryBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.shardFor(key).Delete(key)
	return nil
}

func (m *memoryBackend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys := make([]string, 0)
	for _, shard := range m.shards {
		shard.Range(func(key string, _ []byte) bool {
			if prefix == "" || strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
			return true
		})
	}
	return keys, nil
}

func (m *memoryBackend) Close() error {
	for _, shard := range m.shards {
		shard.Clear()
	}
	return nil
}

// --------------------------------------------------------------------------
// Optional Capability: Health
// --------------------------------------------------------------------------

// Health always succeeds for the embedded backend.
func (m *memoryBackend) Health(ctx context.Context) error {
	return ctx.Err()
}

// --------------------------------------------------------------------------
// Optional Capability: Batch Operations
// --------------------------------------------------------------------------

func (m *memoryBackend) BatchSetRaw(ctx context.Context, pairs map[string][]byte) error {
	for key, value := range pairs {
		if err := m.SetRaw(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryBackend) BatchGetRaw(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		value, err := m.GetRaw(ctx, key)
		if err != nil {
			if errors.Is(err, backend.ErrNotFound) {
				continue
			}
			return nil, err
		}
		result[key] = value
	}
	return result, nil
}

func (m *memoryBackend) BatchDelete(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := m.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Optional Capability: Snapshot Persistence
// --------------------------------------------------------------------------

// Save persists all entries to the writer in a length-prefixed binary format.
//
// Thread-safety: Save takes per-shard snapshots without blocking concurrent
// modifications; entries written concurrently with Save may or may not be
// included.
func (m *memoryBackend) Save(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	type entry struct {
		key   string
		value []byte
	}

	var entries []entry
	for _, shard := range m.shards {
		shard.Range(func(key string, value []byte) bool {
			valueCopy := make([]byte, len(value))
			copy(valueCopy, value)
			entries = append(entries, entry{key, valueCopy})
			return true
		})
	}

	// Write file header
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(snapshotVersion)); err != nil {
		return err
	}

	// Write entry count
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}

	// Write entries
	for _, e := range entries {
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(e.key))); err != nil {
			return err
		}
		if _, err := bw.WriteString(e.key); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(e.value))); err != nil {
			return err
		}
		if _, err := bw.Write(e.value); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Load replaces the backend state with the snapshot read from the reader.
//
// Thread-safety: Load is not safe to run concurrently with other operations.
func (m *memoryBackend) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	// Read and verify magic number
	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid snapshot format: magic number mismatch")
	}

	// Read and verify version
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if int(version) != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %d (expected %d)", version, snapshotVersion)
	}

	// Recreate empty shards
	shards := make([]*xsync.MapOf[string, []byte], m.numShards)
	for i := range shards {
		shards[i] = xsync.NewMapOf[string, []byte]()
	}
	m.shards = shards

	// Read entry count
	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return err
	}

	// Read entries
	for i := uint64(0); i < count; i++ {
		var keyLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return err
		}
		keyBytes := make([]byte, keyLen)
		if _, err := io.ReadFull(br, keyBytes); err != nil {
			return err
		}

		var valueLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valueLen); err != nil {
			return err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(br, value); err != nil {
			return err
		}

		key := string(keyBytes)
		m.shardFor(key).Store(key, value)
	}

	return nil
}
