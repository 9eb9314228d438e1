package memory

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/unikv/unikv/lib/backend"
	backendtesting "github.com/unikv/unikv/lib/backend/testing"
)

func TestMemoryBackendConformance(t *testing.T) {
	backendtesting.RunBackendTests(t, "Memory", func() backend.Backend {
		return New(nil)
	})
}

func TestMemoryBackendSingleShard(t *testing.T) {
	backendtesting.RunBackendTests(t, "Memory(1 shard)", func() backend.Backend {
		return New(&Options{NumShards: 1})
	})
}

func TestSnapshotRejectsBadInput(t *testing.T) {
	b := New(nil).(backend.Snapshotter)

	// wrong magic number
	err := b.Load(strings.NewReader("NOTUNIKV rest of the data"))
	if err == nil || !strings.Contains(err.Error(), "magic number") {
		t.Errorf("Expected magic number error, got %v", err)
	}

	// truncated header
	if err := b.Load(strings.NewReader("UNI")); err == nil {
		t.Errorf("Expected error for truncated snapshot")
	}
}

func TestSnapshotReplacesState(t *testing.T) {
	ctx := context.Background()

	source := New(nil)
	source.SetRaw(ctx, "kept", []byte("v1"))

	var buf bytes.Buffer
	if err := source.(backend.Snapshotter).Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	target := New(nil)
	target.SetRaw(ctx, "stale", []byte("old"))

	if err := target.(backend.Snapshotter).Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// loaded entries are present, pre-existing entries are gone
	value, err := target.GetRaw(ctx, "kept")
	if err != nil || !bytes.Equal(value, []byte("v1")) {
		t.Errorf("Expected kept=v1 after Load, got %q (%v)", value, err)
	}
	if _, err := target.GetRaw(ctx, "stale"); err == nil {
		t.Errorf("Expected Load to replace pre-existing state")
	}
}

func BenchmarkMemoryBackend(b *testing.B) {
	backendtesting.RunBackendBenchmarks(b, "Memory", func() backend.Backend {
		return New(nil)
	})
}
