package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/unikv/unikv/lib/backend"
)

// BackendFactory creates a fresh, empty instance of a Backend implementation.
type BackendFactory func() backend.Backend

// RunBackendTests runs the conformance suite against a Backend
// implementation. Optional capabilities (health, batch, snapshot) are
// skipped when the backend does not implement them.
func RunBackendTests(t *testing.T, name string, factory BackendFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("List", func(t *testing.T) {
			testList(t, factory())
		})

		t.Run("Health", func(t *testing.T) {
			testHealth(t, factory())
		})

		t.Run("Batch", func(t *testing.T) {
			testBatch(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			testConcurrentUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, b backend.Backend) {
	defer b.Close()
	ctx := context.Background()

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	if err := b.SetRaw(ctx, testKey, testValue1); err != nil {
		t.Fatalf("Unexpected error during SetRaw: %v", err)
	}

	result, err := b.GetRaw(ctx, testKey)
	if err != nil {
		t.Errorf("Expected key %s to exist after SetRaw, got %v", testKey, err)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	// overwrite
	if err := b.SetRaw(ctx, testKey, testValue2); err != nil {
		t.Fatalf("Unexpected error during overwrite: %v", err)
	}

	result, err = b.GetRaw(ctx, testKey)
	if err != nil {
		t.Errorf("Expected key %s to exist after overwrite, got %v", testKey, err)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, err = b.GetRaw(ctx, "nonexistent-key")
	if !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for nonexistent key, got %v", err)
	}

	// stored values must not alias caller or backend memory
	retrieved, _ := b.GetRaw(ctx, testKey)
	retrieved[0] = 'X'

	original, _ := b.GetRaw(ctx, testKey)
	if bytes.Equal(retrieved, original) {
		t.Errorf("GetRaw should return a copy, not a reference to the stored value")
	}

	input := []byte("mutable-input")
	b.SetRaw(ctx, "alias-key", input)
	input[0] = 'X'

	stored, _ := b.GetRaw(ctx, "alias-key")
	if bytes.Equal(stored, input) {
		t.Errorf("SetRaw should copy the value, not keep a reference to caller memory")
	}
}

func testDelete(t *testing.T, b backend.Backend) {
	defer b.Close()
	ctx := context.Background()

	testKey := "delete-test-key"
	testValue := []byte("delete-test-value")

	b.SetRaw(ctx, testKey, testValue)

	if _, err := b.GetRaw(ctx, testKey); err != nil {
		t.Errorf("Expected key %s to exist after SetRaw, got %v", testKey, err)
	}

	if err := b.Delete(ctx, testKey); err != nil {
		t.Errorf("Unexpected error during Delete: %v", err)
	}

	if _, err := b.GetRaw(ctx, testKey); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after Delete, got %v", err)
	}

	// deleting an absent key is not an error
	if err := b.Delete(ctx, "nonexistent-key"); err != nil {
		t.Errorf("Delete of nonexistent key should not fail: %v", err)
	}
}

func testList(t *testing.T, b backend.Backend) {
	defer b.Close()
	ctx := context.Background()

	entries := map[string][]byte{
		"user/1":    []byte("alice"),
		"user/2":    []byte("bob"),
		"user/3":    []byte("carol"),
		"session/1": []byte("s1"),
	}
	for key, value := range entries {
		if err := b.SetRaw(ctx, key, value); err != nil {
			t.Fatalf("Unexpected error during SetRaw: %v", err)
		}
	}

	keys, err := b.List(ctx, "user/")
	if err != nil {
		t.Fatalf("Unexpected error during List: %v", err)
	}
	sort.Strings(keys)
	want := []string{"user/1", "user/2", "user/3"}
	if len(keys) != len(want) {
		t.Fatalf("Expected %d keys, got %d (%v)", len(want), len(keys), keys)
	}
	for i, key := range want {
		if keys[i] != key {
			t.Errorf("Expected key %s at position %d, got %s", key, i, keys[i])
		}
	}

	// empty prefix matches everything
	all, err := b.List(ctx, "")
	if err != nil {
		t.Fatalf("Unexpected error during List: %v", err)
	}
	if len(all) != len(entries) {
		t.Errorf("Expected %d keys for empty prefix, got %d", len(entries), len(all))
	}

	// no match yields an empty result, not an error
	none, err := b.List(ctx, "missing/")
	if err != nil {
		t.Fatalf("Unexpected error during List: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no keys for unmatched prefix, got %v", none)
	}
}

func testHealth(t *testing.T, b backend.Backend) {
	defer b.Close()

	checker, ok := b.(backend.HealthChecker)
	if !ok {
		t.Skip()
	}

	if err := checker.Health(context.Background()); err != nil {
		t.Errorf("Expected healthy backend, got %v", err)
	}
}

func testBatch(t *testing.T, b backend.Backend) {
	defer b.Close()
	ctx := context.Background()

	bb, ok := b.(backend.BatchBackend)
	if !ok {
		t.Skip()
	}

	pairs := make(map[string][]byte, 100)
	keys := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("batch-key-%d", i)
		pairs[key] = []byte(fmt.Sprintf("batch-value-%d", i))
		keys = append(keys, key)
	}

	if err := bb.BatchSetRaw(ctx, pairs); err != nil {
		t.Fatalf("Unexpected error during BatchSetRaw: %v", err)
	}

	result, err := bb.BatchGetRaw(ctx, append(keys, "batch-missing"))
	if err != nil {
		t.Fatalf("Unexpected error during BatchGetRaw: %v", err)
	}
	if len(result) != len(pairs) {
		t.Errorf("Expected %d entries, got %d", len(pairs), len(result))
	}
	for key, want := range pairs {
		if !bytes.Equal(result[key], want) {
			t.Errorf("Value mismatch for key %s: expected %s, got %s", key, want, result[key])
		}
	}
	if _, ok := result["batch-missing"]; ok {
		t.Errorf("Missing key must be absent from the BatchGetRaw result")
	}

	if err := bb.BatchDelete(ctx, keys); err != nil {
		t.Fatalf("Unexpected error during BatchDelete: %v", err)
	}
	for _, key := range keys {
		if _, err := b.GetRaw(ctx, key); !errors.Is(err, backend.ErrNotFound) {
			t.Errorf("Expected key %s to be gone after BatchDelete", key)
		}
	}
}

func testSaveLoad(t *testing.T, factory BackendFactory) {
	b := factory()
	b2 := factory()
	defer b.Close()
	defer b2.Close()

	snap, ok := b.(backend.Snapshotter)
	if !ok {
		t.Skip()
	}
	snap2 := b2.(backend.Snapshotter)

	ctx := context.Background()
	numEntries := 1000

	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("save-load-test-key-%d", i)
		value := []byte(fmt.Sprintf("save-load-test-value-%d", i))
		if err := b.SetRaw(ctx, key, value); err != nil {
			t.Fatalf("Unexpected error during SetRaw: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := snap.Save(&buf); err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}
	if err := snap2.Load(&buf); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}

	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("save-load-test-key-%d", i)
		want := []byte(fmt.Sprintf("save-load-test-value-%d", i))

		got, err := b2.GetRaw(ctx, key)
		if err != nil {
			t.Errorf("Key %s not found after Load: %v", key, err)
			continue
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Value mismatch for key %s: expected %s, got %s", key, want, got)
		}
	}
}

func testEdgeCases(t *testing.T, b backend.Backend) {
	defer b.Close()
	ctx := context.Background()

	// empty value
	emptyValueKey := "empty-value-key"
	if err := b.SetRaw(ctx, emptyValueKey, []byte{}); err != nil {
		t.Fatalf("Unexpected error storing empty value: %v", err)
	}
	result, err := b.GetRaw(ctx, emptyValueKey)
	if err != nil {
		t.Errorf("Key for empty value not found after SetRaw: %v", err)
	} else if len(result) != 0 {
		t.Errorf("Empty value mismatch: %v", result)
	}

	// nil value
	nilValueKey := "nil-value-key"
	if err := b.SetRaw(ctx, nilValueKey, nil); err != nil {
		t.Fatalf("Unexpected error storing nil value: %v", err)
	}
	result, err = b.GetRaw(ctx, nilValueKey)
	if err != nil {
		t.Errorf("Key for nil value not found after SetRaw: %v", err)
	} else if len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	// large key
	largeKey := string(bytes.Repeat([]byte{'k'}, 1000))
	largeKeyValue := []byte("value for large key")
	b.SetRaw(ctx, largeKey, largeKeyValue)
	result, err = b.GetRaw(ctx, largeKey)
	if err != nil {
		t.Errorf("Large key not found after SetRaw: %v", err)
	} else if !bytes.Equal(result, largeKeyValue) {
		t.Errorf("Value mismatch for large key")
	}

	// large value
	largeValueKey := "large-value-key"
	largeValue := make([]byte, 4*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}
	b.SetRaw(ctx, largeValueKey, largeValue)
	result, err = b.GetRaw(ctx, largeValueKey)
	if err != nil {
		t.Errorf("Key for large value not found after SetRaw: %v", err)
	} else if !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch: size %d vs %d", len(result), len(largeValue))
	}

	// cancelled context
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.SetRaw(cancelled, "cancelled-key", []byte("x")); err == nil {
		t.Errorf("Expected error for cancelled context")
	}
}

func testConcurrentUsage(t *testing.T, b backend.Backend) {
	defer b.Close()
	ctx := context.Background()

	type operation struct {
		op    string
		key   string
		value []byte
	}

	numOperations := 10_000
	operations := make([]operation, numOperations)

	for i := 0; i < numOperations; i++ {
		var op string
		switch i % 10 {
		case 0, 1, 2, 3, 4, 5, 6:
			op = "set"
		case 7, 8:
			op = "get"
		case 9:
			op = "delete"
		}

		var key string
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		} else {
			key = fmt.Sprintf("key-%d", i)
		}

		var value []byte
		if op == "set" {
			value = make([]byte, 64)
			for j := range value {
				value[j] = byte((i + j) % 256)
			}
		}

		operations[i] = operation{op, key, value}
	}

	numWorkers := 8
	opsPerWorker := numOperations / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func(workerID int) {
			defer wg.Done()

			start := workerID * opsPerWorker
			end := start + opsPerWorker

			for i := start; i < end; i++ {
				op := operations[i]

				switch op.op {
				case "set":
					if err := b.SetRaw(ctx, op.key, op.value); err != nil {
						t.Errorf("SetRaw %s failed: %v", op.key, err)
					}
				case "get":
					if _, err := b.GetRaw(ctx, op.key); err != nil && !errors.Is(err, backend.ErrNotFound) {
						t.Errorf("GetRaw %s failed: %v", op.key, err)
					}
				case "delete":
					if err := b.Delete(ctx, op.key); err != nil {
						t.Errorf("Delete %s failed: %v", op.key, err)
					}
				}
			}
		}(w)
	}

	wg.Wait()

	// two consecutive reads of the quiescent store must agree
	keys, err := b.List(ctx, "")
	if err != nil {
		t.Fatalf("Unexpected error during List: %v", err)
	}
	for _, key := range keys {
		first, err1 := b.GetRaw(ctx, key)
		second, err2 := b.GetRaw(ctx, key)
		if err1 != nil || err2 != nil {
			t.Errorf("Consistency error: key %s vanished during verification", key)
			continue
		}
		if !bytes.Equal(first, second) {
			t.Errorf("Value mismatch for key %s between verification passes", key)
		}
	}
}
