package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/unikv/unikv/lib/backend"
)

// RunBackendBenchmarks runs all benchmarks for a Backend implementation.
func RunBackendBenchmarks(b *testing.B, name string, factory BackendFactory) {

	b.Run("Set", func(b *testing.B) {
		benchmarkSet(b, factory())
	})

	b.Run("SetExisting", func(b *testing.B) {
		benchmarkSetExisting(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory())
	})

	b.Run("List", func(b *testing.B) {
		benchmarkList(b, factory())
	})

	b.Run("BatchSet", func(b *testing.B) {
		benchmarkBatchSet(b, factory())
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkSet(b *testing.B, be backend.Backend) {
	b.Cleanup(func() {
		be.Close()
	})
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter)
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			be.SetRaw(ctx, key, value)
			counter++
		}
	})
}

func benchmarkSetExisting(b *testing.B, be backend.Backend) {
	b.Cleanup(func() {
		be.Close()
	})
	ctx := context.Background()

	numKeys := 10_000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		be.SetRaw(ctx, key, value)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			be.SetRaw(ctx, key, value)
			counter++
		}
	})
}

func benchmarkGet(b *testing.B, be backend.Backend) {
	b.Cleanup(func() {
		be.Close()
	})
	ctx := context.Background()

	numKeys := 10_000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		be.SetRaw(ctx, key, value)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			be.GetRaw(ctx, key)
			counter++
		}
	})
}

func benchmarkDelete(b *testing.B, be backend.Backend) {
	b.Cleanup(func() {
		be.Close()
	})
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		be.SetRaw(ctx, key, []byte("test-value"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		be.Delete(ctx, fmt.Sprintf("test-key-%d", i))
	}
}

func benchmarkList(b *testing.B, be backend.Backend) {
	b.Cleanup(func() {
		be.Close()
	})
	ctx := context.Background()

	numKeys := 10_000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("prefix-%d/test-key-%d", i%10, i)
		be.SetRaw(ctx, key, []byte("test-value"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		be.List(ctx, fmt.Sprintf("prefix-%d/", i%10))
	}
}

func benchmarkBatchSet(b *testing.B, be backend.Backend) {
	b.Cleanup(func() {
		be.Close()
	})

	bb, ok := be.(backend.BatchBackend)
	if !ok {
		b.Skip()
	}
	ctx := context.Background()

	batchSize := 100
	pairs := make(map[string][]byte, batchSize)
	for i := 0; i < batchSize; i++ {
		pairs[fmt.Sprintf("batch-key-%d", i)] = []byte(fmt.Sprintf("batch-value-%d", i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bb.BatchSetRaw(ctx, pairs)
	}
}

func benchmarkMixedUsage(b *testing.B, be backend.Backend) {
	b.Cleanup(func() {
		be.Close()
	})
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%1000)
			switch counter % 10 {
			case 0, 1, 2, 3, 4, 5, 6:
				be.SetRaw(ctx, key, []byte(fmt.Sprintf("test-value-%d", counter)))
			case 7, 8:
				be.GetRaw(ctx, key)
			case 9:
				be.Delete(ctx, key)
			}
			counter++
		}
	})
}
