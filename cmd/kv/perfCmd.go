package kv

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/unikv/unikv/cmd/util"
	"github.com/unikv/unikv/lib/client"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for unikv backends",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix  = "__test"
	perfNumThreads = 10
	perfKeySpread  = 100
	perfNumOps     = 10_000
	perfSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10_000, util.WrapString("Number of operations per benchmark"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfKeySpread = viper.GetInt("keys")
	perfNumOps = viper.GetInt("ops")
	if skip := viper.GetString("skip"); skip != "" {
		perfSkip = strings.Split(skip, ",")
	}

	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	fmt.Println("Performance testing tool for unikv backends")
	fmt.Println()
	fmt.Printf("Backend: %s\n", viper.GetString("backend"))
	fmt.Printf("Threads: %d, Ops: %d, Keys: %d\n", perfNumThreads, perfNumOps, perfKeySpread)
	fmt.Println()
	fmt.Println("starting tests...")

	runBench(ctx, "set", func(ctx context.Context, key string) error {
		return store.SetRaw(ctx, key, []byte("test"))
	})

	// preload keys so get/has/delete hit existing data
	for _, name := range []string{"get", "has", "delete", "mixed"} {
		_, iter := getKeys(name)
		iter(func(k string) {
			if err := store.SetRaw(ctx, k, []byte("test")); err != nil {
				log.Printf("(warmup) - error setting key: %v\n", err)
			}
		})
	}

	runBench(ctx, "get", func(ctx context.Context, key string) error {
		_, err := store.GetRaw(ctx, key)
		if client.IsNotFound(err) {
			return nil
		}
		return err
	})

	runBench(ctx, "has", func(ctx context.Context, key string) error {
		_, err := store.HasKey(ctx, key)
		return err
	})

	runBench(ctx, "delete", func(ctx context.Context, key string) error {
		return store.Delete(ctx, key)
	})

	runBench(ctx, "mixed", func(ctx context.Context, key string) error {
		switch len(key) % 4 {
		case 0:
			return store.SetRaw(ctx, key, []byte("test"))
		case 1:
			_, err := store.GetRaw(ctx, key)
			if client.IsNotFound(err) {
				return nil
			}
			return err
		case 2:
			_, err := store.HasKey(ctx, key)
			return err
		default:
			return store.Delete(ctx, key)
		}
	})

	// cleanup
	keys, err := store.List(ctx, perfKeyPrefix)
	if err != nil {
		return err
	}
	return store.BatchDelete(ctx, keys)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runBench runs op across perfNumThreads workers, timing every call with a
// go-metrics timer, and prints the aggregate result.
func runBench(ctx context.Context, name string, op func(ctx context.Context, key string) error) {
	if shouldSkip(name) {
		fmt.Printf("%-20sskipped\n", name)
		return
	}

	timer := gometrics.NewTimer()
	getKey, _ := getKeys(name)

	var wg sync.WaitGroup
	wg.Add(perfNumThreads)

	opsPerWorker := perfNumOps / perfNumThreads

	for w := 0; w < perfNumThreads; w++ {
		go func(workerID int) {
			defer wg.Done()

			for i := 0; i < opsPerWorker; i++ {
				key := getKey(workerID*opsPerWorker + i)
				start := time.Now()
				if err := op(ctx, key); err != nil {
					log.Printf("(%s) - operation error: %v\n", name, err)
				}
				timer.UpdateSince(start)
			}
		}(w)
	}

	wg.Wait()
	printResult(name, timer)
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, timer gometrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	mean := time.Duration(int64(timer.Mean()))
	p99 := time.Duration(int64(timer.Percentile(0.99)))

	fmt.Printf("%-20s%v/op (p99 %v)\t%.0f ops/sec\n", test, mean, p99, timer.RateMean())
}
