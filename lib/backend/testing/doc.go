// Package testing provides a standardised conformance suite and benchmarks
// for storage implementations that satisfy the backend.Backend interface.
//
// The suite exercises the byte-storage contract (round trips, overwrite,
// delete, prefix listing, value copying) plus the optional capabilities
// (health, batch, snapshot), skipping capability tests the backend does not
// implement.
//
// Example usage:
//
//	factory := func() backend.Backend {
//		return NewMyBackend()
//	}
//
//	backendtesting.RunBackendTests(t, "MyBackend", factory)
//	backendtesting.RunBackendBenchmarks(b, "MyBackend", factory)
package testing
