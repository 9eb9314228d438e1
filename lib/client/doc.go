// Package client is the unified key-value surface of unikv.
//
// A Client binds three pluggable pieces together: a backend.Backend for
// byte storage, a codec.Codec for value serialization, and a
// hook.Dispatcher for post-mutation events. Optional backend capabilities
// (health checks, native batching) are discovered at call time with type
// assertions; a backend that lacks a capability either triggers a
// sequential fallback (batching) or a Capability error (health).
//
// All failures carry a Kind so callers can branch on the class of error:
//
//	value, err := client.GetAs[User](ctx, c, "user/42")
//	if client.IsNotFound(err) {
//		// key absent
//	}
package client
