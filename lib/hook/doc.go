// Package hook delivers post-mutation events to registered callbacks.
//
// The client core dispatches one Event per successful logical sub-operation
// (batch operations emit per key). Registrations filter by event type and
// key, and choose synchronous delivery (inline, optionally bounded by a
// timeout) or asynchronous delivery (a per-registration lock-free queue
// drained by a dedicated worker goroutine).
//
// Hook failures are isolated by design: errors, timeouts and panics are
// reported only on the registration's buffered error channel - dropped when
// the buffer is full - and never influence the outcome of the operation
// that emitted the event.
package hook
