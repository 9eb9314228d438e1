package hook

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/unikv/unikv/lib/hook/internal"
)

// defaultErrorBuffer is the error channel capacity when WithErrorBuffer is
// not given.
const defaultErrorBuffer = 16

// Callback is invoked for every matching event. A non-nil return value is
// delivered on the registration's error channel; it never affects the
// operation that produced the event.
type Callback func(ctx context.Context, event Event) error

// --------------------------------------------------------------------------
// Registration
// --------------------------------------------------------------------------

// registration is the dispatcher-owned state for one registered hook.
type registration struct {
	id        uint64
	cb        Callback
	types     map[EventType]struct{} // nil = match all
	keyFilter func(string) bool      // nil = match all
	async     bool
	timeout   time.Duration // sync only
	errs      chan error

	queue   *internal.Queue[dispatchItem] // async delivery, nil for sync hooks
	removed atomic.Bool
}

// dispatchItem is one queued async invocation.
type dispatchItem struct {
	ctx   context.Context
	event Event
}

// matches reports whether an event passes the registration's filters.
func (r *registration) matches(event Event) bool {
	if r.removed.Load() {
		return false
	}
	if r.types != nil {
		if _, ok := r.types[event.Type]; !ok {
			return false
		}
	}
	if r.keyFilter != nil && !r.keyFilter(event.Key) {
		return false
	}
	return true
}

// pushErr delivers an error on the registration's channel on a best-effort
// basis: if the buffer is full the error is dropped rather than blocking.
func (r *registration) pushErr(err error) {
	if err == nil {
		return
	}
	select {
	case r.errs <- err:
	default:
		Logger.Debugf("hook %d: error channel full, dropping error: %v", r.id, err)
	}
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Option configures a hook registration.
type Option func(*registration)

// WithEventTypes restricts the hook to the given event types.
// Without this option the hook matches every event type.
func WithEventTypes(types ...EventType) Option {
	return func(r *registration) {
		if len(types) == 0 {
			return
		}
		r.types = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			r.types[t] = struct{}{}
		}
	}
}

// WithKeyFilter restricts the hook to events whose key satisfies the
// predicate. A nil predicate matches every key.
func WithKeyFilter(filter func(key string) bool) Option {
	return func(r *registration) {
		r.keyFilter = filter
	}
}

// WithKeyPrefix restricts the hook to keys sharing the given prefix.
// Shorthand for a WithKeyFilter prefix predicate.
func WithKeyPrefix(prefix string) Option {
	return func(r *registration) {
		r.keyFilter = func(key string) bool {
			return len(key) >= len(prefix) && key[:len(prefix)] == prefix
		}
	}
}

// WithAsync makes the callback run on the registration's own worker
// goroutine so Dispatch never waits for it. Invocations for one hook are
// delivered in dispatch order; no order is promised across hooks.
func WithAsync() Option {
	return func(r *registration) {
		r.async = true
	}
}

// WithTimeout bounds a synchronous callback's execution time. On expiry the
// dispatcher stops waiting, reports a timeout error on the hook's error
// channel, and lets the operation proceed. Ignored for async hooks.
func WithTimeout(d time.Duration) Option {
	return func(r *registration) {
		r.timeout = d
	}
}

// WithErrorBuffer sets the error channel capacity (default 16).
func WithErrorBuffer(n int) Option {
	return func(r *registration) {
		if n > 0 {
			r.errs = make(chan error, n)
		}
	}
}
