package hook

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/unikv/unikv/lib/hook/internal"
)

var Logger = logger.GetLogger("hook")

// --------------------------------------------------------------------------
// Dispatcher
// --------------------------------------------------------------------------

// Dispatcher manages hook registrations and fans events out to them.
//
// Invariant: a hook's outcome (error, timeout, panic) never affects the
// operation that triggered the event. Errors surface only on the hook's own
// buffered channel, best-effort.
type Dispatcher struct {
	regs   *xsync.MapOf[uint64, *registration]
	nextID atomic.Uint64
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		regs: xsync.NewMapOf[uint64, *registration](),
	}
}

// Register adds a hook and returns its id, its error channel, and an
// unregister function. After unregister returns no new invocations start;
// async invocations already queued run to completion.
//
// Thread-safety: Register and the returned unregister function are safe to
// call concurrently with Dispatch.
func (d *Dispatcher) Register(cb Callback, opts ...Option) (uint64, <-chan error, func()) {
	r := &registration{
		id:   d.nextID.Add(1),
		cb:   cb,
		errs: make(chan error, defaultErrorBuffer),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.async {
		r.queue = internal.NewQueue[dispatchItem]()
		go d.runWorker(r)
	}

	d.regs.Store(r.id, r)

	unregister := func() { d.unregister(r) }
	return r.id, r.errs, unregister
}

// unregister removes a registration. Idempotent.
func (d *Dispatcher) unregister(r *registration) {
	if !r.removed.CompareAndSwap(false, true) {
		return
	}
	d.regs.Delete(r.id)
	if r.queue != nil {
		r.queue.Close()
	}
}

// Close unregisters every hook. Queued async invocations still complete.
func (d *Dispatcher) Close() {
	d.regs.Range(func(_ uint64, r *registration) bool {
		d.unregister(r)
		return true
	})
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

// Dispatch fans an event out to every matching registration. Synchronous
// hooks run inline (bounded by their timeout); asynchronous hooks are queued
// and never block the caller. Dispatch itself never returns an error and
// never panics, regardless of hook behavior.
//
// No relative invocation order between different hooks is guaranteed.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	d.regs.Range(func(_ uint64, r *registration) bool {
		if !r.matches(event) {
			return true
		}
		if r.async {
			r.queue.Push(&dispatchItem{ctx: ctx, event: event})
		} else {
			d.invokeSync(ctx, r, event)
		}
		return true
	})
}

// runWorker consumes an async registration's queue until it is closed.
func (d *Dispatcher) runWorker(r *registration) {
	for item := range r.queue.Recv() {
		r.pushErr(safeInvoke(item.ctx, r.cb, item.event))
	}
}

// invokeSync runs a synchronous callback, bounded by the registration's
// timeout if one is set. A timed-out callback keeps running in its
// goroutine; the dispatcher merely stops waiting for it.
func (d *Dispatcher) invokeSync(ctx context.Context, r *registration, event Event) {
	if r.timeout <= 0 {
		r.pushErr(safeInvoke(ctx, r.cb, event))
		return
	}

	done := make(chan error, 1)
	go func() {
		done <- safeInvoke(ctx, r.cb, event)
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		r.pushErr(err)
	case <-timer.C:
		r.pushErr(fmt.Errorf("hook: callback timed out after %v on %s", r.timeout, event))
	}
}

// safeInvoke runs a callback and converts panics into errors, so a
// misbehaving hook can never take down the dispatching operation.
func safeInvoke(ctx context.Context, cb Callback, event Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("hook: callback panicked on %s: %v", event, rec)
		}
	}()
	return cb(ctx, event)
}
