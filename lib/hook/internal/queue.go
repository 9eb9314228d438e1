// Package internal provides a lock-free multi-producer single-consumer
// queue used for asynchronous hook delivery.
//
// Producers (Dispatch callers) push without blocking and without locks; a
// single consumer (the registration's worker goroutine) receives items via
// a channel. The queue is unbounded, so a slow hook callback delays only its
// own worker, never the dispatching operation. Under concurrent pushes the
// exact item order is determined by which producer finishes its append
// first.
package internal

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node is a single element in the queue's linked list.
type node[T any] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// Queue is a lock-free multi-producer single-consumer queue built on a
// linked list with atomic append.
type Queue[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	out    chan *T
	closed atomic.Bool

	// Condition variable for efficient consumer waiting
	mu   sync.Mutex
	cond *sync.Cond
}

// NewQueue creates a queue and starts its consumer goroutine.
func NewQueue[T any]() *Queue[T] {
	// Sentinel node so head and tail are never nil
	sentinel := &node[T]{}

	q := &Queue[T]{
		out: make(chan *T),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.consume()

	return q
}

// Push appends an item. It returns false if the item is nil or the queue is
// closed.
//
// Thread-safety: this method is thread-safe and can be called concurrently.
func (q *Queue[T]) Push(value *T) bool {
	if value == nil || q.closed.Load() {
		return false
	}

	newNode := &node[T]{value: value}
	var backoff uint8

	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()

		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// Appended. The tail CAS may lose to a helping producer,
				// which is fine - tail converges either way.
				q.tail.CompareAndSwap(tailNode, newNode)
				// Signal under the lock so the consumer's check-then-wait
				// cannot miss the wakeup.
				q.mu.Lock()
				q.cond.Signal()
				q.mu.Unlock()
				return true
			}
		} else {
			// Another producer appended but has not updated tail yet; help.
			q.tail.CompareAndSwap(tailNode, next)
		}

		// Exponential backoff under contention: spin first, then yield.
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// consume moves items from the linked list to the output channel.
func (q *Queue[T]) consume() {
	defer close(q.out)

	for {
		hasItems := false

		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			hasItems = true

			value := next.value
			q.head.Store(next)
			q.out <- value
			next.value = nil
		}

		if !hasItems && q.closed.Load() {
			return
		}

		if !hasItems {
			q.mu.Lock()
			if q.head.Load().next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// Recv returns the receive channel for the single consumer. The channel is
// closed after Close once all remaining items have been delivered.
func (q *Queue[T]) Recv() <-chan *T {
	return q.out
}

// Close prevents further pushes. Items already queued are still delivered.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed.Store(true)
	q.cond.Signal()
	q.mu.Unlock()
}
