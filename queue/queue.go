// MIT License
//
// Copyright (c) 2022-2026 Tochemey
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package queue implements a lock-free, multi-producer/multi-consumer FIFO
// queue following the Michael–Scott design, with hazard-pointer based node
// reclamation.
//
// The queue keeps two cells: head always points at a dummy node whose next
// is the logical first element, and tail points at the last node or lags
// behind it by at most one link. The lag is inherent to the design: linking
// a new node and advancing the tail are two separate CAS steps, which is
// what keeps every operation lock-free. A thread observing a lagging tail
// advances it on behalf of the stalled enqueuer before retrying its own
// step, so the queue is always left in an advanceable state.
package queue

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tochemey/lockfree/hazard"
	"github.com/tochemey/lockfree/internal/arena"
	"github.com/tochemey/lockfree/internal/backoff"
)

// ErrDisposed is returned or panicked when the queue is used after Dispose.
var ErrDisposed = errors.New("queue already disposed")

// casFailpoint, when set by tests, injects one artificial failure into the
// decisive CAS of an operation. It must stay nil in production builds.
var casFailpoint func() bool

// Queue is a lock-free FIFO queue. Operations are linearizable: a value
// becomes observable by dequeuers at the point the CAS linking it into the
// previous tail's next cell succeeds, independent of the later tail
// advance. All methods are safe for concurrent use by any number of
// goroutines.
type Queue[T any] struct {
	head         arena.Cell
	tail         arena.Cell
	nodes        *arena.Arena[T]
	registry     *hazard.Registry
	ownsRegistry bool
	length       atomic.Int64
	disposed     atomic.Bool
}

// New creates a lock-free queue. Unless WithRegistry supplies a shared
// hazard registry, the queue creates and owns one and closes it on Dispose.
func New[T any](opts ...Option) (*Queue[T], error) {
	cfg := newConfig(opts...)
	registry := cfg.registry
	owns := false
	if registry == nil {
		var err error
		if registry, err = hazard.NewRegistry(cfg.registryOptions...); err != nil {
			return nil, err
		}
		owns = true
	}
	queue := &Queue[T]{
		nodes:        arena.New[T](cfg.arenaCapacity),
		registry:     registry,
		ownsRegistry: owns,
	}
	var zero T
	dummy := queue.nodes.Alloc(zero)
	queue.head.Store(dummy)
	queue.tail.Store(dummy)
	return queue, nil
}

// Enqueue puts the given value at the tail of the queue. It always
// succeeds; transient CAS contention is absorbed by silent retries.
func (q *Queue[T]) Enqueue(value T) {
	if q.disposed.Load() {
		panic(ErrDisposed)
	}
	node := q.nodes.Alloc(value)
	slot := q.lease()
	defer q.unlease(slot)

	var wait backoff.Backoff
	for {
		last := q.tail.Load()
		slot.Protect(0, uint64(last))
		if q.tail.Load() != last {
			slot.Clear(0)
			wait.Wait()
			continue
		}
		next := q.nodes.Next(last).Load()
		if next != arena.Nil {
			// tail is lagging: advance it on behalf of the enqueuer that
			// linked next, then retry from a fresh load
			q.tail.CompareAndSwap(last, next)
			slot.Clear(0)
			continue
		}
		if casFailpoint != nil && casFailpoint() {
			slot.Clear(0)
			wait.Wait()
			continue
		}
		if q.nodes.Next(last).CompareAndSwap(arena.Nil, node) {
			// the value is linked and observable; the tail advance is best
			// effort, anyone can finish it
			q.tail.CompareAndSwap(last, node)
			slot.Clear(0)
			q.length.Add(1)
			return
		}
		slot.Clear(0)
		wait.Wait()
	}
}

// Dequeue removes and returns the value at the head of the queue. The
// second return value is false when the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if q.disposed.Load() {
		panic(ErrDisposed)
	}
	slot := q.lease()
	defer q.unlease(slot)

	var wait backoff.Backoff
	for {
		first := q.head.Load()
		slot.Protect(0, uint64(first))
		if q.head.Load() != first {
			slot.Clear(0)
			wait.Wait()
			continue
		}
		last := q.tail.Load()
		next := q.nodes.Next(first).Load()
		if next == arena.Nil {
			// head is the dummy and nothing is linked behind it
			slot.ClearAll()
			return zero, false
		}
		slot.Protect(1, uint64(next))
		if q.head.Load() != first {
			// first may have been retired before the second protection
			// became visible, invalidating next
			slot.ClearAll()
			wait.Wait()
			continue
		}
		if first == last {
			// tail is lagging behind the linked node: help advance it
			q.tail.CompareAndSwap(last, next)
			slot.ClearAll()
			continue
		}
		// read the value before the decisive CAS: once next becomes the
		// dummy a later dequeue may retire it and zero its payload
		value := q.nodes.Value(next)
		if casFailpoint != nil && casFailpoint() {
			slot.ClearAll()
			wait.Wait()
			continue
		}
		if q.head.CompareAndSwap(first, next) {
			slot.ClearAll()
			slot.Retire(uint64(first), q.nodes)
			q.length.Add(-1)
			return value, true
		}
		slot.ClearAll()
		wait.Wait()
	}
}

// Peek returns the value at the head of the queue without removing it. The
// second return value is false when the queue is empty. The result is a
// snapshot: the head may change the instant Peek returns.
func (q *Queue[T]) Peek() (T, bool) {
	var zero T
	if q.disposed.Load() {
		panic(ErrDisposed)
	}
	slot := q.lease()
	defer q.unlease(slot)

	var wait backoff.Backoff
	for {
		first := q.head.Load()
		slot.Protect(0, uint64(first))
		if q.head.Load() != first {
			slot.Clear(0)
			wait.Wait()
			continue
		}
		next := q.nodes.Next(first).Load()
		if next == arena.Nil {
			slot.ClearAll()
			return zero, false
		}
		slot.Protect(1, uint64(next))
		if q.head.Load() != first {
			slot.ClearAll()
			wait.Wait()
			continue
		}
		value := q.nodes.Value(next)
		slot.ClearAll()
		return value, true
	}
}

// IsEmpty reports whether the queue is empty. The answer is best-effort and
// racy by nature.
func (q *Queue[T]) IsEmpty() bool {
	head := q.head.Load()
	if head == arena.Nil {
		return true
	}
	return q.nodes.Next(head).Load() == arena.Nil
}

// Len returns the approximate number of values in the queue.
func (q *Queue[T]) Len() int64 {
	return q.length.Load()
}

// Registry returns the hazard registry backing the queue.
func (q *Queue[T]) Registry() *hazard.Registry {
	return q.registry
}

// Dispose drains every remaining node, the dummy included, back to the
// arena and, when the queue owns its registry, closes it. Dispose requires
// that no operation is in flight and is terminal: any later operation
// panics with ErrDisposed.
func (q *Queue[T]) Dispose(ctx context.Context) error {
	if q.disposed.Swap(true) {
		return ErrDisposed
	}
	for node := q.head.Load(); node != arena.Nil; {
		next := q.nodes.Next(node).Load()
		q.nodes.Free(node)
		node = next
	}
	q.head.Store(arena.Nil)
	q.tail.Store(arena.Nil)
	q.length.Store(0)
	if q.ownsRegistry {
		return q.registry.Close(ctx)
	}
	return nil
}

// lease takes a hazard slot for the duration of one operation. Slots are
// leased per call, so the queue has no per-goroutine registration step;
// when every slot is taken the operation backs off until one frees, since
// leases only span a single operation.
func (q *Queue[T]) lease() *hazard.Slot {
	var wait backoff.Backoff
	for {
		slot, err := q.registry.Register()
		switch {
		case err == nil:
			return slot
		case errors.Is(err, hazard.ErrRegistryClosed):
			panic(ErrDisposed)
		default:
			wait.Wait()
		}
	}
}

func (q *Queue[T]) unlease(slot *hazard.Slot) {
	_ = slot.Release()
}
