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

// Package stack implements a lock-free, multi-producer/multi-consumer LIFO
// stack (a Treiber stack) with hazard-pointer based node reclamation.
package stack

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tochemey/lockfree/hazard"
	"github.com/tochemey/lockfree/internal/arena"
	"github.com/tochemey/lockfree/internal/backoff"
)

// ErrDisposed is returned or panicked when the stack is used after Dispose.
var ErrDisposed = errors.New("stack already disposed")

// casFailpoint, when set by tests, injects one artificial failure into the
// decisive CAS of an operation. It must stay nil in production builds.
var casFailpoint func() bool

// Stack is a lock-free LIFO stack. Operations are linearizable: each Push
// and Pop takes effect atomically at the point its decisive CAS on the top
// cell succeeds. All methods are safe for concurrent use by any number of
// goroutines.
type Stack[T any] struct {
	top          arena.Cell
	nodes        *arena.Arena[T]
	registry     *hazard.Registry
	ownsRegistry bool
	length       atomic.Int64
	disposed     atomic.Bool
}

// New creates a lock-free stack. Unless WithRegistry supplies a shared
// hazard registry, the stack creates and owns one and closes it on Dispose.
func New[T any](opts ...Option) (*Stack[T], error) {
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
	return &Stack[T]{
		nodes:        arena.New[T](cfg.arenaCapacity),
		registry:     registry,
		ownsRegistry: owns,
	}, nil
}

// Push places the given value on top of the stack. It always succeeds;
// transient CAS contention is absorbed by silent retries.
func (s *Stack[T]) Push(value T) {
	if s.disposed.Load() {
		panic(ErrDisposed)
	}
	node := s.nodes.Alloc(value)
	var wait backoff.Backoff
	for {
		top := s.top.Load()
		s.nodes.Next(node).Store(top)
		if casFailpoint != nil && casFailpoint() {
			wait.Wait()
			continue
		}
		if s.top.CompareAndSwap(top, node) {
			s.length.Add(1)
			return
		}
		wait.Wait()
	}
}

// Pop removes and returns the value on top of the stack. The second return
// value is false when the stack is empty.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if s.disposed.Load() {
		panic(ErrDisposed)
	}
	slot := s.lease()
	defer s.unlease(slot)

	var wait backoff.Backoff
	for {
		top := s.top.Load()
		if top == arena.Nil {
			return zero, false
		}
		slot.Protect(0, uint64(top))
		if s.top.Load() != top {
			// top was unlinked before the protection became visible; the
			// node may already be recycled, start over
			slot.Clear(0)
			wait.Wait()
			continue
		}
		next := s.nodes.Next(top).Load()
		if casFailpoint != nil && casFailpoint() {
			slot.Clear(0)
			wait.Wait()
			continue
		}
		if s.top.CompareAndSwap(top, next) {
			value := s.nodes.Value(top)
			slot.Clear(0)
			slot.Retire(uint64(top), s.nodes)
			s.length.Add(-1)
			return value, true
		}
		slot.Clear(0)
		wait.Wait()
	}
}

// Peek returns the value on top of the stack without removing it. The
// second return value is false when the stack is empty. The result is a
// snapshot: the top may change the instant Peek returns.
func (s *Stack[T]) Peek() (T, bool) {
	var zero T
	if s.disposed.Load() {
		panic(ErrDisposed)
	}
	slot := s.lease()
	defer s.unlease(slot)
	guard := slot.Guard(0)
	defer guard.Release()

	var wait backoff.Backoff
	for {
		top := s.top.Load()
		if top == arena.Nil {
			return zero, false
		}
		guard.Protect(uint64(top))
		if s.top.Load() != top {
			wait.Wait()
			continue
		}
		return s.nodes.Value(top), true
	}
}

// IsEmpty reports whether the stack is empty. The answer is best-effort and
// racy by nature.
func (s *Stack[T]) IsEmpty() bool {
	return s.top.Load() == arena.Nil
}

// Len returns the approximate number of values on the stack.
func (s *Stack[T]) Len() int64 {
	return s.length.Load()
}

// Registry returns the hazard registry backing the stack.
func (s *Stack[T]) Registry() *hazard.Registry {
	return s.registry
}

// Dispose drains every remaining node back to the arena and, when the stack
// owns its registry, closes it. Dispose requires that no operation is in
// flight and is terminal: any later operation panics with ErrDisposed.
func (s *Stack[T]) Dispose(ctx context.Context) error {
	if s.disposed.Swap(true) {
		return ErrDisposed
	}
	for node := s.top.Load(); node != arena.Nil; {
		next := s.nodes.Next(node).Load()
		s.nodes.Free(node)
		node = next
	}
	s.top.Store(arena.Nil)
	s.length.Store(0)
	if s.ownsRegistry {
		return s.registry.Close(ctx)
	}
	return nil
}

// lease takes a hazard slot for the duration of one operation. Slots are
// leased per call, so the stack has no per-goroutine registration step; when
// every slot is taken the operation backs off until one frees, since leases
// only span a single operation.
func (s *Stack[T]) lease() *hazard.Slot {
	var wait backoff.Backoff
	for {
		slot, err := s.registry.Register()
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

func (s *Stack[T]) unlease(slot *hazard.Slot) {
	_ = slot.Release()
}
