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

// Package arena provides a slab-backed node arena with tagged references.
//
// Nodes are addressed by a packed Ref carrying both the slot index and a
// generation tag. The tag is bumped every time a slot is freed, so a Ref held
// across a free/reuse cycle can never compare equal to the slot's current
// reference. Paired with hazard-pointer protection this closes both variants
// of the ABA problem: the hazard pointer keeps a protected slot from being
// recycled, and the tag makes a stale compare-and-swap fail even when
// protection was not in play.
//
// Slab memory is never returned to the runtime while the arena is alive, so
// loading a Cell of a recycled slot is always memory safe; it merely yields a
// value that no longer matches any live Ref.
package arena

import (
	"fmt"
	"math"
	"math/bits"
	"sync/atomic"
)

// maxSlabs bounds the number of geometrically growing slabs. With the
// default minimum capacity the slot index space (32 bits) is exhausted
// well before the slab table is.
const maxSlabs = 32

// DefaultMinCapacity is the size of the first slab.
const DefaultMinCapacity = 1 << 10

// Ref is a packed reference to an arena slot.
// The low 32 bits hold the slot index plus one (so that Nil is zero) and the
// high 32 bits hold the slot's generation tag at the time the Ref was minted.
type Ref uint64

// Nil is the zero Ref. It refers to no slot.
const Nil Ref = 0

// slot is one arena slot. The payload is written only while the slot is
// exclusively owned (during Alloc and Free); next is the structural link
// mutated through CAS; freeNext chains the slot into the arena free list
// while it is unallocated.
type slot[T any] struct {
	value    T
	next     Cell
	tag      atomic.Uint32
	freeNext atomic.Uint32
}

// Arena is a lock-free slab allocator of nodes for the lock-free structures.
// The zero value is not usable; use New.
type Arena[T any] struct {
	slabs    [maxSlabs]atomic.Pointer[[]slot[T]]
	minCap   uint32
	cursor   atomic.Uint32
	freeHead atomic.Uint64
	live     atomic.Int64
	capacity atomic.Int64
}

// New creates an arena whose first slab holds minCapacity slots. Each
// subsequent slab doubles the previous one. A non-positive or non power of
// two minCapacity is rounded up to the next power of two.
func New[T any](minCapacity int) *Arena[T] {
	if minCapacity <= 0 {
		minCapacity = DefaultMinCapacity
	}
	capacity := uint32(1) << uint(bits.Len(uint(minCapacity-1)))
	arena := &Arena[T]{minCap: capacity}
	arena.ensureSlab(0)
	return arena
}

// Alloc takes a free slot, stores the given value in it and returns a Ref
// carrying the slot's current generation tag. It never fails: when the free
// list is empty a new slot is carved out of the slabs, growing them when
// needed.
func (a *Arena[T]) Alloc(value T) Ref {
	if index, ok := a.popFree(); ok {
		sl := a.locate(index)
		sl.value = value
		sl.next.Store(Nil)
		a.live.Add(1)
		return pack(index, sl.tag.Load())
	}

	index := a.cursor.Add(1) - 1
	if index == math.MaxUint32 {
		panic("arena: slot index space exhausted")
	}
	a.ensureSlab(index)
	sl := a.locate(index)
	sl.value = value
	a.live.Add(1)
	return pack(index, sl.tag.Load())
}

// Free returns the slot behind ref to the free list. The payload is zeroed
// and the generation tag is bumped, which invalidates every outstanding Ref
// to the slot. Freeing through a stale Ref, or freeing the same Ref twice,
// is a contract violation and panics.
func (a *Arena[T]) Free(ref Ref) {
	if ref == Nil {
		panic("arena: free of nil reference")
	}
	index, tag := unpack(ref)
	sl := a.locate(index)
	if !sl.tag.CompareAndSwap(tag, tag+1) {
		panic(fmt.Sprintf("arena: free of stale or already freed reference (slot=%d tag=%d current=%d)", index, tag, sl.tag.Load()))
	}
	var zero T
	sl.value = zero
	sl.next.Store(Nil)
	a.live.Add(-1)
	a.pushFree(index, sl)
}

// Value returns the payload stored behind ref. The caller must either hold
// hazard protection on ref or own the node exclusively.
func (a *Arena[T]) Value(ref Ref) T {
	index, _ := unpack(ref)
	return a.locate(index).value
}

// Next returns the structural next cell of the node behind ref. Loading the
// cell is always memory safe; acting on the loaded value requires the same
// protection as Value.
func (a *Arena[T]) Next(ref Ref) *Cell {
	index, _ := unpack(ref)
	return &a.locate(index).next
}

// Valid reports whether ref still carries the current generation tag of its
// slot, i.e. the allocation it was minted for has not been freed.
func (a *Arena[T]) Valid(ref Ref) bool {
	if ref == Nil {
		return false
	}
	index, tag := unpack(ref)
	return a.locate(index).tag.Load() == tag
}

// Reclaim implements the hazard reclaimer contract by freeing the node
// behind the packed reference.
func (a *Arena[T]) Reclaim(ref uint64) {
	a.Free(Ref(ref))
}

// Live returns the number of currently allocated slots.
func (a *Arena[T]) Live() int64 {
	return a.live.Load()
}

// Capacity returns the total number of slots backed by allocated slabs.
func (a *Arena[T]) Capacity() int64 {
	return a.capacity.Load()
}

// locate resolves a slot index to its slab entry. Slab s holds
// minCap<<s slots, so the slab index is derived from the position of the
// highest bit of index/minCap+1.
func (a *Arena[T]) locate(index uint32) *slot[T] {
	quotient := uint64(index)/uint64(a.minCap) + 1
	slabIndex := uint32(bits.Len64(quotient)) - 1
	base := (uint64(a.minCap) << slabIndex) - uint64(a.minCap)
	slab := a.slabs[slabIndex].Load()
	return &(*slab)[uint64(index)-base]
}

// ensureSlab installs the slab covering index when it is missing. Concurrent
// installers race through CAS; losers drop their allocation.
func (a *Arena[T]) ensureSlab(index uint32) {
	quotient := uint64(index)/uint64(a.minCap) + 1
	slabIndex := uint32(bits.Len64(quotient)) - 1
	if a.slabs[slabIndex].Load() != nil {
		return
	}
	slab := make([]slot[T], uint64(a.minCap)<<slabIndex)
	if a.slabs[slabIndex].CompareAndSwap(nil, &slab) {
		a.capacity.Add(int64(len(slab)))
	}
}

// popFree pops a slot index from the free list. The list head packs an
// operation counter in its high 32 bits so that the pop CAS cannot suffer
// ABA even though slot indexes recycle.
func (a *Arena[T]) popFree() (uint32, bool) {
	for {
		head := a.freeHead.Load()
		indexPlusOne := uint32(head)
		if indexPlusOne == 0 {
			return 0, false
		}
		sl := a.locate(indexPlusOne - 1)
		next := sl.freeNext.Load()
		updated := (head>>32+1)<<32 | uint64(next)
		if a.freeHead.CompareAndSwap(head, updated) {
			return indexPlusOne - 1, true
		}
	}
}

func (a *Arena[T]) pushFree(index uint32, sl *slot[T]) {
	for {
		head := a.freeHead.Load()
		sl.freeNext.Store(uint32(head))
		updated := (head>>32+1)<<32 | uint64(index+1)
		if a.freeHead.CompareAndSwap(head, updated) {
			return
		}
	}
}

func pack(index uint32, tag uint32) Ref {
	return Ref(uint64(tag)<<32 | uint64(index+1))
}

func unpack(ref Ref) (index uint32, tag uint32) {
	return uint32(ref) - 1, uint32(ref >> 32)
}
