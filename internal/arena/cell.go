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

package arena

import "sync/atomic"

// Cell is an atomically updatable Ref slot. It is the single primitive all
// structural mutation goes through: every reference visible to another
// goroutine changes only via CompareAndSwap. Cell never allocates and never
// blocks.
type Cell struct {
	ref atomic.Uint64
}

// Load atomically reads the current reference.
func (c *Cell) Load() Ref {
	return Ref(c.ref.Load())
}

// CompareAndSwap atomically replaces the held reference with next if and
// only if it currently equals old, and reports whether the swap happened.
func (c *Cell) CompareAndSwap(old, next Ref) bool {
	return c.ref.CompareAndSwap(uint64(old), uint64(next))
}

// Store writes the reference unconditionally. It is only valid while the
// owning node is not yet reachable by other goroutines, i.e. during
// construction or while exclusively owned after unlinking.
func (c *Cell) Store(ref Ref) {
	c.ref.Store(uint64(ref))
}
