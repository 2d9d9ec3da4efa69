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

package hazard

import (
	"fmt"

	"go.uber.org/atomic"
)

// Cells is the number of hazard cells per slot. The Michael–Scott queue
// needs two live protections per operation; the third cell is headroom for
// caller-composed traversals.
const Cells = 3

// Reclaimer physically destroys a retired node once a scan has proven no
// slot protects it. The node arena of each structure implements it.
type Reclaimer interface {
	Reclaim(ref uint64)
}

// retired is one entry of a retirement list: a node logically unlinked from
// its structure but not yet proven safe to destroy. The epoch is the
// registry-wide retirement counter at the time of retiring and only serves
// observability.
type retired struct {
	ref       uint64
	reclaimer Reclaimer
	epoch     uint64
}

// Slot is one hazard record of a registry. A slot is exclusively owned by
// the goroutine that registered it until released; only its published cells
// are read by other goroutines during scans.
//
// The protection discipline is acquire-before-use: publish a reference with
// Protect before dereferencing the node behind it, revalidate that the
// source cell still holds the reference, and keep it published for the whole
// dereference. A goroutine must never retire a reference it still has
// published.
type Slot struct {
	registry *Registry
	index    int
	cells    [Cells]atomic.Uint64
	nextFree atomic.Uint32
	released atomic.Bool
	batch    []retired
}

// Protect publishes ref as hazardous in the given cell. The publication is
// sequentially consistent: a scan started after Protect returns is
// guaranteed to observe it.
func (s *Slot) Protect(cell int, ref uint64) {
	s.cells[cell].Store(ref)
}

// Clear un-publishes the given cell.
func (s *Slot) Clear(cell int) {
	s.cells[cell].Store(0)
}

// ClearAll un-publishes every cell of the slot.
func (s *Slot) ClearAll() {
	for i := range s.cells {
		s.cells[i].Store(0)
	}
}

// Protected returns the reference currently published in the given cell, or
// zero when the cell is clear.
func (s *Slot) Protected(cell int) uint64 {
	return s.cells[cell].Load()
}

// Retire appends ref to the slot's retirement list. The node behind ref must
// already be unreachable from its structure and must not be published in any
// of the retiring slot's cells. Once the registry-wide pending count crosses
// the retire threshold the call performs a scan, reclaiming every retired
// reference no slot protects.
func (s *Slot) Retire(ref uint64, reclaimer Reclaimer) {
	if ref == 0 {
		panic("hazard: retire of nil reference")
	}
	for i := range s.cells {
		if s.cells[i].Load() == ref {
			panic(fmt.Sprintf("hazard: retire of reference=(%d) still protected by the retiring slot", ref))
		}
	}
	epoch := s.registry.epoch.Inc()
	s.batch = append(s.batch, retired{ref: ref, reclaimer: reclaimer, epoch: epoch})
	s.registry.retired.Inc()
	if s.registry.pending.Inc() >= s.registry.threshold {
		s.registry.scan(s)
	}
}

// Release clears the slot's cells and returns it to the registry. Pending
// retirement entries are handed to the registry orphan list so that later
// scans reclaim them; this is the hook hosts call when a participating
// goroutine permanently exits.
func (s *Slot) Release() error {
	return s.registry.release(s)
}
