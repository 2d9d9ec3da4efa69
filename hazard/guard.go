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

// Guard scopes the protection of a single hazard cell: Protect publishes on
// acquisition and Release un-publishes, so callers composing their own
// protected traversals can pair the two with defer instead of tracking cell
// indexes by hand.
//
//	guard := slot.Guard(0)
//	guard.Protect(ref)
//	defer guard.Release()
type Guard struct {
	slot *Slot
	cell int
}

// Guard binds a scoped guard to the given cell of the slot.
func (s *Slot) Guard(cell int) *Guard {
	return &Guard{slot: s, cell: cell}
}

// Protect publishes ref in the guarded cell, replacing any previous
// publication of the same guard.
func (g *Guard) Protect(ref uint64) {
	g.slot.Protect(g.cell, ref)
}

// Release un-publishes the guarded cell.
func (g *Guard) Release() {
	g.slot.Clear(g.cell)
}
