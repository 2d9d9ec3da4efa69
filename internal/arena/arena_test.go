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

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocAndValue(t *testing.T) {
	nodes := New[string](8)
	ref := nodes.Alloc("hello")
	require.NotEqual(t, Nil, ref)
	assert.Equal(t, "hello", nodes.Value(ref))
	assert.True(t, nodes.Valid(ref))
	assert.EqualValues(t, 1, nodes.Live())
}

func TestFreeBumpsGeneration(t *testing.T) {
	nodes := New[string](8)
	before := nodes.Alloc("first")
	index, _ := unpack(before)
	nodes.Free(before)
	assert.False(t, nodes.Valid(before))

	after := nodes.Alloc("second")
	recycled, _ := unpack(after)
	// the freed slot is recycled but the packed reference differs
	require.Equal(t, index, recycled)
	require.NotEqual(t, before, after)
	assert.Equal(t, "second", nodes.Value(after))
}

func TestFreeZeroesValue(t *testing.T) {
	nodes := New[string](8)
	ref := nodes.Alloc("poisoned")
	nodes.Free(ref)
	assert.Empty(t, nodes.Value(ref))
}

func TestDoubleFreePanics(t *testing.T) {
	nodes := New[int](8)
	ref := nodes.Alloc(1)
	nodes.Free(ref)
	require.Panics(t, func() { nodes.Free(ref) })
}

func TestStaleFreePanics(t *testing.T) {
	nodes := New[int](8)
	stale := nodes.Alloc(1)
	nodes.Free(stale)
	fresh := nodes.Alloc(2)
	require.NotEqual(t, stale, fresh)
	require.Panics(t, func() { nodes.Free(stale) })
}

func TestNilFreePanics(t *testing.T) {
	nodes := New[int](8)
	require.Panics(t, func() { nodes.Free(Nil) })
}

func TestSlabGrowth(t *testing.T) {
	nodes := New[int](4)
	assert.EqualValues(t, 4, nodes.Capacity())
	refs := make([]Ref, 0, 20)
	for i := 0; i < 20; i++ {
		refs = append(refs, nodes.Alloc(i))
	}
	assert.GreaterOrEqual(t, nodes.Capacity(), int64(20))
	assert.EqualValues(t, 20, nodes.Live())
	for i, ref := range refs {
		assert.Equal(t, i, nodes.Value(ref))
	}
}

func TestMinCapacityRounding(t *testing.T) {
	nodes := New[int](5)
	assert.EqualValues(t, 8, nodes.Capacity())
	nodes = New[int](0)
	assert.EqualValues(t, DefaultMinCapacity, nodes.Capacity())
}

func TestCellCompareAndSwap(t *testing.T) {
	nodes := New[int](8)
	first := nodes.Alloc(1)
	second := nodes.Alloc(2)
	cell := new(Cell)
	cell.Store(first)
	require.False(t, cell.CompareAndSwap(second, first))
	require.True(t, cell.CompareAndSwap(first, second))
	assert.Equal(t, second, cell.Load())
}

func TestConcurrentAllocFree(t *testing.T) {
	nodes := New[int](16)
	const workers = 8
	const rounds = 10_000

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				ref := nodes.Alloc(worker)
				if nodes.Value(ref) != worker {
					panic("value corrupted")
				}
				nodes.Free(ref)
			}
		}(w)
	}
	wg.Wait()
	assert.EqualValues(t, 0, nodes.Live())
}
