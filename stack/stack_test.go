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

package stack

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/lockfree/hazard"
	"github.com/tochemey/lockfree/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStack(t *testing.T, opts ...hazard.Option) *Stack[int] {
	t.Helper()
	opts = append([]hazard.Option{hazard.WithLogger(log.DiscardLogger)}, opts...)
	stack, err := New[int](WithRegistryOptions(opts...))
	require.NoError(t, err)
	return stack
}

func TestLIFOOrdering(t *testing.T) {
	stack := newTestStack(t)
	stack.Push(1)
	stack.Push(2)
	stack.Push(3)
	assert.EqualValues(t, 3, stack.Len())

	for _, expected := range []int{3, 2, 1} {
		value, ok := stack.Pop()
		require.True(t, ok)
		assert.Equal(t, expected, value)
	}
	assert.True(t, stack.IsEmpty())
	require.NoError(t, stack.Dispose(context.TODO()))
}

func TestPopEmpty(t *testing.T) {
	stack := newTestStack(t)
	value, ok := stack.Pop()
	require.False(t, ok)
	assert.Zero(t, value)
	require.NoError(t, stack.Dispose(context.TODO()))
}

func TestPeek(t *testing.T) {
	stack := newTestStack(t)
	_, ok := stack.Peek()
	require.False(t, ok)

	stack.Push(7)
	stack.Push(9)
	value, ok := stack.Peek()
	require.True(t, ok)
	assert.Equal(t, 9, value)
	// peeking does not consume
	assert.EqualValues(t, 2, stack.Len())
	require.NoError(t, stack.Dispose(context.TODO()))
}

func TestNoLostUpdates(t *testing.T) {
	stack := newTestStack(t)
	const producers = 8
	const perProducer = 5_000

	var group errgroup.Group
	for p := 0; p < producers; p++ {
		producer := p
		group.Go(func() error {
			for i := 0; i < perProducer; i++ {
				stack.Push(producer*perProducer + i)
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())

	const consumers = 4
	var mu sync.Mutex
	collected := make([]int, 0, producers*perProducer)
	for c := 0; c < consumers; c++ {
		group.Go(func() error {
			local := make([]int, 0, perProducer)
			for {
				value, ok := stack.Pop()
				if !ok {
					break
				}
				local = append(local, value)
			}
			mu.Lock()
			collected = append(collected, local...)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, group.Wait())

	require.Len(t, collected, producers*perProducer)
	sort.Ints(collected)
	for i, value := range collected {
		require.Equal(t, i, value)
	}
	require.NoError(t, stack.Dispose(context.TODO()))
}

func TestMixedStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}
	// a tiny retire threshold maximizes node recycling under contention;
	// the arena panics on any stale or double free a reclamation bug
	// would cause
	stack := newTestStack(t, hazard.WithRetireThreshold(4))
	const workers = 8
	const rounds = 50_000

	var group errgroup.Group
	for w := 0; w < workers; w++ {
		worker := w
		group.Go(func() error {
			for i := 0; i < rounds; i++ {
				if i%2 == 0 {
					stack.Push(worker)
				} else {
					stack.Pop()
				}
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())

	for {
		if _, ok := stack.Pop(); !ok {
			break
		}
	}
	require.NoError(t, stack.Dispose(context.TODO()))
	// every retired node was reclaimed during the drain
	assert.Zero(t, stack.nodes.Live())
}

func TestRetireThresholdAmortizesScans(t *testing.T) {
	stack := newTestStack(t, hazard.WithRetireThreshold(1_000_000))
	const ops = 100
	for i := 0; i < ops; i++ {
		stack.Push(i)
	}
	for i := 0; i < ops; i++ {
		_, ok := stack.Pop()
		require.True(t, ok)
	}
	// an unreached threshold means no pop paid for a reclamation scan
	assert.Zero(t, stack.Registry().Stats().Scans)
	assert.EqualValues(t, ops, stack.Registry().Stats().Pending)
	require.NoError(t, stack.Dispose(context.TODO()))
	assert.Zero(t, stack.nodes.Live())
}

func TestInjectedCASFailure(t *testing.T) {
	stack := newTestStack(t)
	var toggle bool
	casFailpoint = func() bool {
		toggle = !toggle
		return toggle
	}
	defer func() { casFailpoint = nil }()

	stack.Push(1)
	stack.Push(2)
	stack.Push(3)
	for _, expected := range []int{3, 2, 1} {
		value, ok := stack.Pop()
		require.True(t, ok)
		assert.Equal(t, expected, value)
	}
	casFailpoint = nil
	require.NoError(t, stack.Dispose(context.TODO()))
}

func TestSharedRegistry(t *testing.T) {
	registry, err := hazard.NewRegistry(hazard.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	stack, err := New[int](WithRegistry(registry))
	require.NoError(t, err)

	stack.Push(1)
	value, ok := stack.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, value)
	assert.Same(t, registry, stack.Registry())

	// disposing a stack with a shared registry leaves the registry open
	require.NoError(t, stack.Dispose(context.TODO()))
	slot, err := registry.Register()
	require.NoError(t, err)
	require.NoError(t, slot.Release())
	require.NoError(t, registry.Close(context.TODO()))
}

func TestDispose(t *testing.T) {
	stack := newTestStack(t)
	stack.Push(1)
	stack.Push(2)
	require.NoError(t, stack.Dispose(context.TODO()))
	assert.Zero(t, stack.nodes.Live())
	require.ErrorIs(t, stack.Dispose(context.TODO()), ErrDisposed)
	require.Panics(t, func() { stack.Push(3) })
	require.Panics(t, func() { stack.Pop() })
}

func TestArenaCapacityOption(t *testing.T) {
	stack, err := New[int](
		WithArenaCapacity(32),
		WithRegistryOptions(hazard.WithLogger(log.DiscardLogger)))
	require.NoError(t, err)
	assert.EqualValues(t, 32, stack.nodes.Capacity())
	require.NoError(t, stack.Dispose(context.TODO()))
}

func BenchmarkPushPop(b *testing.B) {
	stack, err := New[int](WithRegistryOptions(hazard.WithLogger(log.DiscardLogger)))
	if err != nil {
		b.Fatal(err)
	}
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			stack.Push(1)
			stack.Pop()
		}
	})
}
