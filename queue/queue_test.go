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

package queue

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

func newTestQueue(t *testing.T, opts ...hazard.Option) *Queue[int] {
	t.Helper()
	opts = append([]hazard.Option{hazard.WithLogger(log.DiscardLogger)}, opts...)
	queue, err := New[int](WithRegistryOptions(opts...))
	require.NoError(t, err)
	return queue
}

func TestFIFOOrdering(t *testing.T) {
	queue := newTestQueue(t)
	queue.Enqueue(1)
	queue.Enqueue(2)
	queue.Enqueue(3)
	assert.EqualValues(t, 3, queue.Len())

	for _, expected := range []int{1, 2, 3} {
		value, ok := queue.Dequeue()
		require.True(t, ok)
		assert.Equal(t, expected, value)
	}
	assert.True(t, queue.IsEmpty())
	require.NoError(t, queue.Dispose(context.TODO()))
}

func TestDequeueEmpty(t *testing.T) {
	queue := newTestQueue(t)
	value, ok := queue.Dequeue()
	require.False(t, ok)
	assert.Zero(t, value)
	require.NoError(t, queue.Dispose(context.TODO()))
}

func TestPeek(t *testing.T) {
	queue := newTestQueue(t)
	_, ok := queue.Peek()
	require.False(t, ok)

	queue.Enqueue(7)
	queue.Enqueue(9)
	value, ok := queue.Peek()
	require.True(t, ok)
	assert.Equal(t, 7, value)
	// peeking does not consume
	assert.EqualValues(t, 2, queue.Len())
	require.NoError(t, queue.Dispose(context.TODO()))
}

func TestSingleProducerSingleConsumerOrder(t *testing.T) {
	queue := newTestQueue(t)
	const count = 10_000

	var group errgroup.Group
	group.Go(func() error {
		for i := 0; i < count; i++ {
			queue.Enqueue(i)
		}
		return nil
	})

	received := make([]int, 0, count)
	group.Go(func() error {
		for len(received) < count {
			if value, ok := queue.Dequeue(); ok {
				received = append(received, value)
			}
		}
		return nil
	})
	require.NoError(t, group.Wait())

	// FIFO: a single producer's values arrive in insertion order
	require.Len(t, received, count)
	for i, value := range received {
		require.Equal(t, i, value)
	}
	require.NoError(t, queue.Dispose(context.TODO()))
}

func TestNoLostUpdates(t *testing.T) {
	queue := newTestQueue(t)
	const producers = 8
	const perProducer = 5_000

	var group errgroup.Group
	for p := 0; p < producers; p++ {
		producer := p
		group.Go(func() error {
			for i := 0; i < perProducer; i++ {
				queue.Enqueue(producer*perProducer + i)
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
				value, ok := queue.Dequeue()
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
	require.NoError(t, queue.Dispose(context.TODO()))
}

func TestMixedStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}
	// a tiny retire threshold maximizes node recycling under contention;
	// the arena panics on any stale or double free a reclamation bug
	// would cause
	queue := newTestQueue(t, hazard.WithRetireThreshold(4))
	const workers = 8
	const rounds = 50_000

	var group errgroup.Group
	for w := 0; w < workers; w++ {
		worker := w
		group.Go(func() error {
			for i := 0; i < rounds; i++ {
				if i%2 == 0 {
					queue.Enqueue(worker)
				} else {
					queue.Dequeue()
				}
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())

	for {
		if _, ok := queue.Dequeue(); !ok {
			break
		}
	}
	require.NoError(t, queue.Dispose(context.TODO()))
	// every retired node, the dummy included, was reclaimed
	assert.Zero(t, queue.nodes.Live())
}

func TestRetireThresholdAmortizesScans(t *testing.T) {
	queue := newTestQueue(t, hazard.WithRetireThreshold(1_000_000))
	const ops = 100
	for i := 0; i < ops; i++ {
		queue.Enqueue(i)
	}
	for i := 0; i < ops; i++ {
		_, ok := queue.Dequeue()
		require.True(t, ok)
	}
	// an unreached threshold means no dequeue paid for a reclamation scan
	assert.Zero(t, queue.Registry().Stats().Scans)
	assert.EqualValues(t, ops, queue.Registry().Stats().Pending)
	require.NoError(t, queue.Dispose(context.TODO()))
	assert.Zero(t, queue.nodes.Live())
}

func TestInjectedCASFailure(t *testing.T) {
	queue := newTestQueue(t)
	var toggle bool
	casFailpoint = func() bool {
		toggle = !toggle
		return toggle
	}
	defer func() { casFailpoint = nil }()

	queue.Enqueue(1)
	queue.Enqueue(2)
	queue.Enqueue(3)
	for _, expected := range []int{1, 2, 3} {
		value, ok := queue.Dequeue()
		require.True(t, ok)
		assert.Equal(t, expected, value)
	}
	casFailpoint = nil
	require.NoError(t, queue.Dispose(context.TODO()))
}

func TestSharedRegistry(t *testing.T) {
	registry, err := hazard.NewRegistry(hazard.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	queue, err := New[int](WithRegistry(registry))
	require.NoError(t, err)

	queue.Enqueue(1)
	value, ok := queue.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 1, value)
	assert.Same(t, registry, queue.Registry())

	// disposing a queue with a shared registry leaves the registry open
	require.NoError(t, queue.Dispose(context.TODO()))
	slot, err := registry.Register()
	require.NoError(t, err)
	require.NoError(t, slot.Release())
	require.NoError(t, registry.Close(context.TODO()))
}

func TestDispose(t *testing.T) {
	queue := newTestQueue(t)
	queue.Enqueue(1)
	queue.Enqueue(2)
	require.NoError(t, queue.Dispose(context.TODO()))
	assert.Zero(t, queue.nodes.Live())
	require.ErrorIs(t, queue.Dispose(context.TODO()), ErrDisposed)
	require.Panics(t, func() { queue.Enqueue(3) })
	require.Panics(t, func() { queue.Dequeue() })
}

func BenchmarkEnqueueDequeue(b *testing.B) {
	queue, err := New[int](WithRegistryOptions(hazard.WithLogger(log.DiscardLogger)))
	if err != nil {
		b.Fatal(err)
	}
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			queue.Enqueue(1)
			queue.Dequeue()
		}
	})
}
