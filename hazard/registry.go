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

// Package hazard implements hazard-pointer based safe memory reclamation for
// the lock-free structures of this module.
//
// A Registry is a fixed-capacity table of hazard slots. A goroutine
// registers a slot, publishes the references it is about to dereference in
// the slot's cells, and retires the nodes it unlinks. Retired nodes are
// physically destroyed only after a scan proves no slot anywhere publishes
// their reference; nodes still protected are re-queued for a later scan, so
// the set of retired-but-unreclaimed nodes may grow transiently but shrinks
// under continued operation.
package hazard

import (
	"context"
	"math/bits"
	"sync"
	"time"

	gods "github.com/Workiva/go-datastructures/queue"
	goset "github.com/deckarep/golang-set/v2"
	"github.com/flowchartsman/retry"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"

	"github.com/tochemey/lockfree/internal/backoff"
	"github.com/tochemey/lockfree/internal/metric"
	"github.com/tochemey/lockfree/internal/ticker"
	"github.com/tochemey/lockfree/internal/validation"
	"github.com/tochemey/lockfree/log"
)

const (
	// DefaultCapacity is the default number of hazard slots.
	DefaultCapacity = 256
	// DefaultRetireThreshold is the default registry-wide pending retirement
	// count that triggers a scan.
	DefaultRetireThreshold = 64

	drainMaxAttempts = 10
	drainMinDelay    = 10 * time.Millisecond
	drainMaxDelay    = 100 * time.Millisecond
)

// Registry is a fixed-capacity, lock-free table of hazard slots plus the
// retirement machinery built on top of it. All methods are safe for
// concurrent use.
type Registry struct {
	name            string
	logger          log.Logger
	capacity        int
	threshold       int64
	janitorInterval time.Duration

	slots    []Slot
	freeHead atomic.Uint64

	// orphans buffers the retirement entries of released slots until a scan
	// adopts them; drainMu serializes its consumers and guards scratch.
	orphans *gods.RingBuffer
	drainMu sync.Mutex
	scratch Slot

	epoch            atomic.Uint64
	pending          atomic.Int64
	retired          atomic.Int64
	reclaimed        atomic.Int64
	scans            atomic.Int64
	active           atomic.Int64
	lastScanDuration atomic.Duration
	lastScanRatio    atomic.Float64

	closed  atomic.Bool
	janitor *ticker.Ticker

	metricsEnabled bool
	metrics        *metric.ReclaimerMetric
	registration   otelmetric.Registration
}

// NewRegistry creates a hazard-pointer registry with the given options. The
// slot table is allocated once here; growing it afterwards is not supported,
// so size the capacity for the peak number of concurrently participating
// goroutines.
func NewRegistry(opts ...Option) (*Registry, error) {
	registry := &Registry{
		name:            defaultName(),
		logger:          log.DefaultLogger,
		capacity:        DefaultCapacity,
		threshold:       DefaultRetireThreshold,
		janitorInterval: 0,
	}

	for _, opt := range opts {
		opt.Apply(registry)
	}

	if err := validation.New(validation.FailFast()).
		AddAssertion(registry.capacity > 0, "registry capacity must be greater than zero").
		AddAssertion(registry.threshold > 0, "retire threshold must be greater than zero").
		AddAssertion(registry.janitorInterval >= 0, "janitor interval must not be negative").
		Validate(); err != nil {
		return nil, err
	}

	registry.slots = make([]Slot, registry.capacity)
	for i := registry.capacity - 1; i >= 0; i-- {
		slot := &registry.slots[i]
		slot.registry = registry
		slot.index = i
		slot.released.Store(true)
		registry.pushFree(i)
	}
	registry.scratch.registry = registry
	registry.scratch.index = -1
	registry.orphans = gods.NewRingBuffer(orphanCapacity(registry.capacity, registry.threshold))

	if registry.metricsEnabled {
		if err := registry.registerMetrics(); err != nil {
			return nil, err
		}
	}

	if registry.janitorInterval > 0 {
		registry.janitor = ticker.New(registry.janitorInterval, registry.sweep)
		registry.janitor.Start()
	}

	registry.logger.Debugf("hazard registry=(%s) started: capacity=(%d) threshold=(%d)", registry.name, registry.capacity, registry.threshold)
	return registry, nil
}

// Register takes a free hazard slot for the calling goroutine. It must be
// called before any protected operation and the returned slot must be
// released when the goroutine permanently stops participating.
// It returns ErrCapacityExceeded when every slot is taken and
// ErrRegistryClosed after Close.
func (r *Registry) Register() (*Slot, error) {
	if r.closed.Load() {
		return nil, ErrRegistryClosed
	}
	index, ok := r.popFree()
	if !ok {
		return nil, ErrCapacityExceeded
	}
	slot := &r.slots[index]
	slot.released.Store(false)
	r.active.Inc()
	return slot, nil
}

// Name returns the registry name.
func (r *Registry) Name() string {
	return r.name
}

// Capacity returns the size of the slot table.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Logger returns the registry logger.
func (r *Registry) Logger() log.Logger {
	return r.logger
}

// Close stops the janitor, adopts every orphaned retirement entry and
// repeatedly scans until all pending retirements are reclaimed. It fails
// with ErrDrainTimeout when entries remain pending after the drain retries,
// typically because some slot was never released. Close is terminal: the
// registry accepts no registration afterwards.
func (r *Registry) Close(ctx context.Context) error {
	if r.closed.Swap(true) {
		return ErrRegistryClosed
	}

	r.logger.Infof("closing hazard registry=(%s)...", r.name)
	if r.janitor != nil {
		r.janitor.Stop()
	}
	if r.registration != nil {
		_ = r.registration.Unregister()
	}

	retrier := retry.NewRetrier(drainMaxAttempts, drainMinDelay, drainMaxDelay)
	err := retrier.RunContext(ctx, func(context.Context) error {
		r.sweep()
		if pending := r.pending.Load(); pending > 0 {
			return NewErrDrainTimeout(int(pending))
		}
		return nil
	})
	r.orphans.Dispose()
	if err != nil {
		r.logger.Warnf("hazard registry=(%s) closed with pending retirements: %v", r.name, err)
		return err
	}
	r.logger.Infof("hazard registry=(%s) successfully closed", r.name)
	return nil
}

// Stats returns a point-in-time snapshot of the registry counters.
func (r *Registry) Stats() Stats {
	return Stats{
		Capacity:             r.capacity,
		ActiveSlots:          r.active.Load(),
		Retired:              r.retired.Load(),
		Reclaimed:            r.reclaimed.Load(),
		Pending:              r.pending.Load(),
		Scans:                r.scans.Load(),
		LastScanDuration:     r.lastScanDuration.Load(),
		LastScanReclaimRatio: r.lastScanRatio.Load(),
	}
}

// release returns a slot to the free list. The slot's retirement list is
// parked on the orphan buffer as-is; the threshold, janitor and Close scans
// adopt and reclaim it later, so releasing never pays for a scan itself
// unless parking fails.
func (r *Registry) release(s *Slot) error {
	if s.released.Swap(true) {
		return ErrSlotReleased
	}
	s.ClearAll()
	if len(s.batch) > 0 {
		r.stash(s.batch)
		s.batch = nil
	}
	r.pushFree(s.index)
	r.active.Dec()
	return nil
}

// scan adopts orphaned entries when the orphan buffer is uncontended, then
// reclaims every entry of the slot's retirement list that no hazard cell
// protects. Entries still protected stay queued on the slot.
func (r *Registry) scan(s *Slot) {
	if r.drainMu.TryLock() {
		s.batch = r.drainLocked(s.batch)
		r.drainMu.Unlock()
	}
	s.batch = r.reclaimRecords(s.batch)
}

// sweep adopts all orphaned entries into the registry scratch slot and scans
// them. It is the reclamation path of the janitor and of Close.
func (r *Registry) sweep() {
	r.drainMu.Lock()
	defer r.drainMu.Unlock()
	records := r.drainLocked(r.scratch.batch)
	r.scratch.batch = nil
	records = r.reclaimRecords(records)
	r.scratch.batch = r.stashLocked(records)
}

// reclaimRecords frees every record whose reference is absent from the
// current union of published hazards and returns the survivors.
func (r *Registry) reclaimRecords(records []retired) []retired {
	if len(records) == 0 {
		return records
	}
	start := time.Now()
	hazards := r.snapshot()
	kept := records[:0]
	freed := 0
	for _, record := range records {
		if hazards.Contains(record.ref) {
			kept = append(kept, record)
			continue
		}
		record.reclaimer.Reclaim(record.ref)
		freed++
	}
	elapsed := time.Since(start)
	r.pending.Sub(int64(freed))
	r.reclaimed.Add(int64(freed))
	r.scans.Inc()
	r.lastScanDuration.Store(elapsed)
	r.lastScanRatio.Store(float64(freed) / float64(len(records)))
	if r.metrics != nil {
		r.metrics.ScanDuration().Record(context.Background(), elapsed.Milliseconds())
	}
	r.logger.Debugf("hazard registry=(%s) scan reclaimed=(%d/%d) in=(%v)", r.name, freed, len(records), elapsed)
	return kept
}

// snapshot collects the union of all currently published hazardous
// references. It only reads the slots' cells, never mutates them.
func (r *Registry) snapshot() goset.Set[uint64] {
	hazards := goset.NewThreadUnsafeSet[uint64]()
	for i := range r.slots {
		for c := range r.slots[i].cells {
			if ref := r.slots[i].cells[c].Load(); ref != 0 {
				hazards.Add(ref)
			}
		}
	}
	return hazards
}

// stash parks the given records on the orphan buffer. When the buffer is
// full the caller adopts its content, reclaims what it can and retries, so
// stash cannot deadlock with a full buffer; when the buffer is disposed
// (registry closing) the records are reclaimed inline once unprotected.
func (r *Registry) stash(records []retired) {
	var wait backoff.Backoff
	for len(records) > 0 {
		ok, err := r.orphans.Offer(records[0])
		switch {
		case err == nil && ok:
			records = records[1:]
			wait.Reset()
			continue
		case err == nil:
			// buffer full: adopt and reclaim, then retry
			r.drainMu.Lock()
			records = r.drainLocked(records)
			r.drainMu.Unlock()
			records = r.reclaimRecords(records)
		default:
			records = r.reclaimRecords(records)
		}
		wait.Wait()
	}
}

// stashLocked re-parks scan survivors while drainMu is held and returns the
// records that could not be parked. The buffer cannot be full here because
// the caller just drained it, so leftovers only occur once it is disposed
// during Close; those stay on the scratch slot for the next sweep.
func (r *Registry) stashLocked(records []retired) []retired {
	kept := records[:0]
	for _, record := range records {
		if _, err := r.orphans.Offer(record); err != nil {
			kept = append(kept, record)
		}
	}
	return kept
}

// drainLocked moves every orphaned record into the given list. The caller
// must hold drainMu.
func (r *Registry) drainLocked(into []retired) []retired {
	for r.orphans.Len() > 0 {
		item, err := r.orphans.Poll(time.Millisecond)
		if err != nil {
			break
		}
		into = append(into, item.(retired))
	}
	return into
}

// popFree pops a slot index off the registry free list. The packed head
// carries an operation counter so the CAS cannot suffer ABA across index
// reuse.
func (r *Registry) popFree() (int, bool) {
	for {
		head := r.freeHead.Load()
		indexPlusOne := uint32(head)
		if indexPlusOne == 0 {
			return 0, false
		}
		next := r.slots[indexPlusOne-1].nextFree.Load()
		updated := (head>>32+1)<<32 | uint64(next)
		if r.freeHead.CompareAndSwap(head, updated) {
			return int(indexPlusOne - 1), true
		}
	}
}

func (r *Registry) pushFree(index int) {
	for {
		head := r.freeHead.Load()
		r.slots[index].nextFree.Store(uint32(head))
		updated := (head>>32+1)<<32 | uint64(index+1)
		if r.freeHead.CompareAndSwap(head, updated) {
			return
		}
	}
}

func (r *Registry) registerMetrics() error {
	provider := metric.NewProvider()
	meter := provider.Meter()
	reclaimerMetric, err := metric.NewReclaimerMetric(meter)
	if err != nil {
		return err
	}
	registration, err := meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		observer.ObserveInt64(reclaimerMetric.RetiredCount(), r.retired.Load())
		observer.ObserveInt64(reclaimerMetric.ReclaimedCount(), r.reclaimed.Load())
		observer.ObserveInt64(reclaimerMetric.ScanCount(), r.scans.Load())
		observer.ObserveInt64(reclaimerMetric.PendingCount(), r.pending.Load())
		observer.ObserveInt64(reclaimerMetric.ActiveSlots(), r.active.Load())
		return nil
	},
		reclaimerMetric.RetiredCount(),
		reclaimerMetric.ReclaimedCount(),
		reclaimerMetric.ScanCount(),
		reclaimerMetric.PendingCount(),
		reclaimerMetric.ActiveSlots(),
	)
	if err != nil {
		return err
	}
	r.metrics = reclaimerMetric
	r.registration = registration
	return nil
}

// orphanCapacity sizes the orphan ring buffer: generous enough that filling
// it is the exception, rounded up to a power of two. The size is bounded on
// both ends; stash reclaims inline when the buffer does fill, so a large
// retire threshold must not translate into an outsized allocation.
func orphanCapacity(capacity int, threshold int64) uint64 {
	size := uint64(4*threshold) + uint64(8*capacity)
	if size < 1024 {
		size = 1024
	}
	if size > 1<<16 {
		size = 1 << 16
	}
	return 1 << uint(bits.Len64(size-1))
}
