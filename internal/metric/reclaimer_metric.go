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

package metric

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// ReclaimerMetric defines the hazard registry instrumentation
type ReclaimerMetric struct {
	// Specifies the total number of retired nodes
	retiredCount metric.Int64ObservableCounter
	// Specifies the total number of reclaimed nodes
	reclaimedCount metric.Int64ObservableCounter
	// Specifies the total number of reclamation scans
	scanCount metric.Int64ObservableCounter
	// Specifies the number of retired nodes awaiting reclamation
	pendingCount metric.Int64ObservableGauge
	// Specifies the number of currently registered hazard slots
	activeSlots metric.Int64ObservableGauge
	// Specifies the duration of reclamation scans
	// This is expressed in milliseconds
	scanDuration metric.Int64Histogram
}

// NewReclaimerMetric creates an instance of ReclaimerMetric
func NewReclaimerMetric(meter metric.Meter) (*ReclaimerMetric, error) {
	reclaimerMetric := new(ReclaimerMetric)
	var err error
	if reclaimerMetric.retiredCount, err = meter.Int64ObservableCounter(
		"hazard_retired_count",
		metric.WithDescription("Total number of retired nodes"),
	); err != nil {
		return nil, fmt.Errorf("failed to create retiredCount instrument, %w", err)
	}
	if reclaimerMetric.reclaimedCount, err = meter.Int64ObservableCounter(
		"hazard_reclaimed_count",
		metric.WithDescription("Total number of reclaimed nodes"),
	); err != nil {
		return nil, fmt.Errorf("failed to create reclaimedCount instrument, %w", err)
	}
	if reclaimerMetric.scanCount, err = meter.Int64ObservableCounter(
		"hazard_scan_count",
		metric.WithDescription("Total number of reclamation scans"),
	); err != nil {
		return nil, fmt.Errorf("failed to create scanCount instrument, %w", err)
	}
	if reclaimerMetric.pendingCount, err = meter.Int64ObservableGauge(
		"hazard_pending_count",
		metric.WithDescription("Number of retired nodes awaiting reclamation"),
	); err != nil {
		return nil, fmt.Errorf("failed to create pendingCount instrument, %w", err)
	}
	if reclaimerMetric.activeSlots, err = meter.Int64ObservableGauge(
		"hazard_active_slots",
		metric.WithDescription("Number of currently registered hazard slots"),
	); err != nil {
		return nil, fmt.Errorf("failed to create activeSlots instrument, %w", err)
	}
	if reclaimerMetric.scanDuration, err = meter.Int64Histogram(
		"hazard_scan_duration",
		metric.WithDescription("The latency of reclamation scans in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create scanDuration instrument, %w", err)
	}
	return reclaimerMetric, nil
}

// RetiredCount returns the total number of retired nodes
func (x *ReclaimerMetric) RetiredCount() metric.Int64ObservableCounter {
	return x.retiredCount
}

// ReclaimedCount returns the total number of reclaimed nodes
func (x *ReclaimerMetric) ReclaimedCount() metric.Int64ObservableCounter {
	return x.reclaimedCount
}

// ScanCount returns the total number of reclamation scans
func (x *ReclaimerMetric) ScanCount() metric.Int64ObservableCounter {
	return x.scanCount
}

// PendingCount returns the number of retired nodes awaiting reclamation
func (x *ReclaimerMetric) PendingCount() metric.Int64ObservableGauge {
	return x.pendingCount
}

// ActiveSlots returns the number of currently registered hazard slots
func (x *ReclaimerMetric) ActiveSlots() metric.Int64ObservableGauge {
	return x.activeSlots
}

// ScanDuration returns the scan duration histogram
func (x *ReclaimerMetric) ScanDuration() metric.Int64Histogram {
	return x.scanDuration
}
