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

import "time"

// Stats is a point-in-time snapshot of the registry counters. The values
// are individually consistent but not taken atomically as a group.
type Stats struct {
	// Capacity is the size of the slot table.
	Capacity int
	// ActiveSlots is the number of currently registered slots.
	ActiveSlots int64
	// Retired is the total number of retirements since construction.
	Retired int64
	// Reclaimed is the total number of reclaimed nodes since construction.
	Reclaimed int64
	// Pending is the number of retired nodes not yet reclaimed.
	Pending int64
	// Scans is the total number of reclamation scans since construction.
	Scans int64
	// LastScanDuration is the wall time of the most recent scan.
	LastScanDuration time.Duration
	// LastScanReclaimRatio is the fraction of scanned entries the most
	// recent scan managed to reclaim.
	LastScanReclaimRatio float64
}
