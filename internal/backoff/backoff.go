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

// Package backoff implements bounded exponential backoff for CAS retry
// loops. It eases cache-line contention under high goroutine counts without
// changing the lock-free contract: a backing-off goroutine only delays its
// own progress, never anyone else's.
package backoff

import "runtime"

const (
	// maxSpinAttempts is the number of attempts served with busy spinning
	// before the loop starts yielding the processor instead.
	maxSpinAttempts = 6
	// baseSpins is the spin count of the first failed attempt.
	baseSpins = 4
)

// Spins is the pure attempt-to-delay mapping: it returns the number of busy
// spins for the given retry attempt (1-based), or 0 when the attempt should
// yield the processor instead.
func Spins(attempt uint) uint {
	if attempt == 0 {
		return 0
	}
	if attempt > maxSpinAttempts {
		return 0
	}
	return baseSpins << (attempt - 1)
}

// Backoff tracks the retry attempts of a single CAS loop. The zero value is
// ready to use and must not be shared between goroutines.
type Backoff struct {
	attempt uint
}

// Wait delays the caller according to the current attempt count: short busy
// spins first, then a processor yield once spinning is exhausted.
func (b *Backoff) Wait() {
	b.attempt++
	spins := Spins(b.attempt)
	if spins == 0 {
		runtime.Gosched()
		return
	}
	for i := uint(0); i < spins; i++ {
		spinHint()
	}
}

// Reset clears the attempt count, typically after a successful CAS.
func (b *Backoff) Reset() {
	b.attempt = 0
}

//go:noinline
func spinHint() {}
