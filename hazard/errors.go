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
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned by Register when every hazard slot of
	// the registry is taken. This is a provisioning error, not a data race:
	// the registry stays correct, only the over-subscribed caller cannot
	// safely participate.
	ErrCapacityExceeded = errors.New("hazard slots capacity exceeded")

	// ErrRegistryClosed is returned when an operation is attempted on a
	// closed registry.
	ErrRegistryClosed = errors.New("hazard registry is closed")

	// ErrSlotReleased is returned when a slot is released more than once.
	ErrSlotReleased = errors.New("hazard slot already released")

	// ErrDrainTimeout is returned by Close when retired nodes could not all
	// be reclaimed before the drain retries were exhausted, typically
	// because some slots were never released.
	ErrDrainTimeout = errors.New("reclamation drain timed out")
)

// NewErrDrainTimeout returns ErrDrainTimeout carrying the number of retired
// nodes still pending reclamation.
func NewErrDrainTimeout(pending int) error {
	return fmt.Errorf("%w: (%d) retired nodes still pending", ErrDrainTimeout, pending)
}
