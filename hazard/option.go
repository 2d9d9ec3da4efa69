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
	"time"

	"github.com/google/uuid"

	"github.com/tochemey/lockfree/log"
)

// Option is the interface that applies a configuration option to the
// registry.
type Option interface {
	// Apply sets the Option value of a Registry.
	Apply(*Registry)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Registry)

func (f OptionFunc) Apply(r *Registry) {
	f(r)
}

// WithName sets the registry name used in logs and instrumentation.
func WithName(name string) Option {
	return OptionFunc(func(r *Registry) {
		r.name = name
	})
}

// WithCapacity sets the number of hazard slots provisioned at construction.
// The capacity bounds the number of concurrently participating goroutines.
func WithCapacity(capacity int) Option {
	return OptionFunc(func(r *Registry) {
		r.capacity = capacity
	})
}

// WithRetireThreshold sets the registry-wide pending retirement count that
// triggers an opportunistic scan. Lower values shorten reclamation latency,
// higher values amortize the scan cost over more retirements.
func WithRetireThreshold(threshold int) Option {
	return OptionFunc(func(r *Registry) {
		r.threshold = int64(threshold)
	})
}

// WithJanitorInterval enables the background janitor that periodically
// adopts orphaned retirement entries and scans them. A zero interval (the
// default) disables the janitor; reclamation then happens solely on the
// retire-threshold path and on Close.
func WithJanitorInterval(interval time.Duration) Option {
	return OptionFunc(func(r *Registry) {
		r.janitorInterval = interval
	})
}

// WithLogger sets the registry custom log
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(r *Registry) {
		r.logger = logger
	})
}

// WithMetrics enables the OpenTelemetry instrumentation of the registry
// using the globally configured meter provider.
func WithMetrics() Option {
	return OptionFunc(func(r *Registry) {
		r.metricsEnabled = true
	})
}

func defaultName() string {
	return "registry-" + uuid.NewString()
}
