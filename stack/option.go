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
	"github.com/tochemey/lockfree/hazard"
	"github.com/tochemey/lockfree/internal/arena"
)

type config struct {
	registry        *hazard.Registry
	registryOptions []hazard.Option
	arenaCapacity   int
}

func newConfig(opts ...Option) *config {
	cfg := &config{arenaCapacity: arena.DefaultMinCapacity}
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	return cfg
}

// Option is the interface that applies a configuration option to the stack.
type Option interface {
	// Apply sets the Option value of the stack configuration.
	Apply(*config)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*config)

func (f OptionFunc) Apply(c *config) {
	f(c)
}

// WithRegistry makes the stack share the given hazard registry instead of
// owning one. The caller remains responsible for closing it.
func WithRegistry(registry *hazard.Registry) Option {
	return OptionFunc(func(c *config) {
		c.registry = registry
	})
}

// WithRegistryOptions forwards options to the registry the stack creates
// when no shared registry is supplied. They are ignored together with
// WithRegistry.
func WithRegistryOptions(opts ...hazard.Option) Option {
	return OptionFunc(func(c *config) {
		c.registryOptions = opts
	})
}

// WithArenaCapacity sets the initial node arena capacity. The arena still
// grows on demand; sizing it for the expected live node count avoids the
// growth steps.
func WithArenaCapacity(capacity int) Option {
	return OptionFunc(func(c *config) {
		c.arenaCapacity = capacity
	})
}
