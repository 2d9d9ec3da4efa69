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

// Package validation provides the constructor-time configuration checks
// used across the module.
package validation

import (
	"errors"

	"go.uber.org/multierr"
)

// Rule is a single configuration check.
type Rule interface {
	Validate() error
}

// assertion is a Rule whose outcome is fixed at construction time. It fits
// plain boolean conditions on option values, which is what the registry and
// structure constructors check.
type assertion struct {
	ok      bool
	message string
}

func (a assertion) Validate() error {
	if a.ok {
		return nil
	}
	return errors.New(a.message)
}

// Assert builds a Rule that fails with message when ok is false.
func Assert(ok bool, message string) Rule {
	return assertion{ok: ok, message: message}
}

// Chain evaluates rules in order and reports their violations, either all
// of them aggregated or only the first one depending on the chain options.
type Chain struct {
	failFast bool
	rules    []Rule
}

// ChainOption configures a chain at creation time.
type ChainOption func(*Chain)

// FailFast makes the chain stop at the first violated rule.
func FailFast() ChainOption {
	return func(c *Chain) { c.failFast = true }
}

// AllErrors makes the chain evaluate every rule and aggregate the
// violations. This is the default.
func AllErrors() ChainOption {
	return func(c *Chain) { c.failFast = false }
}

// New creates a validation chain.
func New(opts ...ChainOption) *Chain {
	chain := new(Chain)
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// AddRule appends a rule to the chain.
func (c *Chain) AddRule(rule Rule) *Chain {
	c.rules = append(c.rules, rule)
	return c
}

// AddAssertion appends a boolean rule to the chain.
func (c *Chain) AddAssertion(ok bool, message string) *Chain {
	return c.AddRule(Assert(ok, message))
}

// Validate runs the chain and returns the resulting violation(s), nil when
// every rule passes.
func (c *Chain) Validate() error {
	var violations error
	for _, rule := range c.rules {
		if err := rule.Validate(); err != nil {
			if c.failFast {
				return err
			}
			violations = multierr.Append(violations, err)
		}
	}
	return violations
}
