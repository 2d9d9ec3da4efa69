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

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRule struct {
	err error
}

func (r failingRule) Validate() error {
	return r.err
}

func TestChainHappyPath(t *testing.T) {
	err := New().
		AddAssertion(true, "should not fail").
		AddRule(failingRule{}).
		Validate()
	require.NoError(t, err)
}

func TestChainAllErrors(t *testing.T) {
	err := New(AllErrors()).
		AddAssertion(false, "first violation").
		AddRule(failingRule{err: errors.New("second violation")}).
		Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first violation")
	assert.Contains(t, err.Error(), "second violation")
}

func TestChainFailFast(t *testing.T) {
	err := New(FailFast()).
		AddAssertion(false, "first violation").
		AddAssertion(false, "second violation").
		Validate()
	require.Error(t, err)
	assert.Equal(t, "first violation", err.Error())
}

func TestChainReusableAfterValidate(t *testing.T) {
	chain := New().AddAssertion(false, "broken")
	require.Error(t, chain.Validate())
	// a second run reports the same single violation, not an accumulation
	require.EqualError(t, chain.Validate(), "broken")
}

func TestAssert(t *testing.T) {
	require.NoError(t, Assert(true, "ok").Validate())
	err := Assert(false, "broken").Validate()
	require.Error(t, err)
	assert.Equal(t, "broken", err.Error())
}
