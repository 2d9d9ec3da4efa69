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

// Package ticker runs a recurring maintenance task on its own goroutine.
package ticker

import (
	"sync"
	"time"
)

// Ticker invokes a task at fixed intervals until stopped. It owns the
// goroutine the task runs on, so callers only pair Start with Stop and never
// manage stop channels themselves.
type Ticker struct {
	interval time.Duration
	task     func()

	mutex   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a ticker running task every interval once started.
func New(interval time.Duration, task func()) *Ticker {
	if interval <= 0 {
		panic("ticker: interval must be greater than zero")
	}
	if task == nil {
		panic("ticker: task must not be nil")
	}
	return &Ticker{
		interval: interval,
		task:     task,
	}
}

// Start launches the ticking goroutine. Starting an already running ticker
// is a no-op.
func (t *Ticker) Start() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})
	go t.run(t.stopCh, t.doneCh)
}

// Stop halts the ticking goroutine and waits for any in-flight task run to
// finish. Stopping an already stopped ticker is a no-op; the ticker can be
// started again afterwards.
func (t *Ticker) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.running {
		return
	}
	t.running = false
	close(t.stopCh)
	<-t.doneCh
}

// Running reports whether the ticking goroutine is active.
func (t *Ticker) Running() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.running
}

func (t *Ticker) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.task()
		case <-stopCh:
			return
		}
	}
}
