// Copyright 2024 The LUCI Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testclock implements a Clock for testing: time advances only when
// the test says so, and armed timers fire deterministically.
package testclock

import (
	"context"
	"sync"
	"time"

	"go.chromium.org/btlite/common/clock"
)

// TestClock is a Clock interface with additional methods to instrument it.
type TestClock interface {
	clock.Clock

	// Set sets the test clock's time.
	Set(time.Time)

	// Add advances the test clock's time.
	Add(time.Duration)

	// SetTimerCallback is a goroutine-safe method to set an instance-wide
	// callback that is invoked whenever a timer is armed. This is useful for
	// synchronizing state when testing.
	SetTimerCallback(TimerCallback)
}

// TimerCallback is invoked when a timer has been armed.
type TimerCallback func(time.Duration, clock.Timer)

// testClock is a test-oriented implementation of the Clock interface.
//
// Time-based events trigger only when the clock is advanced past their
// threshold via Set or Add, or when their Context is canceled.
type testClock struct {
	mu sync.Mutex

	now           time.Time
	pending       map[*pendingWait]struct{}
	timerCallback TimerCallback
}

// pendingWait is one armed timer waiting for the clock to reach threshold.
type pendingWait struct {
	threshold time.Time
	fire      func(clock.TimerResult)
	doneC     chan struct{} // closed when the wait fires or is canceled
}

var _ TestClock = (*testClock)(nil)

// New returns a TestClock instance set at the specified time.
func New(now time.Time) TestClock {
	return &testClock{
		now:     now,
		pending: map[*pendingWait]struct{}{},
	}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Sleep(ctx context.Context, d time.Duration) clock.TimerResult {
	t := c.NewTimer(ctx)
	t.Reset(d)
	return <-t.GetC()
}

func (c *testClock) NewTimer(ctx context.Context) clock.Timer {
	return &timer{
		ctx:     ctx,
		clk:     c,
		resultC: make(chan clock.TimerResult, 1),
	}
}

func (c *testClock) Set(t time.Time) {
	c.advanceTo(t)
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	t := c.now.Add(d)
	c.mu.Unlock()
	c.advanceTo(t)
}

func (c *testClock) advanceTo(t time.Time) {
	c.mu.Lock()
	if t.Before(c.now) {
		c.mu.Unlock()
		panic("testclock: cannot go backwards in time")
	}
	c.now = t

	var due []*pendingWait
	for w := range c.pending {
		if !t.Before(w.threshold) {
			delete(c.pending, w)
			close(w.doneC)
			due = append(due, w)
		}
	}
	c.mu.Unlock()

	for _, w := range due {
		w.fire(clock.TimerResult{Time: t})
	}
}

// register arms a wait. If the threshold has already passed, the wait fires
// immediately and is not registered.
func (c *testClock) register(w *pendingWait) {
	c.mu.Lock()
	if !c.now.Before(w.threshold) {
		now := c.now
		close(w.doneC)
		c.mu.Unlock()
		w.fire(clock.TimerResult{Time: now})
		return
	}
	c.pending[w] = struct{}{}
	c.mu.Unlock()
}

// cancel removes a wait, returning true if it was still pending.
func (c *testClock) cancel(w *pendingWait) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[w]; !ok {
		return false
	}
	delete(c.pending, w)
	close(w.doneC)
	return true
}

func (c *testClock) SetTimerCallback(callback TimerCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timerCallback = callback
}

func (c *testClock) signalTimerSet(d time.Duration, t clock.Timer) {
	c.mu.Lock()
	callback := c.timerCallback
	c.mu.Unlock()

	if callback != nil {
		callback(d, t)
	}
}
