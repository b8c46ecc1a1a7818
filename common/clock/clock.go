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

// Package clock is an interface to system time, allowing tests to substitute
// a controllable clock via the Context.
package clock

import (
	"context"
	"time"
)

// Clock is an interface to system time.
//
// The standard implementation falls through to the "time" library. Another
// implementation, testclock.TestClock, simulates time for testing.
type Clock interface {
	// Now returns the current time (see time.Now).
	Now() time.Time

	// Sleep sleeps the current goroutine (see time.Sleep).
	//
	// Sleep returns a TimerResult with the time when it was awakened. If the
	// sleep terminated prematurely from cancellation, the TimerResult's
	// Incomplete() method will return true.
	Sleep(context.Context, time.Duration) TimerResult

	// NewTimer creates a new Timer instance bound to this Clock.
	//
	// If the supplied Context is canceled, the timer expires immediately.
	NewTimer(ctx context.Context) Timer
}

// TimerResult is the result of a timer operation.
//
// Time is the time when the result was generated. If the timer was terminated
// prematurely due to Context cancellation, Err is non-nil and holds the
// cancellation reason.
type TimerResult struct {
	time.Time

	// Err, if not nil, indicates that the timer did not finish naturally.
	Err error
}

// Incomplete returns true if the timer operation was canceled prematurely due
// to Context cancellation or deadline expiration.
func (tr TimerResult) Incomplete() bool {
	return tr.Err != nil
}

// Timer is a wrapper around the time.Timer structure.
//
// A Timer is instantiated from a Clock instance and armed via its Reset
// method.
type Timer interface {
	// GetC returns the timer's result channel.
	//
	// If the Timer is interrupted via Stop, its channel blocks indefinitely.
	GetC() <-chan TimerResult

	// Reset configures the timer to expire after the specified duration.
	//
	// If the timer was already armed, its previous state is cleared and Reset
	// returns true. The channel returned by GetC does not change across
	// Resets.
	Reset(d time.Duration) bool

	// Stop disarms the timer, rendering it inactive.
	//
	// Stop may be called on an inactive timer, in which case nothing happens.
	// If the timer was armed, it is stopped and Stop returns true.
	Stop() bool
}
