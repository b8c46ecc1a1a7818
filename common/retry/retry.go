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

// Package retry provides a generic retry engine driven by pluggable,
// per-operation retry schedules.
//
// A Factory produces a fresh Iterator for each logical operation, so a single
// configured schedule may be shared by concurrent operations without sharing
// mutable state.
package retry

import (
	"context"
	"time"

	"go.chromium.org/btlite/common/clock"
	"go.chromium.org/btlite/common/logging"
)

// Stop is a sentinel returned by Iterator.Next to indicate that no more
// attempts should be made.
const Stop time.Duration = -1

// Callback is invoked on each retryable error with the duration that will be
// waited before the next attempt.
type Callback func(error, time.Duration)

// LogCallback builds a Callback which logs a Warning with the opname, error
// and delay.
func LogCallback(ctx context.Context, opname string) Callback {
	return func(err error, delay time.Duration) {
		logging.Warningf(ctx, "%s encountered transient error; retrying in %s: %s", opname, delay, err)
	}
}

// Iterator describes a stateful retry schedule for a single operation.
//
// Iterator instances are owned by exactly one operation and may carry
// internal counters; they need not be goroutine-safe.
type Iterator interface {
	// Next returns the delay to wait before the next attempt, given the error
	// that the previous attempt produced, or Stop if no more attempts should
	// be made.
	Next(context.Context, error) time.Duration
}

// Factory is a function that produces an independent Iterator instance.
//
// Since each operation gets its own Iterator, the calls to the Factory may
// happen concurrently.
type Factory func(context.Context) Iterator

// Retry executes the supplied fn until it succeeds, until the Iterator
// produced by f returns Stop, or until the Context is canceled.
//
// If callback is not nil, it is invoked before each sleep with the attempt's
// error and the upcoming delay. Delays go through the Context's clock, so
// they are interruptible by cancellation.
//
// If f is nil, fn is invoked exactly once.
func Retry(ctx context.Context, f Factory, fn func() error, callback Callback) (err error) {
	var it Iterator
	if f != nil {
		it = f(ctx)
	}
	for {
		if err = fn(); err == nil || it == nil {
			return
		}

		delay := it.Next(ctx, err)
		if delay == Stop {
			return
		}
		if callback != nil {
			callback(err, delay)
		}
		if delay > 0 {
			if tr := clock.Sleep(ctx, delay); tr.Incomplete() {
				return tr.Err
			}
		}
	}
}
