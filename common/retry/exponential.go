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

package retry

import (
	"context"
	"math/rand"
	"time"
)

// ExponentialBackoff is an Iterator implementation that returns an
// exponentially-growing delay, bounded by the embedded Limited's attempt and
// elapsed-time ceilings.
type ExponentialBackoff struct {
	Limited

	// Multiplier is the delay growth factor between attempts. If < 1, a
	// default of 2 is used.
	Multiplier float64

	// MaxDelay is the maximum duration. If <= 0, no maximum is enforced.
	MaxDelay time.Duration

	// Jitter randomizes each delay within ±(Jitter * delay). It must be in
	// [0, 1); 0 disables jitter.
	Jitter float64
}

var _ Iterator = (*ExponentialBackoff)(nil)

// Next implements the Iterator interface.
func (b *ExponentialBackoff) Next(ctx context.Context, err error) time.Duration {
	// Get the base delay from the embedded Limited, observing its ceilings.
	delay := b.Limited.Next(ctx, err)
	if delay == Stop {
		return Stop
	}

	if b.MaxDelay > 0 && delay >= b.MaxDelay {
		delay = b.MaxDelay
	} else {
		// Grow the delay for the next round.
		growth := b.Multiplier
		if growth < 1 {
			growth = 2
		}
		b.Delay = time.Duration(float64(b.Delay) * growth)
	}

	if b.Jitter > 0 {
		spread := b.Jitter * float64(delay)
		delay += time.Duration((rand.Float64()*2 - 1) * spread)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}
