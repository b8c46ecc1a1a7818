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
	"time"

	"go.chromium.org/btlite/common/clock"
)

// Limited is an Iterator implementation that retries a bounded number of
// times with a constant delay, optionally also bounded by total elapsed
// wall-clock time.
//
// It is the "may we retry at all" half of a schedule; compose it with
// ExponentialBackoff for growing delays.
type Limited struct {
	Delay   time.Duration // constant delay between retries
	Retries int           // number of remaining retries; 0 means stop

	// MaxTotal is the maximum total elapsed time across all attempts. If
	// positive and exceeded, the iterator stops regardless of Retries.
	MaxTotal time.Duration

	startTime time.Time // time of the first Next call
}

var _ Iterator = (*Limited)(nil)

// Next implements the Iterator interface.
func (i *Limited) Next(ctx context.Context, _ error) time.Duration {
	if i.MaxTotal > 0 {
		now := clock.Now(ctx)
		if i.startTime.IsZero() {
			i.startTime = now
		} else if now.Sub(i.startTime) >= i.MaxTotal {
			return Stop
		}
	}

	if i.Retries <= 0 {
		return Stop
	}
	i.Retries--
	return i.Delay
}
