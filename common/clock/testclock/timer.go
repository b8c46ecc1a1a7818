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

package testclock

import (
	"context"
	"sync"
	"time"

	"go.chromium.org/btlite/common/clock"
)

// timer is a Timer implementation bound to a testClock.
type timer struct {
	ctx     context.Context
	clk     *testClock
	resultC chan clock.TimerResult

	mu   sync.Mutex
	wait *pendingWait // non-nil while armed
}

var _ clock.Timer = (*timer)(nil)

func (t *timer) GetC() <-chan clock.TimerResult {
	return t.resultC
}

func (t *timer) Reset(d time.Duration) bool {
	active := t.Stop()

	w := &pendingWait{
		threshold: t.clk.Now().Add(d),
		doneC:     make(chan struct{}),
	}
	w.fire = func(tr clock.TimerResult) { t.deliver(w, tr) }

	t.mu.Lock()
	t.wait = w
	t.mu.Unlock()

	t.clk.register(w)

	// Expire immediately if the governing Context is already (or becomes)
	// canceled before the clock reaches the threshold.
	go func() {
		select {
		case <-w.doneC:
		case <-t.ctx.Done():
			if t.clk.cancel(w) {
				t.deliver(w, clock.TimerResult{Time: t.clk.Now(), Err: t.ctx.Err()})
			}
		}
	}()

	t.clk.signalTimerSet(d, t)
	return active
}

func (t *timer) Stop() bool {
	t.mu.Lock()
	w := t.wait
	t.wait = nil
	t.mu.Unlock()

	if w == nil {
		return false
	}
	return t.clk.cancel(w)
}

// deliver sends the result for a specific arming, dropping results from
// waits that have since been stopped or superseded.
func (t *timer) deliver(w *pendingWait, tr clock.TimerResult) {
	t.mu.Lock()
	if t.wait != w {
		t.mu.Unlock()
		return
	}
	t.wait = nil
	t.mu.Unlock()

	select {
	case t.resultC <- tr:
	default:
	}
}
