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

package clock

import (
	"context"
	"sync"
	"time"
)

// systemTimer implements Timer on top of time.Timer, adding Context
// cancellation awareness.
type systemTimer struct {
	ctx     context.Context
	resultC chan TimerResult

	mu    sync.Mutex
	stopC chan struct{} // non-nil while the timer is armed
}

var _ Timer = (*systemTimer)(nil)

func newSystemTimer(ctx context.Context) *systemTimer {
	return &systemTimer{
		ctx:     ctx,
		resultC: make(chan TimerResult, 1),
	}
}

func (t *systemTimer) GetC() <-chan TimerResult {
	return t.resultC
}

func (t *systemTimer) Reset(d time.Duration) bool {
	active := t.Stop()

	t.mu.Lock()
	stopC := make(chan struct{})
	t.stopC = stopC
	t.mu.Unlock()

	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case now := <-timer.C:
			t.signal(stopC, TimerResult{Time: now})
		case <-t.ctx.Done():
			t.signal(stopC, TimerResult{Time: time.Now(), Err: t.ctx.Err()})
		case <-stopC:
		}
	}()
	return active
}

func (t *systemTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopC == nil {
		return false
	}
	close(t.stopC)
	t.stopC = nil
	return true
}

// signal delivers a result unless the timer was stopped or re-armed since the
// monitor goroutine observed stopC.
func (t *systemTimer) signal(stopC chan struct{}, tr TimerResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopC != stopC {
		return
	}
	t.stopC = nil
	select {
	case t.resultC <- tr:
	default:
	}
}
