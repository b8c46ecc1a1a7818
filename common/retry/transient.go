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

	"go.chromium.org/btlite/common/errors"
)

// TransientOnly is an Iterator implementation that only retries errors that
// are marked as transient (see errors.IsTransient).
type TransientOnly struct {
	Iterator // the wrapped Iterator
}

var _ Iterator = (*TransientOnly)(nil)

// Next implements the Iterator interface.
func (i *TransientOnly) Next(ctx context.Context, err error) time.Duration {
	if !errors.IsTransient(err) {
		return Stop
	}
	return i.Iterator.Next(ctx, err)
}

// TransientOnlyFactory wraps a Factory so that its iterators only retry
// transient errors.
//
// If f is nil, nil is returned.
func TransientOnlyFactory(f Factory) Factory {
	if f == nil {
		return nil
	}
	return func(ctx context.Context) Iterator {
		return &TransientOnly{f(ctx)}
	}
}
