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
)

// Default is a Factory that returns a new instance of the default iterator
// configuration: exponential backoff starting at 200ms, doubling, capped at
// 10s, for at most 10 retries.
func Default(context.Context) Iterator {
	return &ExponentialBackoff{
		Limited: Limited{
			Delay:   200 * time.Millisecond,
			Retries: 10,
		},
		MaxDelay:   10 * time.Second,
		Multiplier: 2,
	}
}
