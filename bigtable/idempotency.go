// Copyright 2025 The LUCI Authors.
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

package bigtable

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
)

// IdempotentMutationPolicy decides whether a single mutation is safe to
// reapply after a failure whose outcome is unknown.
//
// The verdict for an entry is computed once, when a batch is accepted, and
// cached for the life of the operation: policies may carry internal state,
// and recomputing mid-retry could produce inconsistent verdicts for the same
// entry across rounds.
type IdempotentMutationPolicy interface {
	// IsIdempotent reports whether reapplying m cannot change the outcome
	// beyond its first successful application.
	IsIdempotent(m *btpb.Mutation) bool
}

// DefaultIdempotentMutationPolicy returns the conservative default policy: a
// SetCell with a server-assigned timestamp is not idempotent (a retry may
// write a second cell), everything else is.
func DefaultIdempotentMutationPolicy() IdempotentMutationPolicy {
	return safeIdempotentMutationPolicy{}
}

// AlwaysRetryMutationPolicy returns a policy that treats every mutation as
// idempotent.
//
// Callers that can tolerate (or detect) duplicate application of
// server-timestamped cells use it to opt in to retrying everything.
func AlwaysRetryMutationPolicy() IdempotentMutationPolicy {
	return alwaysRetryMutationPolicy{}
}

type safeIdempotentMutationPolicy struct{}

func (safeIdempotentMutationPolicy) IsIdempotent(m *btpb.Mutation) bool {
	if sc := m.GetSetCell(); sc != nil && sc.TimestampMicros == int64(ServerTime) {
		return false
	}
	return true
}

type alwaysRetryMutationPolicy struct{}

func (alwaysRetryMutationPolicy) IsIdempotent(*btpb.Mutation) bool {
	return true
}

// allIdempotent reports whether every mutation in the list is idempotent
// under the policy: a request is only safe to retry as a whole if all of its
// parts are.
func allIdempotent(p IdempotentMutationPolicy, muts []*btpb.Mutation) bool {
	for _, m := range muts {
		if !p.IsIdempotent(m) {
			return false
		}
	}
	return true
}
