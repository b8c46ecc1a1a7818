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
	"context"

	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
)

// ApplyAsync is the asynchronous form of Apply. The callback receives the
// operation's final error once all retries are exhausted or the mutation
// succeeds.
//
// The callback runs on an internal goroutine; it must not block indefinitely.
func (t *Table) ApplyAsync(ctx context.Context, row string, m *Mutation, done func(error)) {
	go func() {
		done(t.Apply(ctx, row, m))
	}()
}

// BulkApplyAsync is the asynchronous form of BulkApply.
//
// It shares BulkApply's engine rather than reimplementing it, so the two
// forms resolve any given batch identically: same per-entry verdicts, same
// retry schedule consumption, same final failure list. The callback receives
// exactly what BulkApply would have returned.
//
// The callback runs on an internal goroutine; it must not block indefinitely.
func (t *Table) BulkApplyAsync(ctx context.Context, mut *BulkMutation, done func([]FailedMutation, error)) {
	if mut.Len() == 0 {
		go done(nil, nil)
		return
	}
	ctx = t.outgoing(ctx)
	e := newBulkEngine(ctx, t, mut, "BulkApplyAsync")
	go func() {
		done(e.run(ctx, t.c.data))
	}()
}

// CheckAndMutateRowAsync is the asynchronous form of CheckAndMutateRow.
//
// The callback runs on an internal goroutine; it must not block indefinitely.
func (t *Table) CheckAndMutateRowAsync(ctx context.Context, row string, predicate *btpb.RowFilter, trueMut, falseMut *Mutation, done func(bool, error)) {
	go func() {
		done(t.CheckAndMutateRow(ctx, row, predicate, trueMut, falseMut))
	}()
}
