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
	"io"
	"sort"
	"time"

	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"google.golang.org/grpc/codes"

	"go.chromium.org/btlite/common/clock"
	"go.chromium.org/btlite/common/errors"
	"go.chromium.org/btlite/common/retry"
	"go.chromium.org/btlite/grpc/grpcutil"
)

// retryableEntryCode reports whether a per-entry status code from the service
// marks the entry as safe to resend (provided the entry is idempotent).
//
// This is the service's documented retryable set for data-plane mutations;
// anything else is a definitive per-entry verdict.
func retryableEntryCode(code codes.Code) bool {
	switch code {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
		return true
	default:
		return false
	}
}

// errPendingMutations is the round error used for retry-policy decisions when
// the RPC itself succeeded but some entries came back with retryable
// statuses.
var errPendingMutations = errors.New("bulk mutation: some mutations were not applied")

// roundError converts the outcome of one bulk round into the error consulted
// by the retry schedule. Retryable outcomes are marked transient.
func roundError(callErr error) error {
	if callErr == nil {
		return errors.WrapTransient(errPendingMutations)
	}
	return grpcutil.WrapIfTransientOr(callErr, retryableUnaryCodes...)
}

// drainStatus is the terminal status applied to entries still pending when
// the retry schedule denies another round.
func drainStatus(callErr error) (codes.Code, string) {
	if callErr != nil {
		if code := grpcutil.Code(callErr); !retryableEntryCode(code) {
			return code, callErr.Error()
		}
	}
	return codes.DeadlineExceeded, "retry budget exhausted"
}

// entryAnnotation tracks one in-flight mutation across retry rounds.
type entryAnnotation struct {
	// originalIndex is the entry's position in the caller's BulkMutation.
	// Rounds shrink and reorder as entries resolve, but failures are always
	// reported against this index.
	originalIndex int

	// isIdempotent is computed once when the batch is accepted and never
	// recomputed (see IdempotentMutationPolicy).
	isIdempotent bool

	// hasResult is true once the current round's response stream has
	// addressed this entry.
	hasResult bool
}

// bulkMutator keeps the state of one Table.BulkApply operation: the current
// round's request and annotations, the entries queued for the next round,
// and the failures accumulated so far.
//
// It is not goroutine-safe; the engine guarantees at most one round in flight
// per operation, so reconciliation is never concurrent.
type bulkMutator struct {
	tableName  string
	appProfile string

	// Current round, valid between prepareRound and finishRound.
	req         *btpb.MutateRowsRequest
	annotations []entryAnnotation

	// Accumulators for the next round.
	pendingEntries     []*btpb.MutateRowsRequest_Entry
	pendingAnnotations []entryAnnotation

	failures []FailedMutation
}

func newBulkMutator(tableName, appProfile string, policy IdempotentMutationPolicy, mut *BulkMutation) *bulkMutator {
	m := &bulkMutator{
		tableName:          tableName,
		appProfile:         appProfile,
		pendingEntries:     make([]*btpb.MutateRowsRequest_Entry, 0, len(mut.entries)),
		pendingAnnotations: make([]entryAnnotation, 0, len(mut.entries)),
	}
	for i, e := range mut.entries {
		m.pendingEntries = append(m.pendingEntries, e)
		m.pendingAnnotations = append(m.pendingAnnotations, entryAnnotation{
			originalIndex: i,
			isIdempotent:  allIdempotent(policy, e.Mutations),
		})
	}
	return m
}

// hasPending reports whether any entries still await a terminal resolution.
func (m *bulkMutator) hasPending() bool {
	return len(m.pendingEntries) > 0
}

// prepareRound snapshots all pending entries into a fresh, compactly indexed
// round request. Round-local index i corresponds to annotations[i].
func (m *bulkMutator) prepareRound() *btpb.MutateRowsRequest {
	m.req = &btpb.MutateRowsRequest{
		TableName:    m.tableName,
		AppProfileId: m.appProfile,
		Entries:      m.pendingEntries,
	}
	m.annotations = m.pendingAnnotations
	m.pendingEntries = nil
	m.pendingAnnotations = nil
	for i := range m.annotations {
		m.annotations[i].hasResult = false
	}
	return m.req
}

// processResponse reconciles one response-stream message against the current
// round. It may be called repeatedly per round, as messages arrive.
//
// Per round-local index, an entry either resolves as a success (dropped),
// resolves as a terminal failure, or is requeued for the next round.
func (m *bulkMutator) processResponse(resp *btpb.MutateRowsResponse) {
	for _, r := range resp.Entries {
		idx := int(r.Index)
		if idx < 0 || idx >= len(m.annotations) || m.annotations[idx].hasResult {
			// Out-of-range or duplicate index: a malformed response. Ignoring
			// it leaves the entry unresolved, which finishRound handles.
			continue
		}
		a := &m.annotations[idx]
		a.hasResult = true

		code := codes.Code(r.GetStatus().GetCode())
		switch {
		case code == codes.OK:
			// Success; the entry is dropped from further rounds.
		case retryableEntryCode(code) && a.isIdempotent:
			m.requeue(idx)
		default:
			m.failures = append(m.failures, FailedMutation{
				Index:   a.originalIndex,
				Row:     string(m.req.Entries[idx].RowKey),
				Code:    code,
				Message: r.GetStatus().GetMessage(),
			})
		}
	}
}

// requeue moves the current round's entry at round-local index idx into the
// next round.
func (m *bulkMutator) requeue(idx int) {
	m.pendingEntries = append(m.pendingEntries, m.req.Entries[idx])
	m.pendingAnnotations = append(m.pendingAnnotations, m.annotations[idx])
}

// finishRound completes the current round, resolving entries the response
// stream never addressed.
//
// If the call itself failed, an unaddressed idempotent entry is requeued and
// a non-idempotent one resolves as an unknown-result permanent failure. If
// the call succeeded but the stream was short, the service contract was
// violated: the entry's fate is unknown either way, but nothing was reported
// against it, so it is requeued rather than assumed successful.
func (m *bulkMutator) finishRound(callErr error) {
	for i := range m.annotations {
		a := m.annotations[i]
		if a.hasResult {
			continue
		}
		switch {
		case callErr == nil || a.isIdempotent:
			m.requeue(i)
		default:
			m.failures = append(m.failures, FailedMutation{
				Index:   a.originalIndex,
				Row:     string(m.req.Entries[i].RowKey),
				Code:    codes.Internal,
				Message: "mutation result is unknown: " + callErr.Error(),
			})
		}
	}
	m.req = nil
	m.annotations = nil
}

// makeOneRequest executes exactly one round synchronously: prepare the
// request, run the streaming call, reconcile every received message, finish
// the round. It does not loop; retry and backoff across rounds belong to the
// engine driving it.
func (m *bulkMutator) makeOneRequest(ctx context.Context, client dataClient) error {
	req := m.prepareRound()
	stream, err := client.MutateRows(ctx, req)
	if err == nil {
		for {
			resp, rerr := stream.Recv()
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				err = rerr
				break
			}
			m.processResponse(resp)
		}
	}
	m.finishRound(err)
	return err
}

// drainPending forcibly resolves all pending entries as terminal failures
// with the supplied status. Used when the retry schedule denies another
// round: entries are never silently dropped.
func (m *bulkMutator) drainPending(code codes.Code, msg string) {
	for i, e := range m.pendingEntries {
		m.failures = append(m.failures, FailedMutation{
			Index:   m.pendingAnnotations[i].originalIndex,
			Row:     string(e.RowKey),
			Code:    code,
			Message: msg,
		})
	}
	m.pendingEntries = nil
	m.pendingAnnotations = nil
}

// extractFinalFailures returns the accumulated failures in original
// submission order. Valid only once no entries are pending.
func (m *bulkMutator) extractFinalFailures() []FailedMutation {
	sort.Slice(m.failures, func(i, j int) bool {
		return m.failures[i].Index < m.failures[j].Index
	})
	return m.failures
}

// bulkEngine is the retry-decision half shared by the synchronous and
// asynchronous bulk drivers: both must produce identical outcomes for the
// same sequence of round results.
type bulkEngine struct {
	m        *bulkMutator
	it       retry.Iterator
	logRetry retry.Callback
}

func newBulkEngine(ctx context.Context, t *Table, mut *BulkMutation, opname string) *bulkEngine {
	return &bulkEngine{
		m:        newBulkMutator(t.name, t.c.appProfile, t.idempotency, mut),
		it:       &retry.TransientOnly{Iterator: t.retryFactory(ctx)},
		logRetry: retry.LogCallback(ctx, opname),
	}
}

// next evaluates the retry decision after one round finished with callErr.
//
// done=true means the operation is complete: any entries still pending have
// been drained into terminal failures. Otherwise delay is how long to back
// off before the next round.
func (e *bulkEngine) next(ctx context.Context, callErr error) (delay time.Duration, done bool) {
	if !e.m.hasPending() {
		return 0, true
	}
	rerr := roundError(callErr)
	delay = e.it.Next(ctx, rerr)
	if delay == retry.Stop {
		e.m.drainPending(drainStatus(callErr))
		return 0, true
	}
	e.logRetry(rerr, delay)
	return delay, false
}

// backoff sleeps for delay through the context clock. On interruption the
// remaining entries are drained and the interruption error returned.
func (e *bulkEngine) backoff(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if tr := clock.Sleep(ctx, delay); tr.Incomplete() {
		e.m.drainPending(grpcutil.Code(tr.Err), "bulk mutation canceled during backoff: "+tr.Err.Error())
		return tr.Err
	}
	return nil
}

// run drives the whole operation: rounds, retry decisions and backoffs, until
// every entry has a terminal resolution. Both the synchronous and the
// asynchronous drivers call it, so their outcomes for a given sequence of
// round results are identical by construction.
//
// The returned error is the call-level error that ended the operation, or nil
// if the final round's RPC completed. A nil error with a non-empty failure
// list means individual entries failed even though the RPCs did not.
func (e *bulkEngine) run(ctx context.Context, client dataClient) ([]FailedMutation, error) {
	var lastErr error
	for {
		lastErr = e.m.makeOneRequest(ctx, client)
		delay, done := e.next(ctx, lastErr)
		if done {
			break
		}
		if err := e.backoff(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}
	if failures := e.m.extractFinalFailures(); len(failures) > 0 {
		return failures, lastErr
	}
	return nil, nil
}
