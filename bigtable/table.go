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
	"net/url"
	"time"

	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"go.chromium.org/btlite/common/retry"
)

// Table is a handle to a single table, carrying the retry schedule and the
// idempotency policy used by its mutation operations.
//
// Table is cheap and safe to share between goroutines.
type Table struct {
	c            *Client
	name         string
	md           metadata.MD
	retryFactory retry.Factory
	idempotency  IdempotentMutationPolicy
}

// TableOptions customizes the policies of a Table handle.
type TableOptions struct {
	// Retry produces the retry schedule used by each mutation operation. Each
	// operation calls the factory once, so concurrent operations never share
	// iterator state. nil uses DefaultRetryFactory.
	Retry retry.Factory

	// Idempotency decides which mutations are safe to reapply after an
	// ambiguous failure. nil uses DefaultIdempotentMutationPolicy.
	Idempotency IdempotentMutationPolicy
}

// DefaultRetryFactory is the retry schedule used by tables opened without an
// explicit one: exponential backoff from 100ms capped at 10s, up to 10
// retries or 60s of elapsed time, with 20% jitter.
func DefaultRetryFactory(context.Context) retry.Iterator {
	return &retry.ExponentialBackoff{
		Limited: retry.Limited{
			Delay:    100 * time.Millisecond,
			Retries:  10,
			MaxTotal: time.Minute,
		},
		Multiplier: 2,
		MaxDelay:   10 * time.Second,
		Jitter:     0.2,
	}
}

// Open returns a handle to the named table with default policies.
func (c *Client) Open(table string) *Table {
	return c.OpenWithOptions(table, TableOptions{})
}

// OpenWithOptions returns a handle to the named table with the supplied
// policies.
func (c *Client) OpenWithOptions(table string, opts TableOptions) *Table {
	if opts.Retry == nil {
		opts.Retry = DefaultRetryFactory
	}
	if opts.Idempotency == nil {
		opts.Idempotency = DefaultIdempotentMutationPolicy()
	}
	name := c.fullTableName(table)
	params := "table_name=" + url.QueryEscape(name)
	if c.appProfile != "" {
		params += "&app_profile_id=" + url.QueryEscape(c.appProfile)
	}
	return &Table{
		c:            c,
		name:         name,
		md:           metadata.Pairs(resourcePrefixHeader, name, requestParamsHeader, params),
		retryFactory: opts.Retry,
		idempotency:  opts.Idempotency,
	}
}

const (
	resourcePrefixHeader = "google-cloud-resource-prefix"
	requestParamsHeader  = "x-goog-request-params"
)

// outgoing attaches the table's routing metadata to the call context.
func (t *Table) outgoing(ctx context.Context) context.Context {
	return metadata.NewOutgoingContext(ctx, t.md)
}

// Apply applies a mutation to a single row, atomically.
//
// If every operation in the mutation is idempotent under the table's policy,
// transient failures are retried under the table's schedule; otherwise the
// mutation is attempted exactly once.
func (t *Table) Apply(ctx context.Context, row string, m *Mutation) error {
	if len(m.ops) == 0 {
		return status.Error(codes.InvalidArgument, "mutation has no operations")
	}
	ctx = t.outgoing(ctx)
	req := &btpb.MutateRowRequest{
		TableName:    t.name,
		AppProfileId: t.c.appProfile,
		RowKey:       []byte(row),
		Mutations:    m.ops,
	}
	_, err := runIdempotent(ctx, t.retryFactory, allIdempotent(t.idempotency, m.ops), "Apply",
		func(ctx context.Context) (*btpb.MutateRowResponse, error) {
			return t.c.data.MutateRow(ctx, req)
		})
	return err
}

// BulkApply applies a batch of per-row mutations, retrying per entry.
//
// Entries the server acknowledged are never re-sent. Entries that failed with
// a retryable status, and are idempotent under the table's policy, are
// retried under the table's retry schedule; everything else resolves into a
// FailedMutation. The returned slice is nil if every entry succeeded, and is
// ordered by the entries' positions in mut otherwise.
//
// The returned error is the call-level error of the last round, if any. A nil
// error with a non-empty failure list means the RPCs themselves completed but
// individual entries did not.
func (t *Table) BulkApply(ctx context.Context, mut *BulkMutation) ([]FailedMutation, error) {
	if mut.Len() == 0 {
		return nil, nil
	}
	ctx = t.outgoing(ctx)
	return newBulkEngine(ctx, t, mut, "BulkApply").run(ctx, t.c.data)
}

// CheckAndMutateRow conditionally mutates a row: if any cell of the row
// matches predicate, trueMut is applied, otherwise falseMut. Either mutation
// may be nil, but not both.
//
// The reported bool is whether the predicate matched. The operation is never
// retried: the read half makes its outcome non-idempotent by construction.
func (t *Table) CheckAndMutateRow(ctx context.Context, row string, predicate *btpb.RowFilter, trueMut, falseMut *Mutation) (bool, error) {
	req := &btpb.CheckAndMutateRowRequest{
		TableName:       t.name,
		AppProfileId:    t.c.appProfile,
		RowKey:          []byte(row),
		PredicateFilter: predicate,
	}
	if trueMut != nil {
		req.TrueMutations = trueMut.ops
	}
	if falseMut != nil {
		req.FalseMutations = falseMut.ops
	}
	if len(req.TrueMutations) == 0 && len(req.FalseMutations) == 0 {
		return false, status.Error(codes.InvalidArgument, "conditional mutation has no operations")
	}
	res, err := t.c.data.CheckAndMutateRow(t.outgoing(ctx), req)
	if err != nil {
		return false, err
	}
	return res.PredicateMatched, nil
}

// ReadModifyWriteRow atomically transforms the latest cells of a row and
// returns the row's new contents for the transformed cells.
//
// The operation is never retried: appends and increments compound when
// reapplied.
func (t *Table) ReadModifyWriteRow(ctx context.Context, row string, rules ...ReadModifyWriteRule) (*btpb.Row, error) {
	if len(rules) == 0 {
		return nil, status.Error(codes.InvalidArgument, "read-modify-write has no rules")
	}
	req := &btpb.ReadModifyWriteRowRequest{
		TableName:    t.name,
		AppProfileId: t.c.appProfile,
		RowKey:       []byte(row),
		Rules:        make([]*btpb.ReadModifyWriteRule, len(rules)),
	}
	for i, r := range rules {
		req.Rules[i] = r.proto
	}
	res, err := t.c.data.ReadModifyWriteRow(t.outgoing(ctx), req)
	if err != nil {
		return nil, err
	}
	return res.Row, nil
}

// RowKeySample is one point of a table's row key distribution, as reported by
// SampleRowKeys.
type RowKeySample struct {
	// RowKey splits the table: all keys up to and including it fall in this
	// sample's shard. The final sample has an empty RowKey.
	RowKey string

	// OffsetBytes is the approximate byte offset of the end of the shard
	// within the table.
	OffsetBytes int64
}

// SampleRowKeys returns a sampling of the table's row keys, useful for
// sharding bulk operations.
//
// The operation is idempotent and retried under the table's schedule. A
// retried attempt starts over: samples from an interrupted stream are
// discarded, never mixed with the next attempt's.
func (t *Table) SampleRowKeys(ctx context.Context) ([]RowKeySample, error) {
	ctx = t.outgoing(ctx)
	req := &btpb.SampleRowKeysRequest{
		TableName:    t.name,
		AppProfileId: t.c.appProfile,
	}
	return runIdempotent(ctx, t.retryFactory, true, "SampleRowKeys",
		func(ctx context.Context) ([]RowKeySample, error) {
			stream, err := t.c.data.SampleRowKeys(ctx, req)
			if err != nil {
				return nil, err
			}
			var out []RowKeySample
			for {
				resp, err := stream.Recv()
				if err == io.EOF {
					return out, nil
				}
				if err != nil {
					return nil, err
				}
				out = append(out, RowKeySample{
					RowKey:      string(resp.RowKey),
					OffsetBytes: resp.OffsetBytes,
				})
			}
		})
}
