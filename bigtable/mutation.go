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
	"fmt"
	"time"

	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"google.golang.org/grpc/codes"
)

// Timestamp is a cell timestamp expressed in microseconds since the Unix
// epoch.
//
// The service stores timestamps at millisecond granularity; timestamps that
// are not multiples of 1000 are rejected by production instances.
type Timestamp int64

// ServerTime is a sentinel Timestamp requesting that the server assign the
// cell timestamp at apply time.
//
// Mutations carrying ServerTime are not idempotent: reapplying one after an
// ambiguous failure may create a second cell. See IdempotentMutationPolicy.
const ServerTime Timestamp = -1

// Time converts a time.Time into a Timestamp, truncated to millisecond
// granularity.
func Time(t time.Time) Timestamp {
	return Timestamp(t.UnixMicro() / 1000 * 1000)
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Time(time.Now())
}

// Time converts a Timestamp into a time.Time.
func (ts Timestamp) Time() time.Time {
	return time.UnixMicro(int64(ts))
}

// Mutation represents a set of changes to a single row of a table.
//
// Mutations within a row are applied in order and atomically.
type Mutation struct {
	ops []*btpb.Mutation
}

// NewMutation returns a new mutation with no operations.
func NewMutation() *Mutation {
	return &Mutation{}
}

// Set sets a cell's value in the specified family and column, at the given
// timestamp.
//
// Use ServerTime as the timestamp to let the server assign one, at the cost
// of the mutation no longer being idempotent.
func (m *Mutation) Set(family, column string, ts Timestamp, value []byte) {
	m.ops = append(m.ops, &btpb.Mutation{Mutation: &btpb.Mutation_SetCell_{SetCell: &btpb.Mutation_SetCell{
		FamilyName:      family,
		ColumnQualifier: []byte(column),
		TimestampMicros: int64(ts),
		Value:           value,
	}}})
}

// DeleteCellsInColumn deletes all cells in the given family and column.
func (m *Mutation) DeleteCellsInColumn(family, column string) {
	m.ops = append(m.ops, &btpb.Mutation{Mutation: &btpb.Mutation_DeleteFromColumn_{DeleteFromColumn: &btpb.Mutation_DeleteFromColumn{
		FamilyName:      family,
		ColumnQualifier: []byte(column),
	}}})
}

// DeleteTimestampRange deletes cells in the given family and column whose
// timestamp is within the half-open range [start, end). An end value of zero
// means "through the latest cell".
func (m *Mutation) DeleteTimestampRange(family, column string, start, end Timestamp) {
	m.ops = append(m.ops, &btpb.Mutation{Mutation: &btpb.Mutation_DeleteFromColumn_{DeleteFromColumn: &btpb.Mutation_DeleteFromColumn{
		FamilyName:      family,
		ColumnQualifier: []byte(column),
		TimeRange: &btpb.TimestampRange{
			StartTimestampMicros: int64(start),
			EndTimestampMicros:   int64(end),
		},
	}}})
}

// DeleteCellsInFamily deletes all cells in the given family.
func (m *Mutation) DeleteCellsInFamily(family string) {
	m.ops = append(m.ops, &btpb.Mutation{Mutation: &btpb.Mutation_DeleteFromFamily_{DeleteFromFamily: &btpb.Mutation_DeleteFromFamily{
		FamilyName: family,
	}}})
}

// DeleteRow deletes the entire row.
func (m *Mutation) DeleteRow() {
	m.ops = append(m.ops, &btpb.Mutation{Mutation: &btpb.Mutation_DeleteFromRow_{DeleteFromRow: &btpb.Mutation_DeleteFromRow{}}})
}

// BulkMutation is a batch of per-row mutation sets, applied together with
// Table.BulkApply.
//
// Atomicity applies per row, not across the batch.
type BulkMutation struct {
	entries []*btpb.MutateRowsRequest_Entry
}

// Add appends a row's mutation set to the batch.
//
// The mutation's position in the batch is its "original index": failures
// reported by BulkApply refer to it regardless of how many retry rounds the
// entry survived.
func (b *BulkMutation) Add(row string, m *Mutation) {
	b.entries = append(b.entries, &btpb.MutateRowsRequest_Entry{
		RowKey:    []byte(row),
		Mutations: m.ops,
	})
}

// Len returns the number of rows in the batch.
func (b *BulkMutation) Len() int {
	return len(b.entries)
}

// FailedMutation describes the terminal failure of one entry of a
// BulkMutation.
type FailedMutation struct {
	// Index is the entry's position in the original BulkMutation, stable
	// across retry rounds.
	Index int

	// Row is the entry's row key.
	Row string

	// Code is the terminal status code.
	Code codes.Code

	// Message is the human-readable terminal status message.
	Message string
}

// Error implements the error interface.
func (f FailedMutation) Error() string {
	return fmt.Sprintf("mutation %d (row %q) failed: %s: %s", f.Index, f.Row, f.Code, f.Message)
}

// ReadModifyWriteRule describes one transformation applied by
// Table.ReadModifyWriteRow to a cell's latest value.
type ReadModifyWriteRule struct {
	proto *btpb.ReadModifyWriteRule
}

// AppendValue returns a rule that appends v to the latest value of the cell
// in the given family and column, treating a missing cell as empty.
func AppendValue(family, column string, v []byte) ReadModifyWriteRule {
	return ReadModifyWriteRule{&btpb.ReadModifyWriteRule{
		FamilyName:      family,
		ColumnQualifier: []byte(column),
		Rule:            &btpb.ReadModifyWriteRule_AppendValue{AppendValue: v},
	}}
}

// IncrementAmount returns a rule that interprets the latest value of the cell
// in the given family and column as a big-endian int64 and adds v to it,
// treating a missing cell as zero.
func IncrementAmount(family, column string, v int64) ReadModifyWriteRule {
	return ReadModifyWriteRule{&btpb.ReadModifyWriteRule{
		FamilyName:      family,
		ColumnQualifier: []byte(column),
		Rule:            &btpb.ReadModifyWriteRule_IncrementAmount{IncrementAmount: v},
	}}
}
