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

// Package bigtable is a lean data-plane client for services speaking the
// Cloud Bigtable v2 wire protocol.
//
// It covers row mutation paths only: single-row Apply, bulk mutations with
// per-mutation retry tracking, conditional and read-modify-write mutations,
// and row key sampling. Reads, scans and administrative operations are out of
// scope.
//
// Usage:
//
//	client, err := bigtable.NewClient(ctx, "my-project", "my-instance")
//	if err != nil {
//		...
//	}
//	defer client.Close()
//
//	tbl := client.Open("my-table")
//
//	mut := bigtable.NewMutation()
//	mut.Set("cf", "col", bigtable.Now(), []byte("value"))
//	if err := tbl.Apply(ctx, "row-key", mut); err != nil {
//		...
//	}
//
// Bulk mutations are retried per entry: entries the server acknowledged are
// never re-sent, transiently failed idempotent entries are retried under the
// table's retry schedule, and everything else resolves into the returned
// FailedMutation list.
//
//	bulk := &bigtable.BulkMutation{}
//	bulk.Add("row-1", mut1)
//	bulk.Add("row-2", mut2)
//	failures, err := tbl.BulkApply(ctx, bulk)
//
// Retry, backoff and idempotency policies are injectable per table via
// OpenWithOptions; see TableOptions.
package bigtable
