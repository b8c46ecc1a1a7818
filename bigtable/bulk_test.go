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
	"sync"
	"testing"
	"time"

	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/sync/errgroup"
	rpcstatus "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"

	"go.chromium.org/btlite/common/clock"
	"go.chromium.org/btlite/common/clock/testclock"
	"go.chromium.org/btlite/common/retry"
)

// fakeMutateRowsStream replays a scripted response stream. The embedded nil
// grpc.ClientStream fills in the interface methods this package never calls.
type fakeMutateRowsStream struct {
	grpc.ClientStream

	msgs     []*btpb.MutateRowsResponse
	finalErr error // returned after msgs are drained; nil means io.EOF
}

func (s *fakeMutateRowsStream) Recv() (*btpb.MutateRowsResponse, error) {
	if len(s.msgs) == 0 {
		if s.finalErr != nil {
			return nil, s.finalErr
		}
		return nil, io.EOF
	}
	m := s.msgs[0]
	s.msgs = s.msgs[1:]
	return m, nil
}

// bulkRound scripts one MutateRows call.
type bulkRound struct {
	openErr  error // error from the call itself, before any stream
	msgs     []*btpb.MutateRowsResponse
	finalErr error // stream error after msgs, nil for clean EOF
}

// fakeDataClient is a scripted dataClient. Each operation consumes its
// script in order and records a deep copy of every request it sees.
type fakeDataClient struct {
	mu sync.Mutex

	bulkRounds []bulkRound
	bulkReqs   []*btpb.MutateRowsRequest

	mutateRowErrs []error
	mutateRowReqs []*btpb.MutateRowRequest

	sampleRounds []sampleRound
	sampleReqs   []*btpb.SampleRowKeysRequest

	checkResp *btpb.CheckAndMutateRowResponse
	checkErr  error
	checkReqs []*btpb.CheckAndMutateRowRequest

	rmwResp *btpb.ReadModifyWriteRowResponse
	rmwErr  error
	rmwReqs []*btpb.ReadModifyWriteRowRequest
}

type sampleRound struct {
	openErr  error
	msgs     []*btpb.SampleRowKeysResponse
	finalErr error
}

type fakeSampleStream struct {
	grpc.ClientStream

	msgs     []*btpb.SampleRowKeysResponse
	finalErr error
}

func (s *fakeSampleStream) Recv() (*btpb.SampleRowKeysResponse, error) {
	if len(s.msgs) == 0 {
		if s.finalErr != nil {
			return nil, s.finalErr
		}
		return nil, io.EOF
	}
	m := s.msgs[0]
	s.msgs = s.msgs[1:]
	return m, nil
}

func (f *fakeDataClient) MutateRow(ctx context.Context, in *btpb.MutateRowRequest, opts ...grpc.CallOption) (*btpb.MutateRowResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutateRowReqs = append(f.mutateRowReqs, proto.Clone(in).(*btpb.MutateRowRequest))
	if len(f.mutateRowErrs) == 0 {
		return &btpb.MutateRowResponse{}, nil
	}
	err := f.mutateRowErrs[0]
	f.mutateRowErrs = f.mutateRowErrs[1:]
	if err != nil {
		return nil, err
	}
	return &btpb.MutateRowResponse{}, nil
}

func (f *fakeDataClient) MutateRows(ctx context.Context, in *btpb.MutateRowsRequest, opts ...grpc.CallOption) (btpb.Bigtable_MutateRowsClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkReqs = append(f.bulkReqs, proto.Clone(in).(*btpb.MutateRowsRequest))
	if len(f.bulkRounds) == 0 {
		return nil, status.Error(codes.Internal, "fake: no more scripted rounds")
	}
	r := f.bulkRounds[0]
	f.bulkRounds = f.bulkRounds[1:]
	if r.openErr != nil {
		return nil, r.openErr
	}
	return &fakeMutateRowsStream{msgs: r.msgs, finalErr: r.finalErr}, nil
}

func (f *fakeDataClient) CheckAndMutateRow(ctx context.Context, in *btpb.CheckAndMutateRowRequest, opts ...grpc.CallOption) (*btpb.CheckAndMutateRowResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkReqs = append(f.checkReqs, proto.Clone(in).(*btpb.CheckAndMutateRowRequest))
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.checkResp, nil
}

func (f *fakeDataClient) ReadModifyWriteRow(ctx context.Context, in *btpb.ReadModifyWriteRowRequest, opts ...grpc.CallOption) (*btpb.ReadModifyWriteRowResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rmwReqs = append(f.rmwReqs, proto.Clone(in).(*btpb.ReadModifyWriteRowRequest))
	if f.rmwErr != nil {
		return nil, f.rmwErr
	}
	return f.rmwResp, nil
}

func (f *fakeDataClient) SampleRowKeys(ctx context.Context, in *btpb.SampleRowKeysRequest, opts ...grpc.CallOption) (btpb.Bigtable_SampleRowKeysClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sampleReqs = append(f.sampleReqs, proto.Clone(in).(*btpb.SampleRowKeysRequest))
	if len(f.sampleRounds) == 0 {
		return nil, status.Error(codes.Internal, "fake: no more scripted rounds")
	}
	r := f.sampleRounds[0]
	f.sampleRounds = f.sampleRounds[1:]
	if r.openErr != nil {
		return nil, r.openErr
	}
	return &fakeSampleStream{msgs: r.msgs, finalErr: r.finalErr}, nil
}

func entryStatus(idx int, code codes.Code, msg string) *btpb.MutateRowsResponse_Entry {
	return &btpb.MutateRowsResponse_Entry{
		Index:  int64(idx),
		Status: &rpcstatus.Status{Code: int32(code), Message: msg},
	}
}

func respOf(entries ...*btpb.MutateRowsResponse_Entry) *btpb.MutateRowsResponse {
	return &btpb.MutateRowsResponse{Entries: entries}
}

// testTable builds a Table over the fake, with a deterministic retry
// schedule (fixed 1s delay, up to retries extra rounds) and a test clock that
// auto-advances through backoffs.
func testTable(fake *fakeDataClient, retries int) (context.Context, *Table) {
	ctx, tc := testclock.UseTime(context.Background(), testclock.TestTimeUTC)
	tc.SetTimerCallback(func(d time.Duration, _ clock.Timer) {
		tc.Add(d)
	})
	c := &Client{data: fake, project: "proj", instance: "inst"}
	tbl := c.OpenWithOptions("tbl", TableOptions{
		Retry: func(context.Context) retry.Iterator {
			return &retry.Limited{Delay: time.Second, Retries: retries}
		},
	})
	return ctx, tbl
}

func setMut() *Mutation {
	m := NewMutation()
	m.Set("cf", "col", Time(testclock.TestTimeUTC), []byte("v"))
	return m
}

func serverTimeMut() *Mutation {
	m := NewMutation()
	m.Set("cf", "col", ServerTime, []byte("v"))
	return m
}

func bulkOf(muts ...*Mutation) *BulkMutation {
	b := &BulkMutation{}
	for i, m := range muts {
		b.Add("row-"+string(rune('a'+i)), m)
	}
	return b
}

func TestBulkApply(t *testing.T) {
	t.Parallel()

	Convey(`BulkApply`, t, func() {
		Convey(`An empty batch makes no RPCs.`, func() {
			fake := &fakeDataClient{}
			ctx, tbl := testTable(fake, 5)

			failures, err := tbl.BulkApply(ctx, &BulkMutation{})
			So(err, ShouldBeNil)
			So(failures, ShouldBeNil)
			So(fake.bulkReqs, ShouldHaveLength, 0)
		})

		Convey(`A fully successful round finishes in one RPC.`, func() {
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.OK, ""),
					entryStatus(1, codes.OK, ""),
				)}},
			}}
			ctx, tbl := testTable(fake, 5)

			failures, err := tbl.BulkApply(ctx, bulkOf(setMut(), setMut()))
			So(err, ShouldBeNil)
			So(failures, ShouldBeNil)
			So(fake.bulkReqs, ShouldHaveLength, 1)
		})

		Convey(`Mixed verdicts: success, retryable, permanent.`, func() {
			// Round 1: entry 0 succeeds, entry 1 is retryable, entry 2 fails
			// permanently. Round 2 carries only entry 1 and succeeds.
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.OK, ""),
					entryStatus(1, codes.Unavailable, "try again"),
					entryStatus(2, codes.PermissionDenied, "nope"),
				)}},
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.OK, ""),
				)}},
			}}
			ctx, tbl := testTable(fake, 5)

			failures, err := tbl.BulkApply(ctx, bulkOf(setMut(), setMut(), setMut()))
			So(err, ShouldBeNil)
			So(failures, ShouldResemble, []FailedMutation{
				{Index: 2, Row: "row-c", Code: codes.PermissionDenied, Message: "nope"},
			})

			// The second round re-sent only the retryable entry, reindexed
			// from zero.
			So(fake.bulkReqs, ShouldHaveLength, 2)
			So(fake.bulkReqs[1].Entries, ShouldHaveLength, 1)
			So(string(fake.bulkReqs[1].Entries[0].RowKey), ShouldEqual, "row-b")
		})

		Convey(`Results split across several stream messages.`, func() {
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{
					respOf(entryStatus(1, codes.OK, "")),
					respOf(entryStatus(0, codes.OK, "")),
				}},
			}}
			ctx, tbl := testTable(fake, 5)

			failures, err := tbl.BulkApply(ctx, bulkOf(setMut(), setMut()))
			So(err, ShouldBeNil)
			So(failures, ShouldBeNil)
		})

		Convey(`A retryable failure of a non-idempotent entry is permanent.`, func() {
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.Unavailable, "try again"),
				)}},
			}}
			ctx, tbl := testTable(fake, 5)

			failures, err := tbl.BulkApply(ctx, bulkOf(serverTimeMut()))
			So(err, ShouldBeNil)
			So(failures, ShouldResemble, []FailedMutation{
				{Index: 0, Row: "row-a", Code: codes.Unavailable, Message: "try again"},
			})
			So(fake.bulkReqs, ShouldHaveLength, 1)
		})

		Convey(`Budget exhaustion drains pending entries.`, func() {
			// One extra round allowed; the entry stays Unavailable through
			// both, so it resolves as a deadline failure after exactly two
			// RPCs.
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.Unavailable, "busy"))}},
				{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.Unavailable, "busy"))}},
			}}
			ctx, tbl := testTable(fake, 1)

			failures, err := tbl.BulkApply(ctx, bulkOf(setMut()))
			So(err, ShouldBeNil)
			So(failures, ShouldHaveLength, 1)
			So(failures[0].Code, ShouldEqual, codes.DeadlineExceeded)
			So(failures[0].Message, ShouldContainSubstring, "retry budget exhausted")
			So(fake.bulkReqs, ShouldHaveLength, 2)
		})

		Convey(`A broken stream requeues idempotent, fails non-idempotent.`, func() {
			// Round 1 acks entry 0, then the stream dies. Entry 1
			// (idempotent) is retried; entry 2 (server timestamp) has an
			// unknown result.
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{
					msgs:     []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.OK, ""))},
					finalErr: status.Error(codes.Unavailable, "stream reset"),
				},
				{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.OK, ""))}},
			}}
			ctx, tbl := testTable(fake, 5)

			failures, err := tbl.BulkApply(ctx, bulkOf(setMut(), setMut(), serverTimeMut()))
			So(err, ShouldBeNil)
			So(failures, ShouldHaveLength, 1)
			So(failures[0].Index, ShouldEqual, 2)
			So(failures[0].Code, ShouldEqual, codes.Internal)
			So(failures[0].Message, ShouldContainSubstring, "mutation result is unknown")

			// Round 2 re-sent only entry 1; the acked entry 0 was never
			// re-sent.
			So(fake.bulkReqs, ShouldHaveLength, 2)
			So(fake.bulkReqs[1].Entries, ShouldHaveLength, 1)
			So(string(fake.bulkReqs[1].Entries[0].RowKey), ShouldEqual, "row-b")
		})

		Convey(`A short successful stream requeues unaddressed entries.`, func() {
			// The RPC completes cleanly but never mentions entry 1. Nothing
			// may be assumed about it, so it is retried, even though it is
			// not idempotent by policy it was also never reported failed.
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.OK, ""))}},
				{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.OK, ""))}},
			}}
			ctx, tbl := testTable(fake, 5)

			failures, err := tbl.BulkApply(ctx, bulkOf(setMut(), setMut()))
			So(err, ShouldBeNil)
			So(failures, ShouldBeNil)
			So(fake.bulkReqs, ShouldHaveLength, 2)
			So(string(fake.bulkReqs[1].Entries[0].RowKey), ShouldEqual, "row-b")
		})

		Convey(`A permanent call failure drains with its status.`, func() {
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{openErr: status.Error(codes.PermissionDenied, "no access")},
			}}
			ctx, tbl := testTable(fake, 5)

			failures, err := tbl.BulkApply(ctx, bulkOf(setMut(), setMut()))
			So(status.Code(err), ShouldEqual, codes.PermissionDenied)
			So(failures, ShouldHaveLength, 2)
			for _, f := range failures {
				So(f.Code, ShouldEqual, codes.PermissionDenied)
			}
			So(fake.bulkReqs, ShouldHaveLength, 1)
		})

		Convey(`A transient call failure is retried.`, func() {
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{openErr: status.Error(codes.Unavailable, "down")},
				{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.OK, ""))}},
			}}
			ctx, tbl := testTable(fake, 5)

			failures, err := tbl.BulkApply(ctx, bulkOf(setMut()))
			So(err, ShouldBeNil)
			So(failures, ShouldBeNil)
			So(fake.bulkReqs, ShouldHaveLength, 2)
		})

		Convey(`Failures come back in original submission order.`, func() {
			// Entry 2 fails in round 1; entry 0 fails in round 2. The result
			// is still ordered by original index.
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.Unavailable, "busy"),
					entryStatus(1, codes.OK, ""),
					entryStatus(2, codes.PermissionDenied, "nope"),
				)}},
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.FailedPrecondition, "bad"),
				)}},
			}}
			ctx, tbl := testTable(fake, 5)

			failures, err := tbl.BulkApply(ctx, bulkOf(setMut(), setMut(), setMut()))
			So(err, ShouldBeNil)
			So(failures, ShouldHaveLength, 2)
			So(failures[0].Index, ShouldEqual, 0)
			So(failures[0].Code, ShouldEqual, codes.FailedPrecondition)
			So(failures[1].Index, ShouldEqual, 2)
			So(failures[1].Code, ShouldEqual, codes.PermissionDenied)
		})

		Convey(`Every entry is accounted for exactly once.`, func() {
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.OK, ""),
					entryStatus(1, codes.Unavailable, "busy"),
					entryStatus(2, codes.InvalidArgument, "bad"),
					entryStatus(3, codes.Aborted, "conflict"),
				)}},
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.OK, ""),
					entryStatus(1, codes.NotFound, "gone"),
				)}},
			}}
			ctx, tbl := testTable(fake, 5)

			mut := bulkOf(setMut(), setMut(), setMut(), setMut())
			failures, err := tbl.BulkApply(ctx, mut)
			So(err, ShouldBeNil)

			// 4 submitted = 2 eventual successes + 2 failures, no entry
			// reported twice.
			So(failures, ShouldHaveLength, 2)
			seen := map[int]bool{}
			for _, f := range failures {
				So(seen[f.Index], ShouldBeFalse)
				seen[f.Index] = true
			}
			So(seen, ShouldResemble, map[int]bool{2: true, 3: true})
		})

		Convey(`Cancellation during backoff drains remaining entries.`, func() {
			ctx, tc := testclock.UseTime(context.Background(), testclock.TestTimeUTC)
			ctx, cancel := context.WithCancel(ctx)
			tc.SetTimerCallback(func(d time.Duration, _ clock.Timer) {
				cancel()
			})

			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.Unavailable, "busy"))}},
			}}
			c := &Client{data: fake, project: "proj", instance: "inst"}
			tbl := c.OpenWithOptions("tbl", TableOptions{
				Retry: func(context.Context) retry.Iterator {
					return &retry.Limited{Delay: time.Second, Retries: 5}
				},
			})

			failures, err := tbl.BulkApply(ctx, bulkOf(setMut()))
			So(err, ShouldEqual, context.Canceled)
			So(failures, ShouldHaveLength, 1)
			So(failures[0].Code, ShouldEqual, codes.Canceled)
			So(fake.bulkReqs, ShouldHaveLength, 1)
		})

		Convey(`A retried entry is re-sent byte-identical.`, func() {
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.Unavailable, "busy"))}},
				{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.OK, ""))}},
			}}
			ctx, tbl := testTable(fake, 5)

			m := NewMutation()
			m.Set("cf", "col", Timestamp(5000), []byte("payload"))
			m.DeleteCellsInFamily("old")
			bulk := &BulkMutation{}
			bulk.Add("row-a", m)

			_, err := tbl.BulkApply(ctx, bulk)
			So(err, ShouldBeNil)
			So(fake.bulkReqs, ShouldHaveLength, 2)
			So(cmp.Diff(fake.bulkReqs[0].Entries, fake.bulkReqs[1].Entries, protocmp.Transform()), ShouldBeEmpty)
		})

		Convey(`Concurrent operations get independent retry schedules.`, func() {
			// One Factory shared by every operation, with a budget of
			// exactly one retry. The Factory is called per operation, so
			// each gets a fresh iterator; if they shared iterator state,
			// only the first could retry.
			const ops = 8
			sharedFactory := func(context.Context) retry.Iterator {
				return &retry.Limited{Delay: time.Second, Retries: 1}
			}

			var eg errgroup.Group
			for i := 0; i < ops; i++ {
				fake := &fakeDataClient{bulkRounds: []bulkRound{
					{openErr: status.Error(codes.Unavailable, "down")},
					{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.OK, ""))}},
				}}
				ctx, tc := testclock.UseTime(context.Background(), testclock.TestTimeUTC)
				tc.SetTimerCallback(func(d time.Duration, _ clock.Timer) {
					tc.Add(d)
				})
				c := &Client{data: fake, project: "proj", instance: "inst"}
				tbl := c.OpenWithOptions("tbl", TableOptions{Retry: sharedFactory})
				eg.Go(func() error {
					failures, err := tbl.BulkApply(ctx, bulkOf(setMut()))
					if err != nil {
						return err
					}
					if len(failures) != 0 {
						return failures[0]
					}
					return nil
				})
			}
			So(eg.Wait(), ShouldBeNil)
		})

		Convey(`The round request carries the table's routing fields.`, func() {
			fake := &fakeDataClient{bulkRounds: []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(entryStatus(0, codes.OK, ""))}},
			}}
			ctx, tbl := testTable(fake, 5)

			_, err := tbl.BulkApply(ctx, bulkOf(setMut()))
			So(err, ShouldBeNil)
			So(fake.bulkReqs[0].TableName, ShouldEqual, "projects/proj/instances/inst/tables/tbl")
		})
	})
}

func TestBulkApplyAsync(t *testing.T) {
	t.Parallel()

	Convey(`BulkApplyAsync`, t, func() {
		script := func() []bulkRound {
			return []bulkRound{
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.OK, ""),
					entryStatus(1, codes.Unavailable, "busy"),
					entryStatus(2, codes.PermissionDenied, "nope"),
				)}},
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.Unavailable, "busy"),
				)}},
				{msgs: []*btpb.MutateRowsResponse{respOf(
					entryStatus(0, codes.OK, ""),
				)}},
			}
		}

		runAsync := func(ctx context.Context, tbl *Table, mut *BulkMutation) ([]FailedMutation, error) {
			type result struct {
				failures []FailedMutation
				err      error
			}
			resC := make(chan result, 1)
			tbl.BulkApplyAsync(ctx, mut, func(failures []FailedMutation, err error) {
				resC <- result{failures, err}
			})
			r := <-resC
			return r.failures, r.err
		}

		Convey(`Matches BulkApply on the same script.`, func() {
			syncFake := &fakeDataClient{bulkRounds: script()}
			ctx1, syncTbl := testTable(syncFake, 5)
			syncFailures, syncErr := syncTbl.BulkApply(ctx1, bulkOf(setMut(), setMut(), setMut()))

			asyncFake := &fakeDataClient{bulkRounds: script()}
			ctx2, asyncTbl := testTable(asyncFake, 5)
			asyncFailures, asyncErr := runAsync(ctx2, asyncTbl, bulkOf(setMut(), setMut(), setMut()))

			So(asyncErr, ShouldBeNil)
			So(syncErr, ShouldBeNil)
			So(asyncFailures, ShouldResemble, syncFailures)
			So(len(asyncFake.bulkReqs), ShouldEqual, len(syncFake.bulkReqs))
		})

		Convey(`An empty batch reports immediately.`, func() {
			fake := &fakeDataClient{}
			ctx, tbl := testTable(fake, 5)

			failures, err := runAsync(ctx, tbl, &BulkMutation{})
			So(err, ShouldBeNil)
			So(failures, ShouldBeNil)
			So(fake.bulkReqs, ShouldHaveLength, 0)
		})
	})
}
