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

	"google.golang.org/grpc/codes"

	"go.chromium.org/btlite/common/errors"
	"go.chromium.org/btlite/common/retry"
	"go.chromium.org/btlite/grpc/grpcutil"
)

// retryableUnaryCodes widens the default transient set for call-level errors.
// gRPC reports a client-observed timeout or a server-side abort with these
// codes; for idempotent operations both are worth another attempt.
var retryableUnaryCodes = []codes.Code{codes.DeadlineExceeded, codes.Aborted}

// runIdempotent runs a unary call under the table's retry schedule.
//
// If idempotent is false the call is made exactly once: a unary mutation with
// an unknown outcome must not be blindly reapplied. Otherwise transient
// failures (plus DeadlineExceeded and Aborted) are retried until the schedule
// gives up, and the last attempt's error is returned unwrapped.
func runIdempotent[R any](ctx context.Context, f retry.Factory, idempotent bool, opname string, call func(context.Context) (R, error)) (R, error) {
	var res R
	if !idempotent {
		f = nil
	} else {
		f = retry.TransientOnlyFactory(f)
	}
	err := retry.Retry(ctx, f, func() (err error) {
		res, err = call(ctx)
		return grpcutil.WrapIfTransientOr(err, retryableUnaryCodes...)
	}, retry.LogCallback(ctx, opname))
	return res, errors.Unwrap(err)
}
