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

// Package grpcutil contains helpers for classifying gRPC errors.
package grpcutil

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.chromium.org/btlite/common/errors"
)

// Code returns the gRPC code for a given error.
//
// In addition to the functionality of status.Code, this walks any wrapped
// errors (including MultiErrors) looking for one carrying a gRPC status.
// Context errors map to Canceled and DeadlineExceeded. Errors with no
// recognizable code map to Unknown.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	code := codes.Unknown
	errors.Any(err, func(err error) bool {
		switch err {
		case context.Canceled:
			code = codes.Canceled
			return true
		case context.DeadlineExceeded:
			code = codes.DeadlineExceeded
			return true
		}
		if s, ok := status.FromError(err); ok {
			code = s.Code()
			return true
		}
		return false
	})
	return code
}

// IsTransientCode returns true if a given gRPC code is associated with a
// transient gRPC error type.
func IsTransientCode(code codes.Code) bool {
	switch code {
	case codes.Internal, codes.Unknown, codes.Unavailable:
		return true
	default:
		return false
	}
}

// WrapIfTransient wraps the supplied gRPC error with a transient wrapper if
// it has a transient gRPC code, as determined by IsTransientCode.
//
// If the supplied error is nil, nil is returned.
//
// Note that non-gRPC errors have code Unknown, which is considered transient;
// this function should only be used on gRPC errors.
func WrapIfTransient(err error) error {
	if err == nil {
		return nil
	}
	if IsTransientCode(Code(err)) {
		return errors.WrapTransient(err)
	}
	return err
}

// WrapIfTransientOr wraps the supplied gRPC error with a transient wrapper if
// its code is transient per IsTransientCode or is one of the supplied extra
// codes.
//
// Services with documented retryable statuses (e.g. DeadlineExceeded or
// Aborted on data-plane calls) use this to widen the default classification.
func WrapIfTransientOr(err error, extra ...codes.Code) error {
	if err == nil {
		return nil
	}
	code := Code(err)
	if IsTransientCode(code) {
		return errors.WrapTransient(err)
	}
	for _, c := range extra {
		if code == c {
			return errors.WrapTransient(err)
		}
	}
	return err
}
