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

package errors

// transientWrapper wraps an error, marking it as transient.
type transientWrapper struct {
	inner error
}

var _ Wrapped = transientWrapper{}

func (t transientWrapper) Error() string {
	return t.inner.Error()
}

func (t transientWrapper) InnerError() error {
	return t.inner
}

func (t transientWrapper) Unwrap() error {
	return t.inner
}

// IsTransient tests if a given error or, if it is a container, any of its
// contained errors is marked as transient.
func IsTransient(err error) bool {
	return Any(err, func(err error) bool {
		_, ok := err.(transientWrapper)
		return ok
	})
}

// WrapTransient wraps an existing error with in a transientWrapper.
//
// If the supplied error is already transient, it is returned unmodified. If
// the supplied error is nil, nil is returned.
func WrapTransient(err error) error {
	if err == nil || IsTransient(err) {
		return err
	}
	return transientWrapper{err}
}
