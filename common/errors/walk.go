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

// Walk performs a depth-first traversal of the supplied error, invoking the
// callback for each layered error recursively. If the callback returns true,
// Walk continues its traversal.
//
//   - For a MultiError, the callback is invoked once for the outer MultiError,
//     then once for each inner error.
//   - For a wrapped error (Wrapped or standard Unwrap), the callback is
//     invoked for the outer error, then for the inner one.
//
// If err is nil, the callback is not invoked.
func Walk(err error, fn func(error) bool) {
	_ = walkVisit(err, fn)
}

func walkVisit(err error, fn func(error) bool) bool {
	if err == nil {
		return true
	}
	if !fn(err) {
		return false
	}
	if m, ok := err.(MultiError); ok {
		for _, e := range m {
			if !walkVisit(e, fn) {
				return false
			}
		}
		return true
	}
	if inner := unwrapOnce(err); inner != nil {
		return walkVisit(inner, fn)
	}
	return true
}

// Any performs a Walk traversal of an error, returning true (and
// short-circuiting) if the callback returns true for any visited error.
//
// If err is nil, Any returns false.
func Any(err error, fn func(error) bool) (any bool) {
	Walk(err, func(err error) bool {
		any = fn(err)
		return !any
	})
	return
}

// Contains performs a Walk traversal of an error, returning true if it is or
// contains the supplied sentinel error.
func Contains(err, sentinel error) bool {
	return Any(err, func(err error) bool {
		return err == sentinel
	})
}
