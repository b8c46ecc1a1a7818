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

// Package errors provides the error plumbing used throughout btlite: error
// wrapping, multi-errors, and transient error tagging.
package errors

import (
	"errors"
	"fmt"
)

// New is a pass-through version of the standard errors.New function.
var New = errors.New

// Fmt is a pass-through version of the standard fmt.Errorf function.
var Fmt = fmt.Errorf

// Wrapped indicates an error that wraps an inner error.
//
// It is the pre-go1.13 equivalent of `interface{ Unwrap() error }`; Walk
// understands both forms.
type Wrapped interface {
	// InnerError returns the wrapped error.
	InnerError() error
}

// Unwrap unwraps a wrapped error recursively, returning its innermost error.
//
// If the error is not wrapped, it is returned as-is.
func Unwrap(err error) error {
	for {
		inner := unwrapOnce(err)
		if inner == nil {
			return err
		}
		err = inner
	}
}

// unwrapOnce removes one layer of wrapping, returning nil if there is none.
func unwrapOnce(err error) error {
	switch t := err.(type) {
	case Wrapped:
		return t.InnerError()
	case interface{ Unwrap() error }:
		return t.Unwrap()
	}
	return nil
}
