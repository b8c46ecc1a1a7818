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

// Package logging defines a Logger interface and context plumbing around it.
//
// The package itself does no logging: libraries log through the Logger found
// in the Context, and binaries install a concrete implementation (see the
// gologger subpackage).
package logging

// Level is an enumeration consisting of supported log levels.
type Level int

// Level implements flag.Value.
var _ interface {
	String() string
	Set(string) error
} = (*Level)(nil)

// Defined log levels.
const (
	Debug Level = iota
	Info
	Warning
	Error
)

// DefaultLevel is the default Level value.
const DefaultLevel = Info

// String implements flag.Value.
func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "unknown"
}

// Set implements flag.Value.
func (l *Level) Set(v string) error {
	switch v {
	case "debug":
		*l = Debug
	case "info":
		*l = Info
	case "warning":
		*l = Warning
	case "error":
		*l = Error
	default:
		return errInvalidLevel
	}
	return nil
}

// Logger interface is ultimately implemented by the underlying logging
// libraries (gologger, etc.).
type Logger interface {
	// Debugf formats its arguments according to the format, analogous to
	// fmt.Printf, and records the text as a log message at Debug level.
	Debugf(format string, args ...any)

	// Infof is like Debugf, but logs at Info level.
	Infof(format string, args ...any)

	// Warningf is like Debugf, but logs at Warning level.
	Warningf(format string, args ...any)

	// Errorf is like Debugf, but logs at Error level.
	Errorf(format string, args ...any)

	// LogCall is a generic logging function with an explicit level and caller
	// frame offset (used by the package-level shims).
	LogCall(l Level, calldepth int, format string, args []any)
}
