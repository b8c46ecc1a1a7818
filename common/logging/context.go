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

package logging

import (
	"context"
	"errors"
)

var errInvalidLevel = errors.New("logging: invalid level value")

// Unique context key values.
var (
	loggerKey = "logging.Logger"
	levelKey  = "logging.Level"
)

// SetFactory sets the Logger factory for this context.
//
// The factory will be called each time Get(context) is used.
func SetFactory(ctx context.Context, f func(context.Context) Logger) context.Context {
	return context.WithValue(ctx, &loggerKey, f)
}

// Set sets the logger for this context.
//
// It can be retrieved with Get(context).
func Set(ctx context.Context, l Logger) context.Context {
	return SetFactory(ctx, func(context.Context) Logger { return l })
}

// Get the current Logger, or a logger that ignores all messages if none is
// defined.
func Get(ctx context.Context) (ret Logger) {
	if f, ok := ctx.Value(&loggerKey).(func(context.Context) Logger); ok {
		ret = f(ctx)
	}
	if ret == nil {
		ret = Null
	}
	return
}

// SetLevel sets the Level for this context.
//
// It can be retrieved with GetLevel(context).
func SetLevel(ctx context.Context, l Level) context.Context {
	return context.WithValue(ctx, &levelKey, l)
}

// GetLevel returns the Level for this context. It will return DefaultLevel
// if none is defined.
func GetLevel(ctx context.Context) Level {
	if l, ok := ctx.Value(&levelKey).(Level); ok {
		return l
	}
	return DefaultLevel
}
