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

// Package gologger implements logging.Logger on top of the go-logging
// library (github.com/op/go-logging).
package gologger

import (
	"context"
	"fmt"
	"io"
	"os"

	gol "github.com/op/go-logging"

	"go.chromium.org/btlite/common/logging"
)

// StandardFormat prints process ID, time, filename, logging level and
// sequence number, all colored, then the message.
const StandardFormat = `%{color}[P%{pid} %{time:15:04:05.000} %{shortfile} %{level:.4s} %{id:03x}]` +
	`%{color:reset} %{message}`

// StdConfig defines default LoggerConfig: writes >=DEBUG messages to STDERR
// with colorized standard formatting.
var StdConfig = LoggerConfig{
	Format: StandardFormat,
	Out:    os.Stderr,
	Level:  gol.DEBUG,
}

// LoggerConfig owns a go-logging logger configuration.
type LoggerConfig struct {
	Format string    // output format string, see go-logging docs
	Out    io.Writer // where to write messages
	Level  gol.Level // the minimal log level to pass to the writer
}

// NewLogger returns a new logging.Logger backed by this config.
//
// The returned logger filters by the logging level in the supplied Context
// (in addition to the config's own Level).
func (lc *LoggerConfig) NewLogger(ctx context.Context) logging.Logger {
	format := lc.Format
	if format == "" {
		format = StandardFormat
	}
	out := lc.Out
	if out == nil {
		out = os.Stderr
	}
	level := lc.Level
	if level == gol.CRITICAL {
		level = gol.DEBUG
	}

	backend := gol.NewLogBackend(out, "", 0)
	formatted := gol.NewBackendFormatter(backend, gol.MustStringFormatter(format))
	leveled := gol.AddModuleLevel(formatted)
	leveled.SetLevel(level, "")

	l := &gol.Logger{Module: "btlite", ExtraCalldepth: 2}
	l.SetBackend(leveled)
	return &loggerImpl{l: l, ctx: ctx}
}

// Use registers a go-logging based logger as the Context logger.
func (lc *LoggerConfig) Use(ctx context.Context) context.Context {
	return logging.SetFactory(ctx, func(ctx context.Context) logging.Logger {
		return lc.NewLogger(ctx)
	})
}

// New creates a new logging.Logger backed by the go-logging library. It
// writes messages of the given log level (or above) to the provided writer.
func New(w io.Writer, level gol.Level) logging.Logger {
	lc := LoggerConfig{
		Format: StandardFormat,
		Out:    w,
		Level:  level,
	}
	return lc.NewLogger(context.Background())
}

// StdUse adds the default go-logging logger (stderr, debug level) to the
// context.
func StdUse(ctx context.Context) context.Context {
	return StdConfig.Use(ctx)
}

// loggerImpl bridges logging.Logger calls into a go-logging logger.
type loggerImpl struct {
	l   *gol.Logger
	ctx context.Context
}

var _ logging.Logger = (*loggerImpl)(nil)

func (li *loggerImpl) Debugf(format string, args ...any) {
	li.LogCall(logging.Debug, 1, format, args)
}

func (li *loggerImpl) Infof(format string, args ...any) {
	li.LogCall(logging.Info, 1, format, args)
}

func (li *loggerImpl) Warningf(format string, args ...any) {
	li.LogCall(logging.Warning, 1, format, args)
}

func (li *loggerImpl) Errorf(format string, args ...any) {
	li.LogCall(logging.Error, 1, format, args)
}

func (li *loggerImpl) LogCall(l logging.Level, calldepth int, format string, args []any) {
	if li.ctx != nil && !logging.IsLogging(li.ctx, l) {
		return
	}

	text := fmt.Sprintf(format, args...)
	li.l.ExtraCalldepth = calldepth + 1
	switch l {
	case logging.Debug:
		li.l.Debug(text)
	case logging.Info:
		li.l.Info(text)
	case logging.Warning:
		li.l.Warning(text)
	default:
		li.l.Error(text)
	}
}
