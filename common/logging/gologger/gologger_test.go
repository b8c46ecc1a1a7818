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

package gologger

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"go.chromium.org/btlite/common/logging"
)

var (
	ansiRegexp = regexp.MustCompile(`\033\[.+?m`)

	// Pulls (file, level, message) out of StandardFormat lines.
	lre = regexp.MustCompile(`\[P\d+ \d+:\d+:\d+\.\d+ (.+?):\d+ ([A-Z]{4}) [0-9a-f]+\]\s+(.*)`)
)

func normalizeLog(s string) string {
	// Strip ANSI color sequences.
	return ansiRegexp.ReplaceAllString(s, "")
}

func TestGoLogger(t *testing.T) {
	Convey(`A new Go Logger instance`, t, func() {
		buf := bytes.Buffer{}
		cfg := LoggerConfig{Out: &buf}
		l := cfg.NewLogger(nil)

		for _, entry := range []struct {
			L logging.Level
			F func(string, ...any)
			T string
		}{
			{logging.Debug, l.Debugf, "DEBU"},
			{logging.Info, l.Infof, "INFO"},
			{logging.Warning, l.Warningf, "WARN"},
			{logging.Error, l.Errorf, "ERRO"},
		} {
			Convey(fmt.Sprintf("Can log to: %s", entry.L), func() {
				entry.F("Test logging %s", entry.L)
				matches := lre.FindAllStringSubmatch(normalizeLog(buf.String()), -1)
				So(len(matches), ShouldEqual, 1)
				So(len(matches[0]), ShouldEqual, 4)
				So(matches[0][1], ShouldEqual, "gologger_test.go")
				So(matches[0][2], ShouldEqual, entry.T)
				So(matches[0][3], ShouldEqual, fmt.Sprintf("Test logging %s", entry.L))
			})
		}
	})

	Convey(`A Go Logger installed in a Context at Info level`, t, func() {
		buf := bytes.Buffer{}
		lc := &LoggerConfig{Out: &buf}
		ctx := logging.SetLevel(lc.Use(context.Background()), logging.Info)

		Convey(`Logs through the top-level Context methods.`, func() {
			logging.Infof(ctx, "Test logging %s", "info")
			matches := lre.FindAllStringSubmatch(normalizeLog(buf.String()), -1)
			So(len(matches), ShouldEqual, 1)
			So(matches[0][1], ShouldEqual, "gologger_test.go")
			So(matches[0][2], ShouldEqual, "INFO")
			So(matches[0][3], ShouldEqual, "Test logging info")
		})

		Convey(`Will not log to Debug, as it's below level.`, func() {
			logging.Debugf(ctx, "Hello!")
			So(buf.Len(), ShouldEqual, 0)
		})
	})
}
