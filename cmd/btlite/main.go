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

// Command btlite is a small CLI for poking at a Bigtable table's data plane:
// single writes, bulk TSV imports, counters and row key sampling.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/btlite/bigtable"
	"go.chromium.org/btlite/common/errors"
	log "go.chromium.org/btlite/common/logging"
	"go.chromium.org/btlite/common/logging/gologger"
)

type commonFlags struct {
	subcommands.CommandRunBase

	project    string
	instance   string
	table      string
	appProfile string
	logLevel   log.Level
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.project, "project", "", "Cloud project of the instance (required).")
	fs.StringVar(&c.instance, "instance", "", "Bigtable instance name (required).")
	fs.StringVar(&c.table, "table", "", "Table to operate on (required).")
	fs.StringVar(&c.appProfile, "app-profile", "", "Replication app profile to route through.")
	c.logLevel = log.Info
	fs.Var(&c.logLevel, "log-level", "Logging level (debug|info|warning|error).")
}

func (c *commonFlags) setup(ctx context.Context) (context.Context, error) {
	ctx = gologger.StdConfig.Use(ctx)
	ctx = log.SetLevel(ctx, c.logLevel)
	switch {
	case c.project == "":
		return ctx, errors.New("missing required argument (-project)")
	case c.instance == "":
		return ctx, errors.New("missing required argument (-instance)")
	case c.table == "":
		return ctx, errors.New("missing required argument (-table)")
	}
	return ctx, nil
}

func (c *commonFlags) open(ctx context.Context) (*bigtable.Client, *bigtable.Table, error) {
	client, err := bigtable.NewClientWithConfig(ctx, c.project, c.instance, bigtable.ClientConfig{
		AppProfile: c.appProfile,
	})
	if err != nil {
		return nil, nil, errors.Fmt("creating client: %w", err)
	}
	return client, client.Open(c.table), nil
}

func renderErr(ctx context.Context, err error) int {
	log.Errorf(ctx, "%s", err)
	return 1
}

////////////////////////////////////////////////////////////////////////////////
// Subcommand: put
////////////////////////////////////////////////////////////////////////////////

type cmdRunPut struct {
	commonFlags

	row    string
	column string
	value  string
}

var subcommandPut = subcommands.Command{
	UsageLine: "put -project ... -instance ... -table ... -row R -column CF:COL -value V",
	ShortDesc: "writes a single cell",
	CommandRun: func() subcommands.CommandRun {
		var cmd cmdRunPut
		cmd.register(&cmd.Flags)
		cmd.Flags.StringVar(&cmd.row, "row", "", "Row key to write (required).")
		cmd.Flags.StringVar(&cmd.column, "column", "", `Column as "family:qualifier" (required).`)
		cmd.Flags.StringVar(&cmd.value, "value", "", "Cell value.")
		return &cmd
	},
}

func (cmd *cmdRunPut) Run(_ subcommands.Application, args []string, _ subcommands.Env) int {
	ctx, err := cmd.setup(context.Background())
	if err != nil {
		return renderErr(ctx, err)
	}

	family, qualifier, ok := strings.Cut(cmd.column, ":")
	switch {
	case cmd.row == "":
		return renderErr(ctx, errors.New("missing required argument (-row)"))
	case !ok:
		return renderErr(ctx, errors.New(`-column must look like "family:qualifier"`))
	}

	client, tbl, err := cmd.open(ctx)
	if err != nil {
		return renderErr(ctx, err)
	}
	defer client.Close()

	mut := bigtable.NewMutation()
	mut.Set(family, qualifier, bigtable.Now(), []byte(cmd.value))
	if err := tbl.Apply(ctx, cmd.row, mut); err != nil {
		return renderErr(ctx, errors.Fmt("applying mutation: %w", err))
	}
	log.Infof(ctx, "Wrote %s/%s for row %q.", family, qualifier, cmd.row)
	return 0
}

////////////////////////////////////////////////////////////////////////////////
// Subcommand: import
////////////////////////////////////////////////////////////////////////////////

type cmdRunImport struct {
	commonFlags

	batchSize int
}

var subcommandImport = subcommands.Command{
	UsageLine: "import -project ... -instance ... -table ... [file]",
	ShortDesc: "bulk-writes cells from TSV input",
	LongDesc: `Reads tab-separated lines of the form

	row<TAB>family:qualifier<TAB>value

from the named file (or stdin) and applies them with bulk mutations.
Individual failures are reported per line; the import continues past them.`,
	CommandRun: func() subcommands.CommandRun {
		var cmd cmdRunImport
		cmd.register(&cmd.Flags)
		cmd.Flags.IntVar(&cmd.batchSize, "batch-size", 1000, "Rows per bulk request.")
		return &cmd
	},
}

func (cmd *cmdRunImport) Run(_ subcommands.Application, args []string, _ subcommands.Env) int {
	ctx, err := cmd.setup(context.Background())
	if err != nil {
		return renderErr(ctx, err)
	}
	if cmd.batchSize <= 0 {
		return renderErr(ctx, errors.New("-batch-size must be positive"))
	}

	in := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return renderErr(ctx, errors.Fmt("opening input: %w", err))
		}
		defer f.Close()
		in = f
	} else if len(args) > 1 {
		return renderErr(ctx, errors.New("at most one input file may be given"))
	}

	client, tbl, err := cmd.open(ctx)
	if err != nil {
		return renderErr(ctx, err)
	}
	defer client.Close()

	ts := bigtable.Now()
	bulk := &bigtable.BulkMutation{}
	rows, failed := 0, 0

	flush := func() error {
		if bulk.Len() == 0 {
			return nil
		}
		failures, err := tbl.BulkApply(ctx, bulk)
		if err != nil && len(failures) == 0 {
			return err
		}
		for _, f := range failures {
			log.Errorf(ctx, "%s", f)
		}
		failed += len(failures)
		bulk = &bigtable.BulkMutation{}
		return nil
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(nil, 16*1024*1024)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			return renderErr(ctx, errors.Fmt("line %d: expected 3 tab-separated fields, got %d", lineno, len(parts)))
		}
		family, qualifier, ok := strings.Cut(parts[1], ":")
		if !ok {
			return renderErr(ctx, errors.Fmt(`line %d: column must look like "family:qualifier"`, lineno))
		}

		mut := bigtable.NewMutation()
		mut.Set(family, qualifier, ts, []byte(parts[2]))
		bulk.Add(parts[0], mut)
		rows++

		if bulk.Len() >= cmd.batchSize {
			if err := flush(); err != nil {
				return renderErr(ctx, errors.Fmt("bulk apply: %w", err))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return renderErr(ctx, errors.Fmt("reading input: %w", err))
	}
	if err := flush(); err != nil {
		return renderErr(ctx, errors.Fmt("bulk apply: %w", err))
	}

	log.Infof(ctx, "Imported %d rows (%d failed).", rows-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

////////////////////////////////////////////////////////////////////////////////
// Subcommand: increment
////////////////////////////////////////////////////////////////////////////////

type cmdRunIncrement struct {
	commonFlags

	row    string
	column string
	amount int64
}

var subcommandIncrement = subcommands.Command{
	UsageLine: "increment -project ... -instance ... -table ... -row R -column CF:COL [-amount N]",
	ShortDesc: "atomically increments a counter cell",
	CommandRun: func() subcommands.CommandRun {
		var cmd cmdRunIncrement
		cmd.register(&cmd.Flags)
		cmd.Flags.StringVar(&cmd.row, "row", "", "Row key to increment (required).")
		cmd.Flags.StringVar(&cmd.column, "column", "", `Column as "family:qualifier" (required).`)
		cmd.Flags.Int64Var(&cmd.amount, "amount", 1, "Amount to add.")
		return &cmd
	},
}

func (cmd *cmdRunIncrement) Run(_ subcommands.Application, args []string, _ subcommands.Env) int {
	ctx, err := cmd.setup(context.Background())
	if err != nil {
		return renderErr(ctx, err)
	}

	family, qualifier, ok := strings.Cut(cmd.column, ":")
	switch {
	case cmd.row == "":
		return renderErr(ctx, errors.New("missing required argument (-row)"))
	case !ok:
		return renderErr(ctx, errors.New(`-column must look like "family:qualifier"`))
	}

	client, tbl, err := cmd.open(ctx)
	if err != nil {
		return renderErr(ctx, err)
	}
	defer client.Close()

	row, err := tbl.ReadModifyWriteRow(ctx, cmd.row, bigtable.IncrementAmount(family, qualifier, cmd.amount))
	if err != nil {
		return renderErr(ctx, errors.Fmt("incrementing: %w", err))
	}
	for _, fam := range row.GetFamilies() {
		for _, col := range fam.GetColumns() {
			for _, cell := range col.GetCells() {
				var v int64
				for _, b := range cell.Value {
					v = v<<8 | int64(b)
				}
				fmt.Printf("%s:%s = %d\n", fam.Name, col.Qualifier, v)
			}
		}
	}
	return 0
}

////////////////////////////////////////////////////////////////////////////////
// Subcommand: sample
////////////////////////////////////////////////////////////////////////////////

type cmdRunSample struct {
	commonFlags
}

var subcommandSample = subcommands.Command{
	UsageLine: "sample -project ... -instance ... -table ...",
	ShortDesc: "prints the table's row key samples",
	CommandRun: func() subcommands.CommandRun {
		var cmd cmdRunSample
		cmd.register(&cmd.Flags)
		return &cmd
	},
}

func (cmd *cmdRunSample) Run(_ subcommands.Application, args []string, _ subcommands.Env) int {
	ctx, err := cmd.setup(context.Background())
	if err != nil {
		return renderErr(ctx, err)
	}

	client, tbl, err := cmd.open(ctx)
	if err != nil {
		return renderErr(ctx, err)
	}
	defer client.Close()

	samples, err := tbl.SampleRowKeys(ctx)
	if err != nil {
		return renderErr(ctx, errors.Fmt("sampling row keys: %w", err))
	}
	for _, s := range samples {
		fmt.Printf("%-12d %q\n", s.OffsetBytes, s.RowKey)
	}
	return 0
}

////////////////////////////////////////////////////////////////////////////////
// main
////////////////////////////////////////////////////////////////////////////////

var application = &subcommands.DefaultApplication{
	Name:  "btlite",
	Title: "Bigtable data-plane utility.",
	// Keep in alphabetical order of their name.
	Commands: []*subcommands.Command{
		subcommands.CmdHelp,
		&subcommandImport,
		&subcommandIncrement,
		&subcommandPut,
		&subcommandSample,
	},
}

func main() {
	os.Exit(subcommands.Run(application, nil))
}
