// Command ledger reads and writes the monthly expense files of a folder
// from the terminal.
package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"monthlyexpenses/internal/backend"
	applog "monthlyexpenses/internal/log"
	"monthlyexpenses/internal/services"
)

// globals holds options shared by every command.
type globals struct {
	Dir        string `required:"" env:"LEDGER_DIR" help:"Folder holding the YYYY-MM.csv files."`
	Backend    string `default:"fs" enum:"fs,sqlite" env:"DATA_BACKEND" help:"Folder store to use (fs or sqlite)."`
	SQLitePath string `name:"sqlite-path" default:"./data/ledger.db" env:"SQLITE_DB_PATH" help:"Database file for the sqlite backend."`
	Verbose    bool   `short:"v" help:"Log debug output to stderr."`
}

var cli struct {
	Globals globals `embed:""`

	Show       showCmd       `cmd:"" help:"List the entries of a month."`
	Add        addCmd        `cmd:"" help:"Add an entry to a month, merging with an existing one of the same type."`
	Total      totalCmd      `cmd:"" help:"Sum one expense type over a range of months."`
	Deviations deviationsCmd `cmd:"" help:"Compare a month against the default budgets."`
	Months     monthsCmd     `cmd:"" help:"List the months that have a file."`
	Types      typesCmd      `cmd:"" help:"List the expense types and their default budgets."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("ledger"),
		kong.Description("Monthly expense ledger."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

// open builds the ledger service and selects Dir. The returned cleanup must
// be called once the command is done.
func (g *globals) open(ctx context.Context) (*services.LedgerService, func(), error) {
	level := "warn"
	if g.Verbose {
		level = "debug"
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentCLI,
		Output:    os.Stderr,
	})

	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backend.Config{
		Type:         backend.BackendType(g.Backend),
		CreateDir:    true,
		SQLiteDBPath: g.SQLitePath,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = res.Close() }

	svc := services.NewLedgerService(res.Picker, services.Options{Logger: logger})
	if err := svc.SelectFolder(ctx, g.Dir); err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}
