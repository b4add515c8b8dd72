/*Command-line access to the expense log*/
package main

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"masarif/internal/cli"
	"masarif/internal/config"
	applog "masarif/internal/log"
)

// runContext is handed to every command's Run method.
type runContext struct {
	ctx    context.Context
	cfg    *config.Config
	logger *applog.Logger
	out    io.Writer
	json   bool
}

// commands / flags available
var commands struct {
	LogLevel string `help:"Log level for diagnostics on stderr." default:"warn" enum:"debug,info,warn,error"`
	JSON     bool   `help:"Print JSON instead of tables."`

	Add        addCmd        `cmd:"" help:"Record an expense."`
	List       listCmd       `cmd:"" help:"List expenses, newest first."`
	Summary    summaryCmd    `cmd:"" help:"Show totals overall, for today, per category and per date."`
	Categories categoriesCmd `cmd:"" help:"List the active categories."`
	Export     exportCmd     `cmd:"" help:"Rewrite the spreadsheet from the stored log."`
	Reset      resetCmd      `cmd:"" help:"Delete every recorded expense."`
}

func main() {
	kctx := kong.Parse(&commands,
		kong.Name("masarifctl"),
		kong.Description("Manage the student expense log."),
		kong.UsageOnError(),
	)

	cfg, err := cli.LoadConfig()
	kctx.FatalIfErrorf(err)
	logger := cli.SetupLogger(commands.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	err = kctx.Run(&runContext{
		ctx:    ctx,
		cfg:    cfg,
		logger: logger.WithComponent(applog.ComponentCLI),
		out:    os.Stdout,
		json:   commands.JSON,
	})
	kctx.FatalIfErrorf(err)
}
