package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/filecoin-project/localepatch/build"
	"github.com/filecoin-project/localepatch/cmd/localepatch/internal/translations"
	"github.com/filecoin-project/localepatch/deps"
)

var log = logging.Logger("main")

func SetupLogLevels() {
	if _, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
		_ = logging.SetLogLevel("*", "INFO")
		// pebble internals are noisy at INFO
		_ = logging.SetLogLevel("ledger", "WARN")
	}
}

func main() {
	SetupLogLevels()
	runApp(newApp())
}

func newApp() *cli.App {
	local := []*cli.Command{
		mergeCmd,
		patchCmd,
		applyCmd,
		checkCmd,
		ledgerCmd,
		schemaCmd,
		initCmd,
	}

	return &cli.App{
		Name:                 "localepatch",
		Usage:                translations.T("Patch localized messages and page sources of a multi-language site"),
		Version:              build.UserVersion(),
		EnableBashCompletion: true,
		Before: func(cctx *cli.Context) error {
			if cctx.IsSet("color") {
				color.NoColor = !cctx.Bool("color")
			}
			if cctx.Bool("verbose") {
				_ = logging.SetLogLevel("*", "DEBUG")
			}
			return nil
		},
		Flags: []cli.Flag{
			deps.FlagRoot,
			deps.FlagConfig,
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: translations.T("enable debug logging"),
			},
			&cli.BoolFlag{
				// examined in the Before above
				Name: "color",

				Usage:       translations.T("use color in display output"),
				DefaultText: translations.T("depends on output being a TTY"),
			},
		},
		Commands: local,
	}
}

func runApp(app *cli.App) {
	if err := app.Run(os.Args); err != nil {
		if os.Getenv("LOCALEPATCH_DEV") != "" {
			log.Warnf("%+v", err)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "ERROR: %s\n\n", err) // nolint:errcheck
		}

		var phe *PrintHelpErr
		if errors.As(err, &phe) {
			_ = cli.ShowCommandHelp(phe.Ctx, phe.Ctx.Command.Name)
		}
		os.Exit(1)
	}
}

type PrintHelpErr struct {
	Err error
	Ctx *cli.Context
}

func (e *PrintHelpErr) Error() string {
	return e.Err.Error()
}

func ShowHelp(cctx *cli.Context, err error) error {
	return &PrintHelpErr{Err: err, Ctx: cctx}
}
