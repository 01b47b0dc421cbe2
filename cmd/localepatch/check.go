package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/cmd/localepatch/internal/translations"
	"github.com/filecoin-project/localepatch/deps"
	"github.com/filecoin-project/localepatch/lib/coverage"
)

var checkCmd = &cli.Command{
	Name:  "check",
	Usage: translations.T("Report missing, empty and extra keys per locale"),
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "locales",
			Usage: translations.T("locales to check (default: configured locales, or every dictionary found)"),
		},
		&cli.BoolFlag{
			Name:  "details",
			Usage: translations.T("list every offending key"),
		},
	},
	Action: func(cctx *cli.Context) error {
		d, err := deps.GetDepsCLI(cctx)
		if err != nil {
			return err
		}
		defer d.Close() //nolint:errcheck

		locales := cctx.StringSlice("locales")
		if len(locales) == 0 {
			locales = d.Cfg.Locales
		}

		rep, err := coverage.Check(d.Cfg.MessagesDir, d.Cfg.MessagesPattern, d.Cfg.SourceLocale, locales)
		if err != nil {
			return err
		}
		if err := rep.Render(cctx.App.Writer, cctx.Bool("details")); err != nil {
			return err
		}

		if n := rep.Incomplete(); n > 0 {
			return xerrors.New(translations.T("%d locales incomplete", n))
		}
		_, _ = fmt.Fprintln(cctx.App.Writer, color.GreenString("✅ "+translations.T("All locales complete.")))
		return nil
	},
}
