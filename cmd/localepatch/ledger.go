package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/cmd/localepatch/internal/translations"
	"github.com/filecoin-project/localepatch/deps"
	"github.com/filecoin-project/localepatch/lib/ledger"
)

var ledgerCmd = &cli.Command{
	Name:  "ledger",
	Usage: translations.T("Inspect the record of applied operations"),
	Subcommands: []*cli.Command{
		ledgerListCmd,
		ledgerForgetCmd,
	},
}

var ledgerListCmd = &cli.Command{
	Name:  "list",
	Usage: translations.T("List applied operations, newest first"),
	Action: func(cctx *cli.Context) error {
		d, err := deps.GetDepsCLI(cctx)
		if err != nil {
			return err
		}
		defer d.Close() //nolint:errcheck

		l, err := d.Ledger()
		if err != nil {
			return err
		}
		entries, err := l.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(cctx.App.Writer, translations.T("No operations recorded."))
			return nil
		}

		cell := lipgloss.NewStyle().Padding(0, 1)
		t := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(func(row, col int) lipgloss.Style { return cell }).
			Headers("ID", "KIND", "TARGET", "RUN", "APPLIED").
			Rows(lo.Map(entries, func(e ledger.Entry, _ int) []string {
				return []string{e.ID, e.Kind, e.Target, e.RunID, humanize.Time(e.AppliedAt)}
			})...)

		_, err = fmt.Fprintln(cctx.App.Writer, t.String())
		return err
	},
}

var ledgerForgetCmd = &cli.Command{
	Name:      "forget",
	Usage:     translations.T("Remove an operation so --skip-applied runs it again"),
	ArgsUsage: "ID",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return ShowHelp(cctx, xerrors.Errorf("expected exactly one operation id"))
		}

		d, err := deps.GetDepsCLI(cctx)
		if err != nil {
			return err
		}
		defer d.Close() //nolint:errcheck

		if err := d.Lock(); err != nil {
			return err
		}
		l, err := d.Ledger()
		if err != nil {
			return err
		}
		if err := l.Forget(cctx.Args().First()); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cctx.App.Writer, translations.T("Forgot %s", cctx.Args().First()))
		return nil
	},
}
