package main

import (
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/cmd/localepatch/internal/translations"
	"github.com/filecoin-project/localepatch/lib/batch"
)

var applyCmd = &cli.Command{
	Name:      "apply",
	Usage:     translations.T("Run a batch plan of merge and patch jobs"),
	ArgsUsage: "PLAN.toml",
	Description: `Runs every [[merge]] and [[patch]] job of the plan in order. A failing
operation is reported and the run continues with the next one. Payload and
insert_file paths are relative to the plan file, targets to the site root.
See 'localepatch schema' for the plan format.`,
	Flags: append([]cli.Flag{flagYes}, runFlags...),
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return ShowHelp(cctx, xerrors.Errorf("expected exactly one plan file"))
		}

		plan, err := batch.LoadPlan(cctx.Args().First())
		if err != nil {
			return err
		}
		return runPlan(cctx, plan, true)
	},
}
