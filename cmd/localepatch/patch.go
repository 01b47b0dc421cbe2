package main

import (
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/cmd/localepatch/internal/translations"
	"github.com/filecoin-project/localepatch/lib/batch"
)

var patchCmd = &cli.Command{
	Name:  "patch",
	Usage: translations.T("Insert a block into a source file at an anchor"),
	Description: `Finds --anchor in the target file and inserts the block right after it
(or before it with --before). Nothing is written when the anchor is missing,
matches more than once under --occurrence unique, or the block is already in
the file.`,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:     "target",
			Usage:    translations.T("source file to patch, relative to the site root"),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "anchor",
			Usage:    translations.T("literal text marking the insertion point"),
			Required: true,
		},
		&cli.StringFlag{
			Name:  "insert",
			Usage: translations.T("block to insert"),
		},
		&cli.StringFlag{
			Name:  "insert-file",
			Usage: translations.T("file holding the block to insert, may contain {locale}"),
		},
		&cli.BoolFlag{
			Name:  "before",
			Usage: translations.T("insert before the anchor instead of after it"),
		},
		&cli.StringFlag{
			Name:  "occurrence",
			Usage: translations.T("which anchor match to use: unique, first or last"),
			Value: "unique",
		},
		&cli.StringFlag{
			Name:  "guard",
			Usage: translations.T("where an earlier copy of the block counts as applied: adjacent or anywhere"),
			Value: "adjacent",
		},
		&cli.StringSliceFlag{
			Name:  "locales",
			Usage: translations.T("locales to expand {locale} for"),
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: translations.T("operation name recorded in the ledger"),
		},
	}, runFlags...),
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 0 {
			return ShowHelp(cctx, xerrors.Errorf("unexpected arguments"))
		}

		target := cctx.String("target")
		insertFile := cctx.String("insert-file")
		if insertFile != "" {
			var err error
			if insertFile, err = filepath.Abs(insertFile); err != nil {
				return err
			}
		}

		position := "after"
		if cctx.Bool("before") {
			position = "before"
		}

		name := cctx.String("name")
		if name == "" {
			name = jobName("patch", filepath.Base(cctx.String("target")))
		}

		plan := &batch.Plan{
			Patch: []batch.PatchJob{{
				Name:       name,
				Target:     target,
				Anchor:     unescape(cctx.String("anchor")),
				Insert:     unescape(cctx.String("insert")),
				InsertFile: insertFile,
				Position:   position,
				Occurrence: cctx.String("occurrence"),
				Guard:      cctx.String("guard"),
				Locales:    cctx.StringSlice("locales"),
			}},
		}
		if err := plan.Validate(); err != nil {
			return ShowHelp(cctx, err)
		}
		return runPlan(cctx, plan, false)
	},
}

var escapes = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t")

// unescape turns \n, \t and \\ typed on the command line into the characters
// they stand for.
func unescape(s string) string {
	return escapes.Replace(s)
}
