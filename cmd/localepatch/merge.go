package main

import (
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/cmd/localepatch/internal/translations"
	"github.com/filecoin-project/localepatch/lib/batch"
)

var mergeCmd = &cli.Command{
	Name:  "merge",
	Usage: translations.T("Merge a translation payload into locale dictionaries"),
	Description: `Sets the value under --key in each target dictionary to the payload,
keeping every other key and the existing key order. Targets and payloads may
contain {locale}; it is expanded for --locales or the configured locales.

Example:
  localepatch merge --target src/messages/{locale}.json \
    --key guidesAdvancedConfig --payload payloads/advanced/{locale}.yaml --fallback en`,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:     "target",
			Usage:    translations.T("dictionary file relative to the site root, may contain {locale}"),
			Required: true,
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: translations.T("dotted key to merge under; empty merges into the whole document"),
		},
		&cli.StringFlag{
			Name:     "payload",
			Usage:    translations.T("JSON or YAML payload file, may contain {locale}"),
			Required: true,
		},
		&cli.StringFlag{
			Name:  "strategy",
			Usage: translations.T("replace, assign or deep"),
			Value: "replace",
		},
		&cli.StringSliceFlag{
			Name:  "locales",
			Usage: translations.T("locales to expand {locale} for (default: configured locales)"),
		},
		&cli.StringFlag{
			Name:  "fallback",
			Usage: translations.T("locale whose payload is used when a locale has none"),
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

		// targets resolve against --root, payloads against the working directory
		target := cctx.String("target")
		payload, err := filepath.Abs(cctx.String("payload"))
		if err != nil {
			return err
		}

		name := cctx.String("name")
		if name == "" {
			name = jobName("merge", cctx.String("key"))
		}

		plan := &batch.Plan{
			Merge: []batch.MergeJob{{
				Name:     name,
				Target:   target,
				Key:      cctx.String("key"),
				Strategy: cctx.String("strategy"),
				Payload:  payload,
				Locales:  cctx.StringSlice("locales"),
				Fallback: cctx.String("fallback"),
			}},
		}
		if err := plan.Validate(); err != nil {
			return ShowHelp(cctx, err)
		}
		return runPlan(cctx, plan, false)
	},
}

var nameCleaner = strings.NewReplacer(" ", "_", "/", "_", string(filepath.Separator), "_")

func jobName(kind, detail string) string {
	if detail == "" {
		return kind
	}
	return kind + "-" + nameCleaner.Replace(detail)
}
