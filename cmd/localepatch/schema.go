package main

import (
	"encoding/json"

	"github.com/urfave/cli/v2"

	"github.com/filecoin-project/localepatch/cmd/localepatch/internal/translations"
	"github.com/filecoin-project/localepatch/lib/batch"
)

var schemaCmd = &cli.Command{
	Name:  "schema",
	Usage: translations.T("Print the JSON schema of plan files"),
	Action: func(cctx *cli.Context) error {
		enc := json.NewEncoder(cctx.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(batch.Schema())
	},
}
