package main

import (
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/cmd/localepatch/internal/translations"
	"github.com/filecoin-project/localepatch/deps"
	"github.com/filecoin-project/localepatch/lib/backup"
	"github.com/filecoin-project/localepatch/lib/batch"
	"github.com/filecoin-project/localepatch/lib/reqcontext"
	"github.com/filecoin-project/localepatch/lib/verify"
)

var (
	flagDryRun = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: translations.T("show what would change without writing files"),
	}
	flagSkipApplied = &cli.BoolFlag{
		Name:  "skip-applied",
		Usage: translations.T("skip operations the ledger already records with the same content"),
	}
	flagNoBackup = &cli.BoolFlag{
		Name:  "no-backup",
		Usage: translations.T("do not copy targets to the backup dir before writing"),
	}
	flagNoVerify = &cli.BoolFlag{
		Name:  "no-verify",
		Usage: translations.T("do not run the configured verify command"),
	}
	flagYes = &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   translations.T("do not ask for confirmation"),
	}
)

var runFlags = []cli.Flag{flagDryRun, flagSkipApplied, flagNoBackup, flagNoVerify}

// runPlan executes plan against the site selected on the command line and
// prints the report. Failed operations make the command exit non-zero.
func runPlan(cctx *cli.Context, plan *batch.Plan, confirm bool) error {
	d, err := deps.GetDepsCLI(cctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Errorw("closing workspace", "error", err)
		}
	}()

	dryRun := cctx.Bool(flagDryRun.Name)
	if err := d.Lock(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405") + "-" + uuid.New().String()[:8]
	r := &batch.Runner{
		Root:        d.Root,
		Locales:     d.Cfg.Locales,
		Indent:      d.Cfg.Indent,
		DryRun:      dryRun,
		SkipApplied: cctx.Bool(flagSkipApplied.Name),
		RunID:       runID,
	}

	r.Ledger, err = d.Ledger()
	if err != nil {
		return err
	}
	if !dryRun && !cctx.Bool(flagNoBackup.Name) {
		r.Backups = d.Backups(runID)
	}
	if !cctx.Bool(flagNoVerify.Name) {
		r.Verify = verify.Command{
			Run:     d.Cfg.Verify.Command,
			Dir:     d.Root,
			Timeout: time.Duration(d.Cfg.Verify.Timeout),
		}
	}

	if confirm && !dryRun && !cctx.Bool(flagYes.Name) {
		ok, err := confirmRun(len(plan.Merge)+len(plan.Patch), d.Root)
		if err != nil {
			return err
		}
		if !ok {
			_, _ = cctx.App.Writer.Write([]byte(translations.T("Aborted.") + "\n"))
			return nil
		}
	}

	rep, runErr := r.Run(reqcontext.ReqContext(cctx), plan)
	if rep != nil {
		if err := rep.Render(cctx.App.Writer); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	if r.Backups != nil && r.Backups.Saved() > 0 {
		if _, err := backup.Prune(d.BackupDir(), d.Cfg.Backup.Keep); err != nil {
			log.Warnw("pruning backups failed", "error", err)
		}
	}

	return rep.Err()
}

var stdinIsTerminal = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func confirmRun(jobs int, root string) (bool, error) {
	if !stdinIsTerminal() {
		return false, xerrors.Errorf("refusing to apply without confirmation on a non-interactive terminal; pass --yes")
	}
	_, err := (&promptui.Prompt{
		Label:     translations.T("Apply %d jobs to %s?", jobs, root),
		IsConfirm: true,
	}).Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
