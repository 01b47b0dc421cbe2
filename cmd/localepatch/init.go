package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/mitchellh/go-homedir"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/cmd/localepatch/internal/translations"
	"github.com/filecoin-project/localepatch/deps"
	"github.com/filecoin-project/localepatch/deps/config"
	"github.com/filecoin-project/localepatch/lib/atomicfile"
	"github.com/filecoin-project/localepatch/lib/batch"
	"github.com/filecoin-project/localepatch/lib/coverage"
)

var initCmd = &cli.Command{
	Name:  "init",
	Usage: translations.T("Create localepatch.toml interactively"),
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   translations.T("accept detected defaults without prompting"),
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: translations.T("overwrite an existing config file"),
		},
	},
	Action: func(cctx *cli.Context) error {
		root, err := homedir.Expand(cctx.String(deps.FlagRoot.Name))
		if err != nil {
			return err
		}
		if root, err = filepath.Abs(root); err != nil {
			return err
		}

		path := cctx.String(deps.FlagConfig.Name)
		if path == "" {
			path = filepath.Join(root, config.FileName)
		}
		if _, err := os.Stat(path); err == nil && !cctx.Bool("force") {
			return xerrors.Errorf("%s already exists; pass --force to overwrite", path)
		}

		cfg := config.DefaultConfig()
		cfg.Locales, _ = coverage.Discover(filepath.Join(root, cfg.MessagesDir), cfg.MessagesPattern)

		if !cctx.Bool("yes") {
			if err := promptConfig(cfg); err != nil {
				return err
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		b, err := config.Encode(cfg)
		if err != nil {
			return err
		}
		if err := atomicfile.WriteFile(path, b); err != nil {
			return err
		}
		if err := ignoreStateDir(root, cfg.StateDir); err != nil {
			log.Warnw("could not update .gitignore", "error", err)
		}

		_, _ = fmt.Fprintln(cctx.App.Writer, translations.T("Wrote %s", path))
		return nil
	},
}

func promptConfig(cfg *config.Config) error {
	var err error

	cfg.MessagesDir, err = (&promptui.Prompt{
		Label:   translations.T("Directory with the locale dictionaries"),
		Default: cfg.MessagesDir,
	}).Run()
	if err != nil {
		return err
	}

	cfg.SourceLocale, err = (&promptui.Prompt{
		Label:   translations.T("Source locale"),
		Default: cfg.SourceLocale,
		Validate: func(s string) error {
			return batch.ValidateLocales(strings.TrimSpace(s))
		},
	}).Run()
	if err != nil {
		return err
	}
	cfg.SourceLocale = strings.TrimSpace(cfg.SourceLocale)

	locales, err := (&promptui.Prompt{
		Label:   translations.T("Locales (comma separated)"),
		Default: strings.Join(cfg.Locales, ","),
		Validate: func(s string) error {
			return batch.ValidateLocales(splitList(s)...)
		},
	}).Run()
	if err != nil {
		return err
	}
	cfg.Locales = splitList(locales)

	cfg.Verify.Command, err = (&promptui.Prompt{
		Label:   translations.T("Verify command run after source patches (empty to skip)"),
		Default: cfg.Verify.Command,
	}).Run()
	return err
}

func splitList(s string) []string {
	return lo.Uniq(lo.Compact(lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})))
}

// ignoreStateDir adds the state dir to an existing .gitignore.
func ignoreStateDir(root, stateDir string) error {
	rel := stateDir
	if filepath.IsAbs(stateDir) {
		r, err := filepath.Rel(root, stateDir)
		if err != nil || strings.HasPrefix(r, "..") {
			return nil
		}
		rel = r
	}
	entry := "/" + filepath.ToSlash(rel) + "/"

	p := filepath.Join(root, ".gitignore")
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == entry || line == strings.Trim(entry, "/") || line == strings.TrimPrefix(entry, "/") {
			return nil
		}
	}

	if len(b) > 0 && !bytes.HasSuffix(b, []byte("\n")) {
		b = append(b, '\n')
	}
	b = append(b, []byte(entry+"\n")...)
	return atomicfile.WriteFile(p, b)
}
