// Package deps provides the dependencies for localepatch commands.
package deps

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	fslock "github.com/ipfs/go-fs-lock"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/localepatch/deps/config"
	"github.com/filecoin-project/localepatch/lib/backup"
	"github.com/filecoin-project/localepatch/lib/ledger"
)

var log = logging.Logger("localepatch/deps")

const lockFile = "workspace.lock"

var ErrWorkspaceLocked = errors.New("workspace is locked by another localepatch run")

var FlagRoot = &cli.StringFlag{
	Name:    "root",
	EnvVars: []string{"LOCALEPATCH_ROOT"},
	Value:   ".",
	Usage:   "site root containing the messages directory and sources",
}

var FlagConfig = &cli.StringFlag{
	Name:    "config",
	EnvVars: []string{"LOCALEPATCH_CONFIG"},
	Usage:   "config file (default: <root>/localepatch.toml)",
}

type Deps struct {
	Cfg  *config.Config
	Root string

	ledger *ledger.Ledger
	unlock io.Closer
}

// GetDepsCLI loads the config for the site selected by --root/--config.
func GetDepsCLI(cctx *cli.Context) (*Deps, error) {
	return New(cctx.String(FlagRoot.Name), cctx.String(FlagConfig.Name))
}

func New(root, cfgPath string) (*Deps, error) {
	root, err := homedir.Expand(root)
	if err != nil {
		return nil, xerrors.Errorf("expanding root: %w", err)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, xerrors.Errorf("resolving root: %w", err)
	}
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil, xerrors.Errorf("site root %s is not a directory", root)
	}

	cfg, err := config.Load(root, cfgPath)
	if err != nil {
		return nil, err
	}
	log.Debugw("loaded config", "root", root, "messages", cfg.MessagesDir, "state", cfg.StateDir)

	return &Deps{Cfg: cfg, Root: root}, nil
}

// Lock takes the workspace lock in the state dir so two runs never write the
// same site at once.
func (d *Deps) Lock() error {
	if d.unlock != nil {
		return nil
	}
	if err := os.MkdirAll(d.Cfg.StateDir, 0755); err != nil {
		return xerrors.Errorf("creating state dir: %w", err)
	}

	locked, err := fslock.Locked(d.Cfg.StateDir, lockFile)
	if err != nil {
		return xerrors.Errorf("could not check lock status: %w", err)
	}
	if locked {
		return ErrWorkspaceLocked
	}

	closer, err := fslock.Lock(d.Cfg.StateDir, lockFile)
	if err != nil {
		le := fslock.LockedError("")
		if errors.As(err, &le) {
			return xerrors.Errorf("%s: %w", err, ErrWorkspaceLocked)
		}
		return xerrors.Errorf("could not lock the workspace: %w", err)
	}
	d.unlock = closer
	return nil
}

// Ledger opens the applied-operation ledger on first use.
func (d *Deps) Ledger() (*ledger.Ledger, error) {
	if d.ledger != nil {
		return d.ledger, nil
	}
	l, err := ledger.Open(filepath.Join(d.Cfg.StateDir, "ledger"))
	if err != nil {
		return nil, err
	}
	d.ledger = l
	return l, nil
}

func (d *Deps) BackupDir() string {
	return filepath.Join(d.Cfg.StateDir, "backups")
}

// Backups returns the backup set for runID, or nil when backups are disabled.
func (d *Deps) Backups(runID string) *backup.Set {
	if !d.Cfg.Backup.Enable {
		return nil
	}
	return backup.New(d.BackupDir(), d.Root, runID)
}

func (d *Deps) Close() error {
	var merr *multierror.Error
	if d.ledger != nil {
		merr = multierror.Append(merr, d.ledger.Close())
		d.ledger = nil
	}
	if d.unlock != nil {
		merr = multierror.Append(merr, d.unlock.Close())
		d.unlock = nil
	}
	return merr.ErrorOrNil()
}
