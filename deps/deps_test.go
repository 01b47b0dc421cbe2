package deps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/localepatch/deps/config"
)

func TestNewResolvesStateDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte("StateDir = \"state\"\n[Backup]\n  Enable = false\n"), 0644))

	d, err := New(root, "")
	require.NoError(t, err)
	defer d.Close() //nolint:errcheck

	assert.Equal(t, filepath.Join(root, "state"), d.Cfg.StateDir)
	assert.Nil(t, d.Backups("run"))
}

func TestNewNeedsDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), "")
	require.Error(t, err)
}

func TestLockAndLedger(t *testing.T) {
	root := t.TempDir()
	d, err := New(root, "")
	require.NoError(t, err)

	require.NoError(t, d.Lock())
	require.NoError(t, d.Lock())
	assert.FileExists(t, filepath.Join(root, ".localepatch", lockFile))

	l, err := d.Ledger()
	require.NoError(t, err)
	again, err := d.Ledger()
	require.NoError(t, err)
	assert.Same(t, l, again)

	assert.NotNil(t, d.Backups("run"))
	assert.Equal(t, filepath.Join(root, ".localepatch", "backups"), d.BackupDir())

	require.NoError(t, d.Close())

	// released on close
	d2, err := New(root, "")
	require.NoError(t, err)
	require.NoError(t, d2.Lock())
	require.NoError(t, d2.Close())
}
