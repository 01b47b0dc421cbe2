package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("atomicfile")

const DefaultPerm = 0644

// WriteFile replaces path with data by writing a sibling temp file and
// renaming it over the target. The mode of an existing target is kept.
// A crash at any point leaves either the old or the new content on disk.
func WriteFile(path string, data []byte) error {
	perm := os.FileMode(DefaultPerm)
	if st, err := os.Stat(path); err == nil {
		perm = st.Mode().Perm()
	} else if !os.IsNotExist(err) {
		return xerrors.Errorf("stat %s: %w", path, err)
	}

	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tempDest := filepath.Join(dir, "."+name+"."+uuid.New().String()+".tmp")

	f, err := os.OpenFile(tempDest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return xerrors.Errorf("creating temp file for %s: %w", path, err)
	}

	removeTemp := true
	defer func() {
		if removeTemp {
			if rerr := os.Remove(tempDest); rerr != nil && !os.IsNotExist(rerr) {
				log.Errorw("removing temp file", "path", tempDest, "error", rerr)
			}
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return xerrors.Errorf("writing temp file %s: %w", tempDest, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return xerrors.Errorf("syncing temp file %s: %w", tempDest, err)
	}
	if err := f.Close(); err != nil {
		return xerrors.Errorf("closing temp file %s: %w", tempDest, err)
	}

	// OpenFile applies the umask; put the original permissions back.
	if err := os.Chmod(tempDest, perm); err != nil {
		return xerrors.Errorf("chmod temp file %s: %w", tempDest, err)
	}

	if err := os.Rename(tempDest, path); err != nil {
		return xerrors.Errorf("rename temp file to dest %s -> %s: %w", tempDest, path, err)
	}

	removeTemp = false
	return nil
}
