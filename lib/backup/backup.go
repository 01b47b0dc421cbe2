package backup

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	cp "github.com/otiai10/copy"
	"golang.org/x/xerrors"
)

var log = logging.Logger("backup")

// Set copies target files into <dir>/<runID>/<relpath> before they are first
// written during a run. Each file is saved at most once per run so the copy
// always holds the pre-run content.
type Set struct {
	Dir   string
	Root  string
	RunID string

	lk    sync.Mutex
	saved map[string]string
}

func New(dir, root, runID string) *Set {
	return &Set{
		Dir:   dir,
		Root:  root,
		RunID: runID,
		saved: map[string]string{},
	}
}

// RunDir is where this run's copies live.
func (s *Set) RunDir() string {
	return filepath.Join(s.Dir, s.RunID)
}

// Save backs up path. Missing files have nothing to preserve and are ignored.
func (s *Set) Save(path string) (string, error) {
	s.lk.Lock()
	defer s.lk.Unlock()

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", xerrors.Errorf("resolving %s: %w", path, err)
	}
	if dst, ok := s.saved[abs]; ok {
		return dst, nil
	}

	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", xerrors.Errorf("stat %s: %w", abs, err)
	}

	rel, err := s.rel(abs)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.RunDir(), rel)

	if err := cp.Copy(abs, dst, cp.Options{PreserveTimes: true, Sync: true}); err != nil {
		return "", xerrors.Errorf("backing up %s: %w", abs, err)
	}
	s.saved[abs] = dst
	log.Debugw("saved backup", "file", rel, "run", s.RunID)
	return dst, nil
}

// Saved returns the number of files copied in this run.
func (s *Set) Saved() int {
	s.lk.Lock()
	defer s.lk.Unlock()
	return len(s.saved)
}

func (s *Set) rel(abs string) (string, error) {
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", xerrors.Errorf("resolving root %s: %w", s.Root, err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", xerrors.Errorf("relative path of %s: %w", abs, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", xerrors.Errorf("%s is outside of the site root %s", abs, root)
	}
	return rel, nil
}

type Run struct {
	ID      string
	Path    string
	ModTime time.Time
}

// Runs lists backup runs in dir, newest first.
func Runs(dir string) ([]Run, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, xerrors.Errorf("reading backups dir: %w", err)
	}

	var out []Run
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return nil, xerrors.Errorf("stat backup %s: %w", e.Name(), err)
		}
		out = append(out, Run{ID: e.Name(), Path: filepath.Join(dir, e.Name()), ModTime: fi.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out, nil
}

// Prune removes all but the newest keep runs. keep <= 0 disables pruning.
func Prune(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	runs, err := Runs(dir)
	if err != nil {
		return nil, err
	}
	if len(runs) <= keep {
		return nil, nil
	}

	var removed []string
	for _, r := range runs[keep:] {
		if err := os.RemoveAll(r.Path); err != nil {
			return removed, xerrors.Errorf("removing backup %s: %w", r.ID, err)
		}
		removed = append(removed, r.ID)
	}
	log.Infow("pruned backups", "removed", len(removed), "kept", keep)
	return removed, nil
}
