package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snadrus/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveKeepsPreRunContent(t *testing.T) {
	root := t.TempDir()
	state := t.TempDir()

	target := filepath.Join(root, "src", "messages", "de.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte(`{"a":1}`), 0644))

	s := New(state, root, "run1")
	dst, err := s.Save(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(state, "run1", "src", "messages", "de.json"), dst)

	require.NoError(t, os.WriteFile(target, []byte(`{"a":2}`), 0644))

	// a second save in the same run must not overwrite the first copy
	_, err = s.Save(target)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(must.One(os.ReadFile(dst))))
	assert.Equal(t, 1, s.Saved())
}

func TestSaveMissingFile(t *testing.T) {
	root := t.TempDir()
	s := New(t.TempDir(), root, "run1")

	dst, err := s.Save(filepath.Join(root, "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, dst)
	assert.Equal(t, 0, s.Saved())
}

func TestSaveOutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := filepath.Join(t.TempDir(), "x.json")
	require.NoError(t, os.WriteFile(other, []byte("{}"), 0644))

	_, err := New(t.TempDir(), root, "run1").Save(other)
	require.Error(t, err)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		p := filepath.Join(dir, id)
		require.NoError(t, os.MkdirAll(p, 0755))
		ts := now.Add(time.Duration(i-3) * time.Hour)
		require.NoError(t, os.Chtimes(p, ts, ts))
	}

	removed, err := Prune(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, removed)

	runs, err := Runs(dir)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)

	removed, err = Prune(dir, 0)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestRunsMissingDir(t *testing.T) {
	runs, err := Runs(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, runs)
}
