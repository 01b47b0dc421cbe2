package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileCreatesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "en.json")

	require.NoError(t, WriteFile(p, []byte(`{"a":1}`)))
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, WriteFile(p, []byte(`{"a":2}`)))
	got, err = os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, `{"a":2}`, string(got))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteFileKeepsMode(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "page.tsx")
	require.NoError(t, os.WriteFile(p, []byte("old"), 0600))
	require.NoError(t, os.Chmod(p, 0600))

	require.NoError(t, WriteFile(p, []byte("new")))

	st, err := os.Stat(p)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), st.Mode().Perm())
}

func TestWriteFileMissingDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nope", "en.json")
	require.Error(t, WriteFile(p, []byte("{}")))
}
