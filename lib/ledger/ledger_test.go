package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, l.Close())
	})
	return l
}

func TestRecordAndApplied(t *testing.T) {
	l := openTest(t)

	fp := Fingerprint("merge", "src/messages/de.json", "guidesAdvancedConfig", `{"title":"x"}`)
	ok, err := l.Applied("advanced/de", fp)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Record(Entry{ID: "advanced/de", Fingerprint: fp, Kind: "merge", Locale: "de"}))

	ok, err = l.Applied("advanced/de", fp)
	require.NoError(t, err)
	assert.True(t, ok)

	// same op, new content
	ok, err = l.Applied("advanced/de", Fingerprint("other"))
	require.NoError(t, err)
	assert.False(t, ok)

	e, err := l.Get("advanced/de")
	require.NoError(t, err)
	assert.Equal(t, "de", e.Locale)
	assert.False(t, e.AppliedAt.IsZero())
}

func TestListNewestFirstAndForget(t *testing.T) {
	l := openTest(t)
	now := time.Now()

	require.NoError(t, l.Record(Entry{ID: "a", Fingerprint: "1", AppliedAt: now.Add(-time.Hour)}))
	require.NoError(t, l.Record(Entry{ID: "b", Fingerprint: "2", AppliedAt: now}))

	list, err := l.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)

	require.NoError(t, l.Forget("a"))
	err = l.Forget("a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err = l.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRecordNeedsID(t *testing.T) {
	l := openTest(t)
	require.Error(t, l.Record(Entry{Fingerprint: "x"}))
}

func TestFingerprintBoundaries(t *testing.T) {
	assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
	assert.Equal(t, Fingerprint("a", "b"), Fingerprint("a", "b"))
	assert.Len(t, Fingerprint(), 64)
}
