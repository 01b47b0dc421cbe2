package build

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// verify version is set from BuildVersionArray, not hardcoded placeholder
func TestBuildVersionNotZero(t *testing.T) {
	if BuildVersion == "0.0.0" {
		t.Fatal("BuildVersion should not be 0.0.0")
	}
	if BuildVersion == "" {
		t.Fatal("BuildVersion should not be empty")
	}
}

func TestVersionString(t *testing.T) {
	require.Equal(t, "1.2.3", versionString([3]int{1, 2, 3}, 0))
	require.Equal(t, "1.2.3-rc2", versionString([3]int{1, 2, 3}, 2))
}

func TestUserVersionIgnoreCommit(t *testing.T) {
	old := CurrentCommit
	CurrentCommit = "+git.abc123"
	defer func() { CurrentCommit = old }()

	require.Equal(t, BuildVersion+"+git.abc123", UserVersion())

	t.Setenv("LOCALEPATCH_VERSION_IGNORE_COMMIT", "1")
	require.Equal(t, BuildVersion, UserVersion())
}
