package build

import (
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// /////START BUILD_TIME POPULATED VARS///////

// Format: short hash, set with -ldflags "-X .../build.CurrentCommit=+git.abc123"
var CurrentCommit string

// /////END BUILD_TIME POPULATED VARS///////

// Intent: Major.Minor.Patch
var BuildVersionArray = [3]int{0, 4, 0}

// RC
var BuildVersionRC = 0

// Ex: "0.4.0" or "0.4.0-rc1"
var BuildVersion string

func init() {
	BuildVersion = versionString(BuildVersionArray, BuildVersionRC)
}

func versionString(arr [3]int, rc int) string {
	version := strings.Join(lo.Map(arr[:],
		func(i int, _ int) string { return strconv.Itoa(i) }), ".")

	if rc > 0 {
		version += "-rc" + strconv.Itoa(rc)
	}
	return version
}

func UserVersion() string {
	if os.Getenv("LOCALEPATCH_VERSION_IGNORE_COMMIT") == "1" {
		return BuildVersion
	}
	return BuildVersion + CurrentCommit
}
