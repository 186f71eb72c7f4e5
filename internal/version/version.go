// Package version identifies the kiosk build.
//
// The version appears in the kiosk footer, in `bhkiosk version`, in the
// User-Agent of every registration request and in the keypad /healthz
// reply, so a front desk report can be matched to a build. Release builds
// set it with ldflags:
//
//	go build -ldflags="-X github.com/muurk/bhkiosk/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/bhkiosk/internal/version.Commit=abc123" ./cmd/bhkiosk
//
// Local builds fall back to the VCS stamp in the binary, then to "dev".
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

var (
	// Version is the release of the kiosk, e.g. v1.2.3
	Version = ""
	// Commit is the short git hash the kiosk was built from
	Commit = ""
)

// shortHashLen matches `git rev-parse --short`
const shortHashLen = 7

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			fromVCS(info.Settings)
		}
	}

	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromVCS fills whatever ldflags left empty from the build's vcs.* settings
func fromVCS(settings []debug.BuildSetting) {
	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		vcs[s.Key] = s.Value
	}

	if rev := vcs["vcs.revision"]; Commit == "" && rev != "" {
		if len(rev) > shortHashLen {
			rev = rev[:shortHashLen]
		}
		if vcs["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}

	// Tags are not in build info; a dated dev version is the best we have
	if Version == "" {
		if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the version with its commit, as printed by `bhkiosk version`
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent returns the product token sent to the registration server and
// reported by the keypad health endpoint
func UserAgent() string {
	return "bhkiosk/" + Version
}
