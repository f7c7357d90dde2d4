// Package version holds the build version of doxyscan.
package version

import "fmt"

// Overridable at build time:
// go build -ldflags "-X doxyscan/internal/version.Version=1.2.0 -X doxyscan/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with an abbreviated commit when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return fmt.Sprintf("%s (%s)", Version, Commit[:7])
	}
	return Version
}

// Full returns a multi-line description for `doxyscan version`.
func Full() string {
	return fmt.Sprintf("doxyscan version %s\nCommit: %s\nBuilt: %s", Version, Commit, BuildDate)
}
