// Package version carries the build identity of the tracelink binary.
package version

import "fmt"

// Stamped by the release build:
//
//	go build -ldflags "-X tracelink/internal/version.Version=1.3.0 \
//	  -X tracelink/internal/version.Commit=$(git rev-parse HEAD) \
//	  -X tracelink/internal/version.BuildDate=$(date -u +%Y-%m-%d)"
var (
	Version   = "1.2.0"
	Commit    = ""
	BuildDate = ""
)

// Info renders the version, with the abbreviated commit when the build
// stamped one in.
func Info() string {
	if len(Commit) >= 7 {
		return fmt.Sprintf("%s (%s)", Version, Commit[:7])
	}
	return Version
}

// Full renders the multi-line identity block shown by the config
// command, with placeholders for unstamped development builds.
func Full() string {
	commit, built := Commit, BuildDate
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("tracelink version %s\nCommit: %s\nBuilt: %s", Version, commit, built)
}
