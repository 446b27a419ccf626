// Package version exposes build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags "-X github.com/autofx/autofx/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns version and build information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns "autofx <version> (<commit>)".
func String() string {
	if GitCommit == "unknown" {
		return "autofx " + Version
	}
	return fmt.Sprintf("autofx %s (%s)", Version, GitCommit)
}

// UserAgent identifies autofx clients to a server.
func UserAgent() string {
	return "autofx/" + Version
}
