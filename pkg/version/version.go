// Package version reports how the brainlib binary was built.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Release metadata, stamped by the linker:
//
//	-X github.com/Aman-CERP/brainlib/pkg/version.Version=$(VERSION)
//	-X github.com/Aman-CERP/brainlib/pkg/version.Commit=$(git rev-parse --short HEAD)
//
// When Commit or Date are not stamped they are read from the VCS settings
// the go command embeds in module builds.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"

	GoVersion = runtime.Version()

	// Modified is true when the binary was built from a dirty tree.
	Modified bool
)

const shortCommitLen = 7

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fillFromSettings(info.Settings)
}

func fillFromSettings(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && s.Value != "" {
				Commit = s.Value
				if len(Commit) > shortCommitLen {
					Commit = Commit[:shortCommitLen]
				}
			}
		case "vcs.time":
			if Date == "unknown" && s.Value != "" {
				Date = s.Value
			}
		case "vcs.modified":
			Modified = s.Value == "true"
		}
	}
}

// BuildInfo is the JSON form printed by `brainlib version --json`.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Modified  bool   `json:"modified,omitempty"`
}

// String is the one-line banner used by `brainlib version`.
func String() string {
	commit := Commit
	if Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("brainlib %s (commit: %s, built: %s, go: %s)",
		Version, commit, Date, GoVersion)
}

// Short returns the bare version.
func Short() string {
	return Version
}

// GetInfo collects the build metadata together with the target platform.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Modified:  Modified,
	}
}
