package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Version and Commit are stamped by the release build:
//
//	go build -ldflags="-X github.com/muurk/sigknife/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/sigknife/internal/version.Commit=abc123"
//
// Unstamped builds take them from the embedded module and VCS metadata.
var (
	Version = ""
	Commit  = ""
)

// SignatureFormat is the newest signature file version understood.
const SignatureFormat = 7

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		v, c := fromBuildInfo(info)
		if Version == "" {
			Version = v
		}
		if Commit == "" {
			Commit = c
		}
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo derives a version and short commit from build metadata.
// Either result is empty when the metadata lacks it.
func fromBuildInfo(info *debug.BuildInfo) (version, commit string) {
	vcs := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		vcs[s.Key] = s.Value
	}

	if rev := vcs["vcs.revision"]; rev != "" {
		commit = rev[:min(len(rev), 7)]
		if vcs["vcs.modified"] == "true" {
			commit += "-dirty"
		}
	}

	switch {
	case info.Main.Version != "" && info.Main.Version != "(devel)":
		version = info.Main.Version
	case vcs["vcs.time"] != "":
		if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
			version = "dev-" + t.Format("20060102")
		}
	}
	return version, commit
}

// Full returns the version with its commit.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Details returns the lines printed by the version command.
func Details() []string {
	return []string{
		"sigknife " + Full(),
		fmt.Sprintf("go: %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
		fmt.Sprintf("signature format: IDASGN v%d (v4 to v6 upgraded on load)", SignatureFormat),
	}
}
