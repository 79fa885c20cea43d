package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFull(t *testing.T) {
	if Version == "" || Commit == "" {
		t.Fatalf("Version/Commit not populated: %q/%q", Version, Commit)
	}
	if got := Full(); !strings.Contains(got, Version) || !strings.Contains(got, Commit) {
		t.Errorf("Full() = %q", got)
	}
}

func TestDetails(t *testing.T) {
	lines := Details()
	if len(lines) != 3 {
		t.Fatalf("Details() returned %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "sigknife ") || !strings.Contains(lines[2], "v7") {
		t.Errorf("Details() = %q", lines)
	}
}

func TestFromBuildInfo(t *testing.T) {
	setting := func(kv ...string) []debug.BuildSetting {
		var out []debug.BuildSetting
		for i := 0; i < len(kv); i += 2 {
			out = append(out, debug.BuildSetting{Key: kv[i], Value: kv[i+1]})
		}
		return out
	}

	tests := []struct {
		name        string
		info        debug.BuildInfo
		wantVersion string
		wantCommit  string
	}{
		{
			name:        "module version",
			info:        debug.BuildInfo{Main: debug.Module{Version: "v0.3.1"}, Settings: setting("vcs.revision", "0123456789abcdef")},
			wantVersion: "v0.3.1",
			wantCommit:  "0123456",
		},
		{
			name:        "devel build uses commit time",
			info:        debug.BuildInfo{Main: debug.Module{Version: "(devel)"}, Settings: setting("vcs.revision", "abc", "vcs.modified", "true", "vcs.time", "2026-03-04T05:06:07Z")},
			wantVersion: "dev-20260304",
			wantCommit:  "abc-dirty",
		},
		{
			name: "no metadata",
			info: debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
		},
		{
			name: "bad commit time",
			info: debug.BuildInfo{Settings: setting("vcs.time", "yesterday")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, c := fromBuildInfo(&tt.info)
			if v != tt.wantVersion || c != tt.wantCommit {
				t.Errorf("fromBuildInfo() = %q, %q, want %q, %q", v, c, tt.wantVersion, tt.wantCommit)
			}
		})
	}
}
