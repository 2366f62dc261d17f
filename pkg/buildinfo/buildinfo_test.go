package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	prev := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = prev })
}

func TestGetFallsBackToEmbeddedInfo(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "4f2a9c1d7e8b0a6c5d3e"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	info := Get()
	if info.Version != "v0.3.1" || info.Commit != "4f2a9c1d7e8b" || info.Date != "2026-10-01T12:00:00Z" || !info.Modified {
		t.Errorf("Get() = %+v", info)
	}
	if !strings.Contains(info.String(), "commit: 4f2a9c1d7e8b+dirty") {
		t.Errorf("String() = %q", info.String())
	}
}

func TestGetPrefersStampedValues(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "4f2a9c1d7e8b"}},
	})
	prevV, prevC := Version, Commit
	Version, Commit = "v1.0.0", "abc1234"
	t.Cleanup(func() { Version, Commit = prevV, prevC })

	info := Get()
	if info.Version != "v1.0.0" || info.Commit != "abc1234" {
		t.Errorf("Get() = %+v", info)
	}
	if got := UserAgent(); got != "artboard/v1.0.0" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestGetWithoutBuildInfo(t *testing.T) {
	withBuildInfo(t, nil)
	info := Get()
	if info.Version != Version || info.Commit != Commit || info.GoVersion == "" {
		t.Errorf("Get() = %+v", info)
	}
	if !strings.HasPrefix(Template(), "{{.Name}} version: ") {
		t.Errorf("Template() = %q", Template())
	}
}

func TestDevelVersionIgnored(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if got := Get().Version; got != Version {
		t.Errorf("Version = %q, want %q", got, Version)
	}
}
