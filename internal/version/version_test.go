package version

import (
	"runtime/debug"
	"testing"
)

func TestResolvePrefersLinkerValues(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Version: "v0.9.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "ffffffffffffffffffff"},
			{Key: "vcs.time", Value: "2026-01-01T00:00:00Z"},
		},
	}
	info := resolve("v1.2.3", "0123456789abcdef0123", "", bi)
	if info.Version != "v1.2.3" || info.Commit != "0123456789abcdef0123" {
		t.Fatalf("linker values lost: %+v", info)
	}
	if info.BuildTime != "2026-01-01T00:00:00Z" {
		t.Fatalf("expected vcs.time fallback, got %q", info.BuildTime)
	}
	if info.GoVersion != "go1.26.0" {
		t.Fatalf("unexpected go version %q", info.GoVersion)
	}
	if got := info.String(); got != "v1.2.3 (0123456789ab)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestResolveFromBuildInfo(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	info := resolve("", "", "", bi)
	if info.Version != devVersion {
		t.Fatalf("expected %q, got %q", devVersion, info.Version)
	}
	if got := info.String(); got != "dev (abc123, modified)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	t.Parallel()

	info := resolve("", "", "", nil)
	if info.String() != devVersion || info.GoVersion == "" {
		t.Fatalf("unexpected info %+v", info)
	}
}
