package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}
	if info.BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestGet_Injected(t *testing.T) {
	oldV, oldC, oldB := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldV, oldC, oldB })

	Version, Commit, BuildTime = "v1.2.3", "0123456789abcdef", "2026-01-02T03:04:05Z"
	info := Get()
	if info.Version != "v1.2.3" || info.Commit != "0123456789abcdef" || info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("Get() = %+v, want injected values", info)
	}

	s := String()
	if !strings.HasPrefix(s, "v1.2.3 (0123456789ab") {
		t.Errorf("String() = %q", s)
	}
	if !strings.Contains(s, runtime.Version()) {
		t.Errorf("String() = %q, want Go version", s)
	}
}
