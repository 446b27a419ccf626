package version

import (
	"runtime"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
}

func TestString(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })

	Version, GitCommit = "1.2.0", "unknown"
	if got := String(); got != "autofx 1.2.0" {
		t.Errorf("String() = %q", got)
	}

	GitCommit = "abc1234"
	if got := String(); got != "autofx 1.2.0 (abc1234)" {
		t.Errorf("String() = %q", got)
	}
	if got := UserAgent(); got != "autofx/1.2.0" {
		t.Errorf("UserAgent() = %q", got)
	}
}
