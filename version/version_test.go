package version

import (
	"strings"
	"testing"
)

func stamp(t *testing.T, v, commit, built string) {
	t.Helper()
	origVersion, origCommit, origBuilt := Version, GitCommit, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = origVersion, origCommit, origBuilt
	})
	Version, GitCommit, BuildTime = v, commit, built
}

func TestGetLinkTimeValuesWin(t *testing.T) {
	stamp(t, "1.2.0", "abc1234", "2026-01-15T10:30:00Z")

	info := Get()
	if info.Version != "1.2.0" || info.GitCommit != "abc1234" || info.BuildTime != "2026-01-15T10:30:00Z" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestInfoIsRelease(t *testing.T) {
	tests := []struct {
		info Info
		want bool
	}{
		{Info{Version: "dev"}, false},
		{Info{Version: "1.0.0"}, true},
		{Info{Version: "1.0.0", Dirty: true}, false},
		{Info{Version: "1.0.0-dirty"}, false},
	}
	for _, tc := range tests {
		if got := tc.info.IsRelease(); got != tc.want {
			t.Errorf("%+v: IsRelease() = %v, want %v", tc.info, got, tc.want)
		}
	}
}

func TestInfoShortAndString(t *testing.T) {
	info := Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true, BuildTime: "2026-01-15T10:30:00Z", GoVersion: "go1.26.0"}
	if got := info.Short(); got != "1.0.0-abc1234-dirty" {
		t.Errorf("Short() = %q", got)
	}
	s := info.String()
	for _, want := range []string{"boundq 1.0.0-abc1234-dirty", "built 2026-01-15T10:30:00Z", "go1.26.0"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
	if got := (Info{Version: "dev"}).String(); got != "boundq dev" {
		t.Errorf("String() = %q", got)
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortCommit = %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("shortCommit = %q", got)
	}
}
