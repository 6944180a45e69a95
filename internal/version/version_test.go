package version

import (
	"runtime/debug"
	"testing"
)

func TestRelease(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", devel},
		{"(devel)", devel},
		{"v1.2.3", "v1.2.3"},
		{"v1.2.3+dirty", devel},
		{"v0.0.0-20250101120000-abcdef123456", devel},
		{"v1.2.4-0.20250101120000-abcdef123456+dirty", devel},
		{"v1.2.4-0.20250101120000-abcdef123456", devel},
		{"v1.2.3-rc1", "v1.2.3-rc1"},
	}
	for _, tc := range cases {
		if got := release(tc.in); got != tc.want {
			t.Fatalf("release(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRevision(t *testing.T) {
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.modified", Value: "true"},
		}}, true
	}
	if got := Revision(); got != "0123456789ab-dirty" {
		t.Fatalf("Revision = %q", got)
	}

	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
	if got := Revision(); got != "" {
		t.Fatalf("Revision without build info = %q", got)
	}
	if got := String(); got != devel {
		t.Fatalf("String without build info = %q", got)
	}
}
