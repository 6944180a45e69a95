// Package version reports the wgpctl build version from module build info.
package version

import (
	"runtime/debug"
	"strings"
)

const devel = "(devel)"

var readBuildInfo = debug.ReadBuildInfo

// String returns the tagged module version, or (devel) for local, dirty and
// pseudo-versioned builds.
func String() string {
	info, ok := readBuildInfo()
	if !ok {
		return devel
	}
	return release(info.Main.Version)
}

// Revision returns the short VCS revision the binary was built from, with a
// -dirty suffix for modified trees. It is empty when not recorded.
func Revision() string {
	info, ok := readBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}

func release(v string) string {
	if v == "" || v == devel || strings.Contains(v, "+dirty") || isPseudoVersion(v) {
		return devel
	}
	return v
}

// isPseudoVersion matches vX.Y.Z-<14 digit timestamp>-<12+ hex>.
func isPseudoVersion(v string) bool {
	v, _, _ = strings.Cut(v, "+")
	parts := strings.Split(v, "-")
	if len(parts) < 3 {
		return false
	}
	ts, hash := parts[len(parts)-2], parts[len(parts)-1]
	if i := strings.LastIndex(ts, "."); i >= 0 {
		ts = ts[i+1:]
	}
	if len(ts) != 14 || strings.Trim(ts, "0123456789") != "" {
		return false
	}
	return len(hash) >= 12 && strings.Trim(hash, "0123456789abcdefABCDEF") == ""
}
