package mounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

var (
	ErrUnsupported    = errors.New("mount detection unsupported")
	testDataInlineEnv = "WGPCTL_MOUNTS_TEST_DATA"
	testDataFileEnv   = "WGPCTL_MOUNTS_TEST_DATA_FILE"
)

// Mount is a mounted filesystem root and its capacity in bytes.
type Mount struct {
	Path   string `json:"path"`
	FSType string `json:"fstype"`
	Source string `json:"source"`
	Total  uint64 `json:"total"`
	Free   uint64 `json:"free"`
}

// Used returns the bytes in use.
func (m Mount) Used() uint64 {
	if m.Free > m.Total {
		return 0
	}
	return m.Total - m.Free
}

// Drives lists the filesystem root and everything mounted directly under
// /mnt, which is where WSL exposes Windows drives.
func Drives() ([]Mount, error) {
	all, err := List()
	if err != nil {
		return nil, err
	}
	return FilterDrives(all), nil
}

// List returns every mount visible to the process.
func List() ([]Mount, error) {
	if ms, ok, err := fromTestData(); err != nil || ok {
		return ms, err
	}
	return listNative()
}

// FilterDrives keeps "/" and first-level entries under /mnt, sorted by path.
func FilterDrives(all []Mount) []Mount {
	seen := make(map[string]bool)
	var out []Mount
	for _, m := range all {
		if !isDriveRoot(m.Path) || seen[m.Path] {
			continue
		}
		seen[m.Path] = true
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func isDriveRoot(path string) bool {
	if path == "/" {
		return true
	}
	rest, ok := strings.CutPrefix(path, "/mnt/")
	return ok && rest != "" && !strings.Contains(rest, "/")
}

// HumanBytes formats n with binary units, df -h style.
func HumanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit && exp < 5; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}

func fromTestData() ([]Mount, bool, error) {
	if path := os.Getenv(testDataFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, true, fmt.Errorf("read %s: %w", path, err)
		}
		ms, err := decodeTestData(data)
		return ms, true, err
	}
	if data := os.Getenv(testDataInlineEnv); data != "" {
		ms, err := decodeTestData([]byte(data))
		return ms, true, err
	}
	return nil, false, nil
}

func decodeTestData(data []byte) ([]Mount, error) {
	var ms []Mount
	if err := json.Unmarshal(data, &ms); err != nil {
		return nil, fmt.Errorf("parse mount test data: %w", err)
	}
	return ms, nil
}
