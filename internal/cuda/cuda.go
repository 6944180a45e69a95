// Package cuda holds the CUDA toolkit environment wiring used by install-cuda
// and the generated launcher.
package cuda

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNVCCNotFound indicates nvcc is neither on PATH nor at any fallback path.
var ErrNVCCNotFound = errors.New("nvcc not found")

// Export is one environment variable the toolkit needs.
type Export struct {
	Name string
	// Value is shell syntax; it may reference the variable's previous value.
	Value string
}

func (e Export) Line() string {
	return fmt.Sprintf("export %s=%s", e.Name, e.Value)
}

// Exports returns the CUDA_HOME, PATH and LD_LIBRARY_PATH exports for home.
func Exports(home string) []Export {
	return []Export{
		{Name: "CUDA_HOME", Value: home},
		{Name: "PATH", Value: filepath.Join(home, "bin") + ":$PATH"},
		{Name: "LD_LIBRARY_PATH", Value: filepath.Join(home, "lib64") + ":$LD_LIBRARY_PATH"},
	}
}

// Environ resolves Exports against getenv and returns KEY=VALUE pairs.
func Environ(home string, getenv func(string) string) []string {
	out := make([]string, 0, 3)
	for _, e := range Exports(home) {
		out = append(out, e.Name+"="+expand(e.Value, e.Name, getenv))
	}
	return out
}

// Apply sets the toolkit variables in the current process.
func Apply(home string) error {
	for _, kv := range Environ(home, os.Getenv) {
		name, value, _ := strings.Cut(kv, "=")
		if err := os.Setenv(name, value); err != nil {
			return err
		}
	}
	return nil
}

// expand replaces $name in value with its current value, dropping the
// separator when the variable is empty.
func expand(value, name string, getenv func(string) string) string {
	ref := "$" + name
	if !strings.Contains(value, ref) {
		return value
	}
	cur := getenv(name)
	if cur == "" {
		value = strings.Replace(value, ":"+ref, "", 1)
		return strings.Replace(value, ref, "", 1)
	}
	return strings.Replace(value, ref, cur, 1)
}

// EnsureProfile appends every export whose variable is not already exported
// by the profile at path. It returns the lines it added.
func EnsureProfile(path, home string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var added []string
	for _, e := range Exports(home) {
		if exportsVar(data, e) {
			continue
		}
		added = append(added, e.Line())
	}
	if len(added) == 0 {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString("# CUDA toolkit (added by wgpctl)\n")
	for _, line := range added {
		buf.WriteString(line + "\n")
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return nil, err
	}
	return added, f.Close()
}

// exportsVar reports whether profile already exports e. For PATH-like
// variables only an export mentioning the toolkit directory counts.
func exportsVar(profile []byte, e Export) bool {
	prefix := "export " + e.Name + "="
	want, _, _ := strings.Cut(e.Value, ":$")
	scanner := bufio.NewScanner(bytes.NewReader(profile))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		if e.Name == "CUDA_HOME" || strings.Contains(line, want) || strings.Contains(line, "$CUDA_HOME") {
			return true
		}
	}
	return false
}

// Location describes where nvcc was found.
type Location struct {
	Path   string
	OnPath bool
	// Probed lists the fallback paths checked, in order.
	Probed []string
}

// Locator finds nvcc. Both funcs are required.
type Locator struct {
	LookPath func(string) (string, error)
	Exists   func(string) bool
}

// FileExists reports whether path names a regular file.
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// NVCC checks PATH first, then each fallback in order, stopping at the first
// match.
func (l Locator) NVCC(fallbacks []string) (Location, error) {
	if path, err := l.LookPath("nvcc"); err == nil {
		return Location{Path: path, OnPath: true}, nil
	}
	loc := Location{}
	for _, candidate := range fallbacks {
		loc.Probed = append(loc.Probed, candidate)
		if l.Exists(candidate) {
			loc.Path = candidate
			return loc, nil
		}
	}
	return loc, ErrNVCCNotFound
}
