package target

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNotInstalled indicates the installation directory does not exist.
	ErrNotInstalled = errors.New("WGP directory not found; run a fresh install or change directory")
	// ErrNoVenv indicates the virtual environment is missing from an existing install.
	ErrNoVenv = errors.New("virtual environment not found; run a fresh install")
	// ErrNotDirectory indicates a requested path is not an existing directory.
	ErrNotDirectory = errors.New("not an existing directory")
)

const (
	venvName     = "venv"
	sageName     = "SageAttention"
	launcherName = "run_wgp.sh"
	pluginsName  = "plugins"
)

// Target is the installation directory of the managed application and the
// paths derived from it. The zero value is not usable; use New.
type Target struct {
	Dir string
}

// New returns a Target rooted at the cleaned absolute form of dir.
func New(dir string) (Target, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Target{}, err
	}
	return Target{Dir: abs}, nil
}

func (t Target) VenvDir() string      { return filepath.Join(t.Dir, venvName) }
func (t Target) SageDir() string      { return filepath.Join(t.Dir, sageName) }
func (t Target) LauncherPath() string { return filepath.Join(t.Dir, launcherName) }
func (t Target) PluginsDir() string   { return filepath.Join(t.Dir, pluginsName) }

// Path joins elem onto the installation directory.
func (t Target) Path(elem ...string) string {
	return filepath.Join(append([]string{t.Dir}, elem...)...)
}

// Installed reports whether the installation directory exists.
func (t Target) Installed() bool {
	return isDir(t.Dir)
}

// HasVenv reports whether the virtual environment directory exists.
func (t Target) HasVenv() bool {
	return isDir(t.VenvDir())
}

// RequireInstalled fails fast when the installation directory is absent.
func (t Target) RequireInstalled() error {
	if !t.Installed() {
		return fmt.Errorf("%s: %w", t.Dir, ErrNotInstalled)
	}
	return nil
}

// RequireVenv fails fast when either the installation or its virtual
// environment is absent.
func (t Target) RequireVenv() error {
	if err := t.RequireInstalled(); err != nil {
		return err
	}
	if !t.HasVenv() {
		return fmt.Errorf("%s: %w", t.VenvDir(), ErrNoVenv)
	}
	return nil
}

// Change validates dir and returns the Target rooted there. On error the
// receiver is returned unchanged so callers can keep using it.
func (t Target) Change(dir string) (Target, error) {
	next, err := New(dir)
	if err != nil {
		return t, err
	}
	if !isDir(next.Dir) {
		return t, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}
	return next, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.IsDir()
}
