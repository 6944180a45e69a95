// Package plugins manages the WGP plugin directory: listing, installing from
// GitHub, updating, and removing user plugins.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wgpctl/wgpctl/internal/gitutil"
	"github.com/wgpctl/wgpctl/internal/runner"
	"github.com/wgpctl/wgpctl/internal/venv"
)

// System plugins ship with WGP and cannot be removed.
var System = []string{
	"wan2gp-about",
	"wan2gp-configuration",
	"wan2gp-gallery",
	"wan2gp-lora-multipliers-ui",
	"wan2gp-plugin-manager",
	"wan2gp-video-mask-creator",
}

var (
	ErrInvalidURL   = errors.New("plugin URL must start with https://github.com/")
	ErrInvalidID    = errors.New("invalid plugin id")
	ErrExists       = errors.New("plugin already installed; remove it first")
	ErrNotFound     = errors.New("plugin not found")
	ErrSystemPlugin = errors.New("system plugins cannot be removed")
	ErrNotGit       = errors.New("plugin is not a git checkout and cannot be updated")
)

const githubPrefix = "https://github.com/"

// Info describes one installed plugin.
type Info struct {
	ID     string
	Path   string
	System bool
	// Origin is the clone URL for git-backed plugins.
	Origin string
}

// Manager operates on the plugins directory of one installation.
type Manager struct {
	Dir     string
	VenvDir string
	Runner  runner.Runner
	// Progress receives clone and fetch progress; nil discards it.
	Progress io.Writer
}

func IsSystem(id string) bool {
	for _, s := range System {
		if s == id {
			return true
		}
	}
	return false
}

// List returns plugins that WGP would load: directories with an __init__.py.
// System plugins sort first, then by id.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.Dir, entry.Name())
		if !exists(filepath.Join(dir, "__init__.py")) {
			continue
		}
		info := Info{ID: entry.Name(), Path: dir, System: IsSystem(entry.Name())}
		if gitutil.IsRepo(dir) {
			info.Origin, _ = gitutil.RemoteURL(dir, "origin")
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].System != out[j].System {
			return out[i].System
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// IDFromURL derives the plugin id a GitHub URL installs as.
func IDFromURL(url string) (string, error) {
	if !strings.HasPrefix(url, githubPrefix) {
		return "", ErrInvalidURL
	}
	id := strings.TrimSuffix(path.Base(strings.TrimSuffix(url, "/")), ".git")
	if err := validateID(id); err != nil {
		return "", err
	}
	return id, nil
}

// Install clones url into the plugins directory and installs its Python
// dependencies into the venv.
func (m *Manager) Install(ctx context.Context, url string) (string, error) {
	id, err := IDFromURL(url)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(m.Dir, id)
	if exists(dir) {
		return "", fmt.Errorf("%s: %w", id, ErrExists)
	}
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return "", err
	}
	if err := gitutil.CloneInto(ctx, url, dir, m.progress()); err != nil {
		return "", err
	}
	if err := m.installDeps(ctx, dir); err != nil {
		return id, err
	}
	if setup := filepath.Join(dir, "setup.py"); exists(setup) {
		if err := m.Runner.Run(ctx, venv.Pip(m.VenvDir, "install", "-e", dir)); err != nil {
			return id, fmt.Errorf("setup %s: %w", id, err)
		}
	}
	initPath := filepath.Join(dir, "__init__.py")
	if !exists(initPath) {
		if err := os.WriteFile(initPath, nil, 0o644); err != nil {
			return id, err
		}
	}
	return id, nil
}

// Update fetches origin and pulls when the checked-out branch is behind. It
// reports whether anything changed.
func (m *Manager) Update(ctx context.Context, id string) (bool, error) {
	dir, err := m.pluginDir(id)
	if err != nil {
		return false, err
	}
	if !gitutil.IsRepo(dir) {
		return false, fmt.Errorf("%s: %w", id, ErrNotGit)
	}
	if err := gitutil.Fetch(ctx, dir, "origin", m.progress()); err != nil {
		return false, err
	}
	branch, err := gitutil.CurrentBranch(dir)
	if err != nil {
		return false, err
	}
	local, err := gitutil.HeadHash(dir)
	if err != nil {
		return false, err
	}
	remote, ok, err := gitutil.RemoteBranchHead(dir, "origin", branch)
	if err != nil {
		return false, err
	}
	if ok && remote == local {
		return false, nil
	}
	if err := m.Runner.Run(ctx, gitutil.Command(dir, "pull", "origin", branch)); err != nil {
		return false, err
	}
	if err := m.installDeps(ctx, dir); err != nil {
		return true, err
	}
	return true, nil
}

// Remove deletes a user plugin.
func (m *Manager) Remove(id string) error {
	if IsSystem(id) {
		return fmt.Errorf("%s: %w", id, ErrSystemPlugin)
	}
	dir, err := m.pluginDir(id)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// Reinstall removes a git-backed plugin and installs it again from its origin.
func (m *Manager) Reinstall(ctx context.Context, id string) error {
	dir, err := m.pluginDir(id)
	if err != nil {
		return err
	}
	url, err := gitutil.RemoteURL(dir, "origin")
	if err != nil {
		return fmt.Errorf("%s: %w", id, ErrNotGit)
	}
	if err := m.Remove(id); err != nil {
		return err
	}
	_, err = m.Install(ctx, url)
	return err
}

func (m *Manager) installDeps(ctx context.Context, dir string) error {
	req := filepath.Join(dir, "requirements.txt")
	if !exists(req) {
		return nil
	}
	if err := m.Runner.Run(ctx, venv.Pip(m.VenvDir, "install", "-r", req)); err != nil {
		return fmt.Errorf("install requirements for %s: %w", filepath.Base(dir), err)
	}
	return nil
}

func (m *Manager) pluginDir(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	dir := filepath.Join(m.Dir, id)
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return dir, nil
}

func (m *Manager) progress() io.Writer {
	if m.Progress == nil {
		return io.Discard
	}
	return m.Progress
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
