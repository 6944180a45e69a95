package ops

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgpctl/wgpctl/internal/cuda"
	"github.com/wgpctl/wgpctl/internal/runner"
)

// InstallCUDA installs the toolkit from NVIDIA's WSL repository, exports its
// environment for this process and the user's profile, then checks for nvcc.
func (m *Manager) InstallCUDA(ctx context.Context) error {
	c := m.Config.CUDA
	keyring := filepath.Join(os.TempDir(), filepath.Base(c.KeyringURL))
	fallback := m.sudo("apt-get", "-y", "install", c.FallbackPackage)

	if _, err := m.sequence(ctx,
		runner.Step{Name: "Downloading CUDA keyring", Command: runner.Cmd("wget", "-q", "-O", keyring, c.KeyringURL)},
		runner.Step{Name: "Installing CUDA keyring", Command: m.sudo("dpkg", "-i", keyring)},
		runner.Step{Name: "Updating package index", Command: m.sudo("apt-get", "update")},
		runner.Step{
			Name:     "Installing " + c.ToolkitPackage,
			Command:  m.sudo("apt-get", "-y", "install", c.ToolkitPackage),
			Fallback: &fallback,
		},
	); err != nil {
		return err
	}

	for _, kv := range cuda.Environ(c.Home, m.Getenv) {
		name, value, _ := strings.Cut(kv, "=")
		if err := m.Setenv(name, value); err != nil {
			return err
		}
	}

	added, err := cuda.EnsureProfile(c.Profile, c.Home)
	if err != nil {
		m.UI.Warn("could not update %s: %s", c.Profile, firstLine(err))
	} else if len(added) > 0 {
		m.UI.Step("Added CUDA exports to %s", c.Profile)
	}

	loc, err := m.Locator.NVCC(c.NVCCFallbacks)
	if errors.Is(err, cuda.ErrNVCCNotFound) {
		m.UI.Error("nvcc not found on PATH or in %s", strings.Join(loc.Probed, ", "))
		return err
	}
	if err != nil {
		return err
	}
	if out, err := m.Runner.Output(ctx, runner.Cmd(loc.Path, "--version")); err == nil {
		lines := strings.Split(out, "\n")
		m.UI.Field("nvcc", lines[len(lines)-1])
	}
	if loc.OnPath {
		m.UI.Success("CUDA toolkit ready (%s)", loc.Path)
	} else {
		m.UI.Success("CUDA toolkit ready (%s, open a new shell to pick up PATH)", loc.Path)
	}
	return nil
}
