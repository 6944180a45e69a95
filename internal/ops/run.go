package ops

import (
	"context"

	"github.com/wgpctl/wgpctl/internal/target"
	"github.com/wgpctl/wgpctl/internal/venv"
)

// Run launches the WGP entry point in the foreground with the virtual
// environment active. extra is appended to the configured run arguments.
func (m *Manager) Run(ctx context.Context, t target.Target, extra []string) error {
	if err := t.RequireVenv(); err != nil {
		return err
	}
	args := append([]string{m.Config.App.Entry}, m.Config.App.RunArgs...)
	args = append(args, extra...)

	cmd := venv.Command(t.VenvDir(), args...)
	cmd.Dir = t.Dir
	m.UI.Step("Starting WGP from %s", t.Dir)
	return m.Runner.Run(ctx, cmd)
}

// OpenDirectory replaces the current process with an interactive shell in the
// installation directory with the virtual environment active. It only
// returns on failure.
func (m *Manager) OpenDirectory(ctx context.Context, t target.Target) error {
	if err := t.RequireVenv(); err != nil {
		return err
	}
	shell := m.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}
	if err := m.Chdir(t.Dir); err != nil {
		return err
	}
	m.UI.Info("Opening %s in %s with the virtual environment active (type exit to leave).", shell, t.Dir)
	return m.Exec(shell, []string{shell, "-i"}, venv.Environ(t.VenvDir()))
}
