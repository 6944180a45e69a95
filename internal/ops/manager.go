// Package ops implements the WGP maintenance operations offered by the menu
// and the individual subcommands.
package ops

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/wgpctl/wgpctl/internal/config"
	"github.com/wgpctl/wgpctl/internal/cuda"
	"github.com/wgpctl/wgpctl/internal/mounts"
	"github.com/wgpctl/wgpctl/internal/plugins"
	"github.com/wgpctl/wgpctl/internal/prompt"
	"github.com/wgpctl/wgpctl/internal/runner"
	"github.com/wgpctl/wgpctl/internal/target"
	"github.com/wgpctl/wgpctl/internal/ui"
)

// ErrCancelled indicates the user declined a confirmation. It is a normal
// way for an operation to end, not a failure.
var ErrCancelled = errors.New("cancelled")

// Manager carries everything an operation needs. The function fields default
// to the real OS behaviour and exist so tests can observe side effects.
type Manager struct {
	Config config.Config
	Runner runner.Runner
	Prompt *prompt.Prompter
	UI     *ui.Printer

	Getenv   func(string) string
	Setenv   func(string, string) error
	Chdir    func(string) error
	Exec     func(argv0 string, argv []string, envv []string) error
	Writable func(dir string) error
	Drives   func() ([]mounts.Mount, error)
	Locator  cuda.Locator
	Now      func() time.Time
	IsRoot   bool
}

// New returns a Manager backed by the real operating system.
func New(cfg config.Config, r runner.Runner, p *prompt.Prompter, printer *ui.Printer) *Manager {
	return &Manager{
		Config:   cfg,
		Runner:   r,
		Prompt:   p,
		UI:       printer,
		Getenv:   os.Getenv,
		Setenv:   os.Setenv,
		Chdir:    os.Chdir,
		Exec:     unix.Exec,
		Writable: writable,
		Drives:   mounts.Drives,
		Locator:  cuda.Locator{LookPath: r.LookPath, Exists: cuda.FileExists},
		Now:      time.Now,
		IsRoot:   os.Geteuid() == 0,
	}
}

func writable(dir string) error {
	return unix.Access(dir, unix.W_OK)
}

// sudo prefixes a privileged command unless already running as root.
func (m *Manager) sudo(name string, args ...string) runner.Command {
	if m.IsRoot {
		return runner.Cmd(name, args...)
	}
	return runner.Cmd("sudo", append([]string{name}, args...)...)
}

// sequence runs steps and narrates them.
func (m *Manager) sequence(ctx context.Context, steps ...runner.Step) ([]runner.Result, error) {
	return runner.Sequence(ctx, m.Runner, stepReporter{m.UI}, steps...)
}

// Plugins returns the plugin manager for t.
func (m *Manager) Plugins(t target.Target) *plugins.Manager {
	return &plugins.Manager{
		Dir:      t.PluginsDir(),
		VenvDir:  t.VenvDir(),
		Runner:   m.Runner,
		Progress: m.UI.Err(),
	}
}

func (m *Manager) home() string {
	if h := m.Getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

type stepReporter struct {
	ui *ui.Printer
}

func (s stepReporter) Starting(step runner.Step) {
	s.ui.Step("%s", step.Name)
}

func (s stepReporter) Finished(res runner.Result) {
	switch res.Outcome {
	case runner.FellBack:
		s.ui.Warn("%s: primary command failed, fallback succeeded (%s)", res.Step, firstLine(res.Err))
	case runner.Failed:
		if res.Policy == runner.BestEffort {
			s.ui.Warn("%s: %s", res.Step, firstLine(res.Err))
		}
	}
}

func firstLine(err error) string {
	if err == nil {
		return ""
	}
	line, _, _ := strings.Cut(err.Error(), "\n")
	return line
}
