package ops

import (
	"context"
	"strings"

	"github.com/wgpctl/wgpctl/internal/gitutil"
	"github.com/wgpctl/wgpctl/internal/runner"
	"github.com/wgpctl/wgpctl/internal/target"
	"github.com/wgpctl/wgpctl/internal/timefmt"
	"github.com/wgpctl/wgpctl/internal/venv"
)

const torchProbe = "import torch; print(torch.__version__); print(torch.cuda.is_available())"

const sageProbe = "import sageattention as s; print(getattr(s, '__version__', 'installed'))"

// Status reports on the installation. Only the missing-directory check is
// fatal; every probe after it is best-effort.
func (m *Manager) Status(ctx context.Context, t target.Target) error {
	if err := t.RequireInstalled(); err != nil {
		return err
	}

	m.UI.Header("WGP status", t.Dir)

	if gitutil.IsRepo(t.Dir) {
		_, _ = m.sequence(ctx, runner.Step{
			Name:    "git status",
			Command: gitutil.Command(t.Dir, "status", "--short", "--branch"),
			Policy:  runner.BestEffort,
		})
		m.printRepoSummary(t.Dir)
		if ts, err := gitutil.HeadTimestamp(t.Dir); err == nil {
			m.UI.Field("Last commit", timefmt.Relative(ts, m.Now()))
		}
	} else {
		m.UI.Warn("%s is not a git checkout", t.Dir)
	}

	if !t.HasVenv() {
		m.UI.Field("Virtual env", "not found")
	} else {
		m.UI.Field("Virtual env", t.VenvDir())
		if out, err := m.Runner.Output(ctx, venv.Command(t.VenvDir(), "--version")); err == nil {
			m.UI.Field("Python", strings.TrimPrefix(out, "Python "))
		} else {
			m.UI.Field("Python", "unavailable")
		}

		out, err := m.Runner.Output(ctx, venv.Command(t.VenvDir(), "-c", torchProbe))
		if version, cudaOK, ok := parseTorchProbe(out); err == nil && ok {
			m.UI.Field("PyTorch", version)
			m.UI.Field("CUDA available", cudaOK)
		} else {
			m.UI.Field("PyTorch", "not installed")
		}

		if out, err := m.Runner.Output(ctx, venv.Command(t.VenvDir(), "-c", sageProbe)); err == nil && out != "" {
			m.UI.Field("Sage Attention", out)
		} else {
			m.UI.Field("Sage Attention", "not installed")
		}
	}

	if list, err := m.Plugins(t).List(); err == nil {
		m.UI.Field("Plugins", len(list))
	}

	if out, err := m.Runner.Output(ctx, runner.Cmd("du", "-sh", t.Dir)); err == nil {
		if fields := strings.Fields(out); len(fields) > 0 {
			m.UI.Field("Disk usage", fields[0])
		}
	} else {
		m.UI.Field("Disk usage", "unknown")
	}
	return nil
}

// parseTorchProbe reads the two lines printed by torchProbe. Import warnings
// may precede them, so only the last two lines count.
func parseTorchProbe(out string) (version string, cudaOK bool, ok bool) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return "", false, false
	}
	version = strings.TrimSpace(lines[len(lines)-2])
	switch strings.TrimSpace(lines[len(lines)-1]) {
	case "True":
		cudaOK = true
	case "False":
	default:
		return "", false, false
	}
	return version, cudaOK, version != ""
}
