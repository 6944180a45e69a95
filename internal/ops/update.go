package ops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wgpctl/wgpctl/internal/config"
	"github.com/wgpctl/wgpctl/internal/gitutil"
	"github.com/wgpctl/wgpctl/internal/runner"
	"github.com/wgpctl/wgpctl/internal/target"
	"github.com/wgpctl/wgpctl/internal/venv"
)

// UpdateGit fetches every remote and pulls from the one the user picks.
func (m *Manager) UpdateGit(ctx context.Context, t target.Target) error {
	if err := t.RequireInstalled(); err != nil {
		return err
	}

	m.printRepoSummary(t.Dir)

	if _, err := m.sequence(ctx, runner.Step{
		Name:    "Fetching all remotes",
		Command: gitutil.Command(t.Dir, "fetch", "--all"),
	}); err != nil {
		return err
	}

	remote, err := m.chooseRemote()
	if err != nil {
		return err
	}

	steps := []runner.Step{}
	has, err := gitutil.HasRemote(t.Dir, remote.Name)
	if err != nil {
		return err
	}
	if !has {
		if remote.URL == "" {
			return fmt.Errorf("remote %s is not configured in %s and config has no url for it", remote.Name, t.Dir)
		}
		m.UI.Step("Adding remote %s (%s)", remote.Name, remote.URL)
		if err := gitutil.AddRemote(t.Dir, remote.Name, remote.URL); err != nil {
			return err
		}
		steps = append(steps, runner.Step{
			Name:    "Fetching " + remote.Name,
			Command: gitutil.Command(t.Dir, "fetch", remote.Name),
		})
	}
	steps = append(steps, runner.Step{
		Name:    fmt.Sprintf("Pulling %s/%s", remote.Name, remote.Branch),
		Command: gitutil.Command(t.Dir, "pull", remote.Name, remote.Branch),
	})
	if _, err := m.sequence(ctx, steps...); err != nil {
		return err
	}
	m.UI.Success("Repository updated from %s/%s", remote.Name, remote.Branch)
	return nil
}

func (m *Manager) chooseRemote() (config.RemoteBlock, error) {
	m.UI.Println()
	m.UI.Info("Pull from:")
	for i, r := range m.Config.Remotes {
		desc := r.Name + "/" + r.Branch
		if r.URL != "" {
			desc += "  " + m.UI.Dim(r.URL)
		}
		m.UI.Printf("  %d) %s\n", i+1, desc)
	}
	cancel := len(m.Config.Remotes) + 1
	m.UI.Printf("  %d) Cancel\n", cancel)

	n, err := m.Prompt.Choice(fmt.Sprintf("Choice [1-%d]: ", cancel), cancel)
	if err != nil {
		return config.RemoteBlock{}, err
	}
	if n == cancel {
		return config.RemoteBlock{}, ErrCancelled
	}
	return m.Config.Remotes[n-1], nil
}

func (m *Manager) printRepoSummary(dir string) {
	branch, err := gitutil.CurrentBranch(dir)
	if err != nil {
		m.UI.Warn("cannot read current branch: %s", firstLine(err))
		branch = "(unknown)"
	}
	m.UI.Field("Branch", branch)

	remotes, err := gitutil.Remotes(dir)
	if err != nil {
		m.UI.Warn("cannot list remotes: %s", firstLine(err))
		return
	}
	if len(remotes) == 0 {
		m.UI.Field("Remotes", "(none)")
		return
	}
	for _, r := range remotes {
		m.UI.Field("Remote "+r.Name, strings.Join(r.URLs, ", "))
	}
}

// UpdatePython upgrades pip and reinstalls the application requirements.
func (m *Manager) UpdatePython(ctx context.Context, t target.Target) error {
	if err := t.RequireVenv(); err != nil {
		return err
	}
	reqs := venv.Pip(t.VenvDir(), "install", "--upgrade", "-r", m.Config.App.Requirements)
	reqs.Dir = t.Dir
	_, err := m.sequence(ctx,
		runner.Step{
			Name:    "Upgrading pip",
			Command: venv.Pip(t.VenvDir(), "install", "--upgrade", "pip"),
		},
		runner.Step{
			Name:    "Updating Python requirements",
			Command: reqs,
		},
	)
	if err != nil {
		return err
	}
	m.UI.Success("Python dependencies updated")
	return nil
}

// UpdateAll runs UpdateGit then UpdatePython. A git failure or cancellation
// does not stop the Python update; nothing is rolled back.
func (m *Manager) UpdateAll(ctx context.Context, t target.Target) error {
	if err := t.RequireInstalled(); err != nil {
		return err
	}
	gitErr := m.UpdateGit(ctx, t)
	switch {
	case errors.Is(gitErr, ErrCancelled):
		m.UI.Info("Git update skipped.")
		gitErr = nil
	case gitErr != nil:
		m.UI.Warn("git update failed: %s", firstLine(gitErr))
		gitErr = fmt.Errorf("git update: %w", gitErr)
	}
	pyErr := m.UpdatePython(ctx, t)
	if pyErr != nil {
		pyErr = fmt.Errorf("python update: %w", pyErr)
	}
	return errors.Join(gitErr, pyErr)
}
