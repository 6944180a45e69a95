package ops

import (
	"github.com/wgpctl/wgpctl/internal/config"
	"github.com/wgpctl/wgpctl/internal/target"
)

// ChangeDirectory asks for a new installation directory. An empty answer
// cancels; an invalid one leaves t untouched.
func (m *Manager) ChangeDirectory(t target.Target) (target.Target, error) {
	m.UI.Field("Current", t.Dir)
	answer, err := m.Prompt.Line("New WGP directory: ")
	if err != nil {
		return t, err
	}
	if answer == "" {
		return t, ErrCancelled
	}
	return m.SetDirectory(t, answer)
}

// SetDirectory switches to dir if it is an existing directory.
func (m *Manager) SetDirectory(t target.Target, dir string) (target.Target, error) {
	next, err := t.Change(config.ExpandHome(dir, m.home()))
	if err != nil {
		return t, err
	}
	m.UI.Success("WGP directory set to %s", next.Dir)
	if !next.HasVenv() {
		m.UI.Warn("no virtual environment in %s; run and update need a fresh install", next.Dir)
	}
	return next, nil
}
