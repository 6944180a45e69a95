package ops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgpctl/wgpctl/internal/config"
	"github.com/wgpctl/wgpctl/internal/gitutil"
	"github.com/wgpctl/wgpctl/internal/launcher"
	"github.com/wgpctl/wgpctl/internal/prompt"
	"github.com/wgpctl/wgpctl/internal/runner"
	"github.com/wgpctl/wgpctl/internal/target"
	"github.com/wgpctl/wgpctl/internal/timefmt"
	"github.com/wgpctl/wgpctl/internal/venv"
)

// InstallState is one stage of a fresh install. Stages run strictly in
// declaration order.
type InstallState int

const (
	ChooseLocation InstallState = iota
	ConfirmLocation
	DetectPython
	InstallBuildTools
	ValidateParentWritable
	HandleExistingTarget
	CloneApp
	CloneAttentionExtension
	CreateVenv
	InstallBuildDeps
	InstallFramework
	OptionallyBuildAttentionExtension
	InstallAppRequirements
	WriteLauncher
	Done
)

var installStateNames = [...]string{
	ChooseLocation:                    "choose location",
	ConfirmLocation:                   "confirm location",
	DetectPython:                      "detect python",
	InstallBuildTools:                 "install build tools",
	ValidateParentWritable:            "check parent directory",
	HandleExistingTarget:              "check existing installation",
	CloneApp:                          "clone WGP",
	CloneAttentionExtension:           "clone Sage Attention",
	CreateVenv:                        "create virtual environment",
	InstallBuildDeps:                  "install build dependencies",
	InstallFramework:                  "install PyTorch",
	OptionallyBuildAttentionExtension: "build Sage Attention",
	InstallAppRequirements:            "install WGP requirements",
	WriteLauncher:                     "write launcher",
	Done:                              "done",
}

func (s InstallState) String() string {
	if s < 0 || int(s) >= len(installStateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return installStateNames[s]
}

// customLocation is the menu number for typing a path.
const customLocation = 4

type freshInstall struct {
	m      *Manager
	target target.Target
	python string
	// visit, when set, is told about every state entered.
	visit func(InstallState)
}

// FreshInstall walks the install state machine and returns the new target.
// A failed step ends the install where it stands; nothing already cloned or
// created is cleaned up.
func (m *Manager) FreshInstall(ctx context.Context) (target.Target, error) {
	return m.freshInstall(ctx, nil)
}

func (m *Manager) freshInstall(ctx context.Context, visit func(InstallState)) (target.Target, error) {
	fi := &freshInstall{m: m, visit: visit}
	start := m.Now()
	for state := ChooseLocation; state < Done; state++ {
		if err := ctx.Err(); err != nil {
			return target.Target{}, err
		}
		if fi.visit != nil {
			fi.visit(state)
		}
		if err := fi.enter(ctx, state); err != nil {
			if errors.Is(err, ErrCancelled) || errors.Is(err, prompt.ErrInvalidChoice) {
				return target.Target{}, err
			}
			return target.Target{}, fmt.Errorf("fresh install (%s): %w", state, err)
		}
	}
	if fi.visit != nil {
		fi.visit(Done)
	}
	m.UI.Println()
	m.UI.Success("WGP installed in %s (%s)", fi.target.Dir, timefmt.Elapsed(m.Now().Sub(start)))
	m.UI.Info("Start it from the menu or with %s", fi.target.LauncherPath())
	return fi.target, nil
}

func (fi *freshInstall) enter(ctx context.Context, state InstallState) error {
	switch state {
	case ChooseLocation:
		return fi.chooseLocation()
	case ConfirmLocation:
		return fi.confirmLocation()
	case DetectPython:
		return fi.detectPython(ctx)
	case InstallBuildTools:
		return fi.installBuildTools(ctx)
	case ValidateParentWritable:
		return fi.validateParent()
	case HandleExistingTarget:
		return fi.handleExisting()
	case CloneApp:
		return fi.run(ctx, runner.Step{Name: "Cloning WGP", Command: gitutil.Clone(fi.m.Config.App.Repo, fi.target.Dir)})
	case CloneAttentionExtension:
		return fi.run(ctx, runner.Step{Name: "Cloning Sage Attention", Command: gitutil.Clone(fi.m.Config.Sage.Repo, fi.target.SageDir())})
	case CreateVenv:
		return fi.run(ctx, runner.Step{Name: "Creating virtual environment", Command: venv.Create(fi.python, fi.target.VenvDir())})
	case InstallBuildDeps:
		return fi.installBuildDeps(ctx)
	case InstallFramework:
		return fi.installFramework(ctx)
	case OptionallyBuildAttentionExtension:
		return fi.buildAttention(ctx)
	case InstallAppRequirements:
		reqs := venv.Pip(fi.target.VenvDir(), "install", "-r", fi.m.Config.App.Requirements)
		reqs.Dir = fi.target.Dir
		return fi.run(ctx, runner.Step{Name: "Installing WGP requirements", Command: reqs})
	case WriteLauncher:
		return fi.writeLauncher()
	}
	return fmt.Errorf("unknown install state %v", state)
}

func (fi *freshInstall) run(ctx context.Context, steps ...runner.Step) error {
	_, err := fi.m.sequence(ctx, steps...)
	return err
}

func (fi *freshInstall) chooseLocation() error {
	m := fi.m
	m.UI.Info("Where should WGP be installed?")
	for i, loc := range m.Config.Install.Locations {
		m.UI.Printf("  %d) %s\n", i+1, loc)
	}
	m.UI.Printf("  %d) Custom path\n", customLocation)

	n, err := m.Prompt.Choice(fmt.Sprintf("Choice [1-%d]: ", customLocation), customLocation)
	if err != nil {
		return err
	}
	dir := ""
	if n == customLocation {
		answer, err := m.Prompt.Line("Install path: ")
		if err != nil {
			return err
		}
		if answer == "" {
			return fmt.Errorf("%w: empty path", prompt.ErrInvalidChoice)
		}
		dir = config.ExpandHome(answer, m.home())
	} else {
		dir = m.Config.Install.Locations[n-1]
	}
	t, err := target.New(dir)
	if err != nil {
		return err
	}
	fi.target = t
	return nil
}

func (fi *freshInstall) confirmLocation() error {
	ok, err := fi.m.Prompt.Confirm(fmt.Sprintf("Install WGP to %s?", fi.target.Dir))
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

func (fi *freshInstall) detectPython(ctx context.Context) error {
	m := fi.m
	python, err := venv.Detect(m.Runner, m.Config.Python.Candidates)
	if err == nil {
		m.UI.Success("Using %s", python)
		fi.python = python
		return nil
	}
	if !errors.Is(err, venv.ErrNoInterpreter) {
		return err
	}
	fallback := m.Config.Python.Fallback
	m.UI.Warn("no python interpreter found; installing %s", fallback)
	if err := fi.run(ctx,
		runner.Step{Name: "Updating package index", Command: m.sudo("apt-get", "update")},
		runner.Step{
			Name:    "Installing " + fallback,
			Command: m.sudo("apt-get", "install", "-y", fallback, fallback+"-venv", fallback+"-dev"),
		},
	); err != nil {
		return err
	}
	fi.python = fallback
	return nil
}

func (fi *freshInstall) installBuildTools(ctx context.Context) error {
	m := fi.m
	return fi.run(ctx,
		runner.Step{Name: "Updating package index", Command: m.sudo("apt-get", "update")},
		runner.Step{
			Name:    "Installing build tools",
			Command: m.sudo("apt-get", "install", "-y", "build-essential", "git", "wget", "python3-venv", "python3-dev"),
		},
	)
}

func (fi *freshInstall) validateParent() error {
	parent := filepath.Dir(fi.target.Dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", parent, err)
	}
	if err := fi.m.Writable(parent); err != nil {
		return fmt.Errorf("%s is not writable: %w", parent, err)
	}
	return nil
}

// maxListedEntries bounds the preview of an existing directory.
const maxListedEntries = 20

func (fi *freshInstall) handleExisting() error {
	m := fi.m
	entries, err := os.ReadDir(fi.target.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	m.UI.Warn("%s already exists", fi.target.Dir)
	for i, e := range entries {
		if i == maxListedEntries {
			m.UI.Printf("  ... and %d more\n", len(entries)-maxListedEntries)
			break
		}
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		m.UI.Printf("  %s\n", name)
	}
	ok, err := m.Prompt.Confirm(fmt.Sprintf("Delete %s and everything in it?", fi.target.Dir))
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	m.UI.Step("Removing %s", fi.target.Dir)
	return os.RemoveAll(fi.target.Dir)
}

func (fi *freshInstall) installBuildDeps(ctx context.Context) error {
	dir := fi.target.VenvDir()
	return fi.run(ctx,
		runner.Step{Name: "Upgrading pip", Command: venv.Pip(dir, "install", "--upgrade", "pip", "setuptools", "wheel")},
		runner.Step{Name: "Installing build dependencies", Command: venv.Pip(dir, "install", "ninja", "packaging")},
	)
}

func (fi *freshInstall) installFramework(ctx context.Context) error {
	torch := fi.m.Config.Torch
	args := append([]string{"install"}, torch.Packages...)
	args = append(args, "--index-url", torch.IndexURL)
	return fi.run(ctx, runner.Step{
		Name:    "Installing PyTorch (" + strings.Join(torch.Packages, ", ") + ")",
		Command: venv.Pip(fi.target.VenvDir(), args...),
	})
}

// buildAttention is optional and never fails the install.
func (fi *freshInstall) buildAttention(ctx context.Context) error {
	m := fi.m
	ok, err := m.Prompt.Confirm("Build Sage Attention now? This can take a long time")
	if err != nil {
		return err
	}
	if !ok {
		m.UI.Info("Skipping Sage Attention; install it later from the menu.")
		return nil
	}
	res, err := m.buildSage(ctx, fi.target)
	if err != nil {
		m.UI.Warn("Sage Attention: %s", firstLine(err))
		return nil
	}
	if !res.OK() {
		m.UI.Warn("Sage Attention could not be installed; WGP will run without it (log: %s)", m.Config.Sage.BuildLog)
	}
	return nil
}

func (fi *freshInstall) writeLauncher() error {
	m := fi.m
	path := fi.target.LauncherPath()
	m.UI.Step("Writing %s", path)
	return launcher.Write(path, launcher.Script{
		Dir:      fi.target.Dir,
		VenvDir:  fi.target.VenvDir(),
		Entry:    m.Config.App.Entry,
		CUDAHome: m.Config.CUDA.Home,
	})
}
