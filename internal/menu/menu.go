// Package menu is the interactive numbered menu that dispatches to the WGP
// operations.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wgpctl/wgpctl/internal/ops"
	"github.com/wgpctl/wgpctl/internal/prompt"
	"github.com/wgpctl/wgpctl/internal/runner"
	"github.com/wgpctl/wgpctl/internal/target"
	"github.com/wgpctl/wgpctl/internal/ui"
)

// Choice is one menu entry, numbered as shown to the user.
type Choice int

const (
	Run Choice = iota + 1
	UpdateGit
	UpdatePython
	UpdateAll
	Status
	FreshInstall
	InstallCUDA
	ReinstallSage
	FindDrives
	OpenDirectory
	ChangeDirectory
	Exit
)

var labels = [...]string{
	Run:             "Run WGP",
	UpdateGit:       "Update WGP (git pull)",
	UpdatePython:    "Update Python dependencies",
	UpdateAll:       "Update everything",
	Status:          "Show status",
	FreshInstall:    "Fresh install",
	InstallCUDA:     "Install CUDA toolkit",
	ReinstallSage:   "Reinstall Sage Attention",
	FindDrives:      "Find drives",
	OpenDirectory:   "Open WGP directory in a shell",
	ChangeDirectory: "Change WGP directory",
	Exit:            "Exit",
}

func (c Choice) String() string {
	if c < Run || c > Exit {
		return fmt.Sprintf("choice(%d)", int(c))
	}
	return labels[c]
}

// Parse maps a typed answer to a Choice.
func Parse(answer string) (Choice, error) {
	n, err := prompt.ParseChoice(answer, int(Exit))
	if err != nil {
		return 0, err
	}
	return Choice(n), nil
}

// Operations is what the menu can dispatch to.
type Operations interface {
	Run(ctx context.Context, t target.Target, extra []string) error
	UpdateGit(ctx context.Context, t target.Target) error
	UpdatePython(ctx context.Context, t target.Target) error
	UpdateAll(ctx context.Context, t target.Target) error
	Status(ctx context.Context, t target.Target) error
	FreshInstall(ctx context.Context) (target.Target, error)
	InstallCUDA(ctx context.Context) error
	ReinstallSage(ctx context.Context, t target.Target) error
	FindDrives(ctx context.Context) error
	OpenDirectory(ctx context.Context, t target.Target) error
	ChangeDirectory(t target.Target) (target.Target, error)
}

// Loop owns the session target. Only FreshInstall and ChangeDirectory
// replace it.
type Loop struct {
	Ops    Operations
	Prompt *prompt.Prompter
	UI     *ui.Printer
	Target target.Target
}

// Run shows the menu until Exit is chosen or input ends.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.render()
		answer, err := l.Prompt.Line(fmt.Sprintf("Select an option [1-%d]: ", int(Exit)))
		if errors.Is(err, io.EOF) {
			l.UI.Println()
			return nil
		}
		if err != nil {
			return err
		}
		choice, err := Parse(answer)
		if err != nil {
			l.UI.Error("%v", err)
			continue
		}
		if choice == Exit {
			l.UI.Info("Goodbye.")
			return nil
		}

		l.UI.Println()
		l.report(choice, l.Dispatch(ctx, choice))
		if _, err := l.Prompt.Line("\nPress Enter to return to the menu..."); errors.Is(err, io.EOF) {
			l.UI.Println()
			return nil
		}
	}
}

// Dispatch runs one operation against the session target.
func (l *Loop) Dispatch(ctx context.Context, c Choice) error {
	t := l.Target
	switch c {
	case Run:
		return l.Ops.Run(ctx, t, nil)
	case UpdateGit:
		return l.Ops.UpdateGit(ctx, t)
	case UpdatePython:
		return l.Ops.UpdatePython(ctx, t)
	case UpdateAll:
		return l.Ops.UpdateAll(ctx, t)
	case Status:
		return l.Ops.Status(ctx, t)
	case FreshInstall:
		next, err := l.Ops.FreshInstall(ctx)
		if err == nil {
			l.Target = next
		}
		return err
	case InstallCUDA:
		return l.Ops.InstallCUDA(ctx)
	case ReinstallSage:
		return l.Ops.ReinstallSage(ctx, t)
	case FindDrives:
		return l.Ops.FindDrives(ctx)
	case OpenDirectory:
		return l.Ops.OpenDirectory(ctx, t)
	case ChangeDirectory:
		next, err := l.Ops.ChangeDirectory(t)
		if err == nil {
			l.Target = next
		}
		return err
	}
	return fmt.Errorf("unhandled menu choice %d", int(c))
}

func (l *Loop) report(c Choice, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ops.ErrCancelled):
		l.UI.Info("%s cancelled.", c)
	default:
		if code, ok := runner.ExitCode(err); ok && c == Run {
			l.UI.Warn("WGP exited with status %d", code)
			return
		}
		l.UI.Error("%s: %v", c, err)
	}
}

func (l *Loop) render() {
	state := "installed"
	switch {
	case !l.Target.Installed():
		state = "not installed"
	case !l.Target.HasVenv():
		state = "no virtual environment"
	}
	l.UI.Println()
	l.UI.Header("WGP Installer & Manager", "Directory: "+l.Target.Dir, "State: "+state)
	for c := Run; c <= Exit; c++ {
		l.UI.Printf("  %2d) %s\n", int(c), c)
	}
}
