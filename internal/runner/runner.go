package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are applied on top of the current process environment.
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Cmd is shorthand for a Command with no directory or environment.
func Cmd(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes external commands.
type Runner interface {
	// Run executes cmd, streaming its output to the configured writers.
	Run(ctx context.Context, cmd Command) error
	// Output executes cmd and returns its trimmed stdout.
	Output(ctx context.Context, cmd Command) (string, error)
	LookPath(name string) (string, error)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

// ExitCode extracts the exit status carried by err, if any.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// Exec runs commands as child processes. Unset Command streams fall back to
// the Exec's own streams.
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an Exec wired to the given streams.
func New(stdin io.Reader, stdout, stderr io.Writer) *Exec {
	return &Exec{Stdin: stdin, Stdout: stdout, Stderr: stderr}
}

func (e *Exec) Run(ctx context.Context, c Command) error {
	cmd := e.build(ctx, c)
	cmd.Stdout = firstWriter(c.Stdout, e.Stdout)
	cmd.Stderr = firstWriter(c.Stderr, e.Stderr)
	return wrapExit(c, cmd.Run(), "")
}

func (e *Exec) Output(ctx context.Context, c Command) (string, error) {
	cmd := e.build(ctx, c)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", wrapExit(c, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (e *Exec) build(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = e.Stdin
	}
	return cmd
}

func firstWriter(ws ...io.Writer) io.Writer {
	for _, w := range ws {
		if w != nil {
			return w
		}
	}
	return io.Discard
}

func wrapExit(c Command, err error, stderr string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: c.String(), Code: exitErr.ExitCode(), Stderr: stderr}
	}
	return fmt.Errorf("%s: %w", c.String(), err)
}
