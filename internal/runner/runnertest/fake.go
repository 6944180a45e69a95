// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/wgpctl/wgpctl/internal/runner"
)

// Fake records every command and answers from registered handlers. A command
// matches a handler when its String() contains the handler's pattern; later
// registrations win. Unmatched commands succeed with no output.
type Fake struct {
	mu       sync.Mutex
	calls    []runner.Command
	handlers []handler
	paths    map[string]string
}

type handler struct {
	pattern string
	fn      func(runner.Command) (string, error)
}

func New() *Fake {
	return &Fake{paths: map[string]string{}}
}

// On answers commands containing pattern with out and err.
func (f *Fake) On(pattern, out string, err error) {
	f.OnFunc(pattern, func(runner.Command) (string, error) { return out, err })
}

// Fail makes commands containing pattern exit with code 1.
func (f *Fake) Fail(pattern string) {
	f.OnFunc(pattern, func(c runner.Command) (string, error) {
		return "", &runner.ExitError{Command: c.String(), Code: 1}
	})
}

func (f *Fake) OnFunc(pattern string, fn func(runner.Command) (string, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, handler{pattern: pattern, fn: fn})
}

// SetPath makes LookPath(name) resolve to path.
func (f *Fake) SetPath(name, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths[name] = path
}

func (f *Fake) Run(ctx context.Context, cmd runner.Command) error {
	out, err := f.dispatch(cmd)
	if out != "" && cmd.Stdout != nil {
		io.WriteString(cmd.Stdout, out)
	}
	return err
}

func (f *Fake) Output(ctx context.Context, cmd runner.Command) (string, error) {
	out, err := f.dispatch(cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.paths[name]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Calls returns the commands seen so far.
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// Lines returns Calls rendered with Command.String.
func (f *Fake) Lines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// Ran reports whether any recorded command contains pattern.
func (f *Fake) Ran(pattern string) bool {
	for _, line := range f.Lines() {
		if strings.Contains(line, pattern) {
			return true
		}
	}
	return false
}

// Index returns the position of the first command containing pattern, or -1.
func (f *Fake) Index(pattern string) int {
	for i, line := range f.Lines() {
		if strings.Contains(line, pattern) {
			return i
		}
	}
	return -1
}

func (f *Fake) dispatch(cmd runner.Command) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	line := cmd.String()
	var match *handler
	for i := len(f.handlers) - 1; i >= 0; i-- {
		if strings.Contains(line, f.handlers[i].pattern) {
			match = &f.handlers[i]
			break
		}
	}
	f.mu.Unlock()
	if match == nil {
		return "", nil
	}
	return match.fn(cmd)
}

// Dump is handy in failure messages.
func (f *Fake) Dump() string {
	var b strings.Builder
	for i, line := range f.Lines() {
		fmt.Fprintf(&b, "%d: %s\n", i, line)
	}
	return b.String()
}
