// Package venv builds commands that run inside a Python virtual environment.
// Activation is expressed as environment overrides rather than by sourcing
// bin/activate.
package venv

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgpctl/wgpctl/internal/runner"
)

// ErrNoInterpreter indicates none of the candidate interpreters is on PATH.
var ErrNoInterpreter = errors.New("no python interpreter found")

// Python returns the interpreter inside the virtual environment at dir.
func Python(dir string) string {
	return filepath.Join(dir, "bin", "python")
}

// Env returns the variables bin/activate would set for dir.
func Env(dir string) []string {
	return EnvWith(dir, os.Getenv)
}

// EnvWith is Env with PATH resolved through getenv.
func EnvWith(dir string, getenv func(string) string) []string {
	path := filepath.Join(dir, "bin")
	if cur := getenv("PATH"); cur != "" {
		path += string(os.PathListSeparator) + cur
	}
	return []string{
		"VIRTUAL_ENV=" + dir,
		"PATH=" + path,
		"PYTHONHOME=",
	}
}

// Environ returns the full process environment with dir activated.
func Environ(dir string, extra ...string) []string {
	return Merge(os.Environ(), append(Env(dir), extra...)...)
}

// Merge overlays KEY=VALUE entries onto base; later entries win.
func Merge(base []string, overrides ...string) []string {
	index := make(map[string]int, len(base))
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range append(append([]string(nil), base...), overrides...) {
		key, _, _ := strings.Cut(kv, "=")
		if i, ok := index[key]; ok {
			out[i] = kv
			continue
		}
		index[key] = len(out)
		out = append(out, kv)
	}
	return out
}

// Command runs the venv interpreter with args.
func Command(dir string, args ...string) runner.Command {
	return runner.Command{
		Name: Python(dir),
		Args: args,
		Env:  Env(dir),
	}
}

// Pip runs `python -m pip` inside the venv.
func Pip(dir string, args ...string) runner.Command {
	return Command(dir, append([]string{"-m", "pip"}, args...)...)
}

// Create builds the command that makes a new venv at dir using python.
func Create(python, dir string) runner.Command {
	return runner.Cmd(python, "-m", "venv", dir)
}

// Detect returns the first candidate interpreter found on PATH. Candidates
// are expected in descending order of preference.
func Detect(r runner.Runner, candidates []string) (string, error) {
	for _, name := range candidates {
		if _, err := r.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", ErrNoInterpreter
}
