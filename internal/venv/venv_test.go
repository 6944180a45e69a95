package venv

import (
	"errors"
	"reflect"
	"testing"

	"github.com/wgpctl/wgpctl/internal/runner/runnertest"
)

func TestDetectPrefersEarlierCandidates(t *testing.T) {
	fake := runnertest.New()
	fake.SetPath("python3", "/usr/bin/python3")
	fake.SetPath("python3.11", "/usr/bin/python3.11")

	got, err := Detect(fake, []string{"python3.12", "python3.11", "python3.10", "python3"})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got != "python3.11" {
		t.Fatalf("got %q, want python3.11", got)
	}
}

func TestDetectNoneFound(t *testing.T) {
	fake := runnertest.New()
	if _, err := Detect(fake, []string{"python3.12", "python3"}); !errors.Is(err, ErrNoInterpreter) {
		t.Fatalf("expected ErrNoInterpreter, got %v", err)
	}
}

func TestMergeLaterEntriesWin(t *testing.T) {
	got := Merge([]string{"A=1", "PATH=/bin", "B=2"}, "PATH=/venv/bin:/bin", "C=3")
	want := []string{"A=1", "PATH=/venv/bin:/bin", "B=2", "C=3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPipUsesVenvInterpreter(t *testing.T) {
	cmd := Pip("/opt/wgp/venv", "install", "-r", "requirements.txt")
	if cmd.Name != "/opt/wgp/venv/bin/python" {
		t.Fatalf("name = %q", cmd.Name)
	}
	if cmd.String() != "/opt/wgp/venv/bin/python -m pip install -r requirements.txt" {
		t.Fatalf("unexpected command %q", cmd.String())
	}
	if cmd.Env[0] != "VIRTUAL_ENV=/opt/wgp/venv" {
		t.Fatalf("env = %v", cmd.Env)
	}
}
