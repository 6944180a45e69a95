package target

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestChangeToMissingPathKeepsTarget(t *testing.T) {
	orig, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	got, err := orig.Change(filepath.Join(orig.Dir, "does-not-exist"))
	if !errors.Is(err, ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}
	if got != orig {
		t.Fatalf("target changed to %q", got.Dir)
	}
}

func TestChangeToFileIsRejected(t *testing.T) {
	orig, _ := New(t.TempDir())
	file := filepath.Join(orig.Dir, "file.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := orig.Change(file); !errors.Is(err, ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}
}

func TestChangeUpdatesDerivedPaths(t *testing.T) {
	orig, _ := New(t.TempDir())
	next := t.TempDir()
	got, err := orig.Change(next)
	if err != nil {
		t.Fatalf("Change: %v", err)
	}
	if got.Dir != next {
		t.Fatalf("dir = %q, want %q", got.Dir, next)
	}
	if want := filepath.Join(next, "venv"); got.VenvDir() != want {
		t.Fatalf("venv = %q, want %q", got.VenvDir(), want)
	}
}

func TestRequireVenv(t *testing.T) {
	root := t.TempDir()
	missing, _ := New(filepath.Join(root, "absent"))
	if err := missing.RequireVenv(); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}

	tgt, _ := New(root)
	if err := tgt.RequireVenv(); !errors.Is(err, ErrNoVenv) {
		t.Fatalf("expected ErrNoVenv, got %v", err)
	}

	if err := os.Mkdir(tgt.VenvDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := tgt.RequireVenv(); err != nil {
		t.Fatalf("RequireVenv: %v", err)
	}
}
