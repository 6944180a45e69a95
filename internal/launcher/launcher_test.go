package launcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderSetsToolkitEnvThenForwardsArgs(t *testing.T) {
	out, err := Render(Script{
		Dir:      "/home/me/Wan2GP",
		VenvDir:  "/home/me/Wan2GP/venv",
		Entry:    "wgp.py",
		CUDAHome: "/usr/local/cuda",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(out)

	order := []string{
		"#!/usr/bin/env bash",
		"export CUDA_HOME=/usr/local/cuda",
		"export PATH=/usr/local/cuda/bin:$PATH",
		"export LD_LIBRARY_PATH=/usr/local/cuda/lib64:$LD_LIBRARY_PATH",
		`cd "/home/me/Wan2GP"`,
		`source "/home/me/Wan2GP/venv/bin/activate"`,
		`exec python "wgp.py" "$@"`,
	}
	pos := -1
	for _, want := range order {
		i := strings.Index(text, want)
		if i < 0 {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
		if i < pos {
			t.Fatalf("%q out of order in:\n%s", want, text)
		}
		pos = i
	}
}

func TestWriteIsExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_wgp.sh")
	if err := Write(path, Script{Dir: "/x", VenvDir: "/x/venv", Entry: "wgp.py", CUDAHome: "/usr/local/cuda"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm()&0o111 == 0 {
		t.Fatalf("launcher not executable: %v", fi.Mode())
	}
}
