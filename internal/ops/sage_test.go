package ops

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wgpctl/wgpctl/internal/cuda"
	"github.com/wgpctl/wgpctl/internal/runner"
)

func TestReinstallSageFallsBackAndLogs(t *testing.T) {
	tgt := installedTarget(t, true)
	if err := os.MkdirAll(tgt.SageDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, "")
	if err := os.WriteFile(h.m.Config.Sage.BuildLog, []byte("old run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var build runner.Command
	h.fake.OnFunc("setup.py install", func(c runner.Command) (string, error) {
		build = c
		return "nvcc fatal: unsupported gpu architecture\n", &runner.ExitError{Command: c.String(), Code: 1}
	})

	if err := h.m.ReinstallSage(context.Background(), tgt); err != nil {
		t.Fatalf("ReinstallSage: %v", err)
	}
	if h.fake.Ran("git clone") {
		t.Fatal("existing checkout should not be cloned again")
	}
	if !h.fake.Ran("pip install sageattention==1.0.6") {
		t.Fatalf("prebuilt fallback not installed:\n%s", h.fake.Dump())
	}
	if build.Dir != tgt.SageDir() {
		t.Fatalf("build dir = %q", build.Dir)
	}

	log, err := os.ReadFile(h.m.Config.Sage.BuildLog)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(log), "old run") || !strings.Contains(string(log), "unsupported gpu") {
		t.Fatalf("log = %q", log)
	}
	if !strings.Contains(h.errOut.String(), "fallback succeeded") {
		t.Fatalf("fallback not reported:\n%s", h.errOut.String())
	}
}

func TestReinstallSageClonesMissingCheckout(t *testing.T) {
	tgt := installedTarget(t, true)
	h := newHarness(t, "")

	if err := h.m.ReinstallSage(context.Background(), tgt); err != nil {
		t.Fatalf("ReinstallSage: %v", err)
	}
	if h.fake.Index("git clone") > h.fake.Index("setup.py install") {
		t.Fatalf("clone should precede build:\n%s", h.fake.Dump())
	}
	if h.fake.Ran("sageattention==") {
		t.Fatal("fallback ran although the build succeeded")
	}
}

func TestReinstallSageFailsWhenFallbackFails(t *testing.T) {
	tgt := installedTarget(t, true)
	if err := os.MkdirAll(tgt.SageDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, "")
	h.fake.Fail("setup.py install")
	h.fake.Fail("sageattention==")

	err := h.m.ReinstallSage(context.Background(), tgt)
	var exitErr *runner.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected exit error, got %v", err)
	}
}

func TestSageEnvOrdersPath(t *testing.T) {
	tgt := installedTarget(t, true)
	h := newHarness(t, "")
	env := map[string]string{}
	for _, kv := range h.m.sageEnv(tgt) {
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}
	wantPath := filepath.Join(tgt.VenvDir(), "bin") + ":/usr/local/cuda/bin:/usr/bin"
	if env["PATH"] != wantPath {
		t.Fatalf("PATH = %q, want %q", env["PATH"], wantPath)
	}
	checks := map[string]string{
		"CUDA_HOME":         "/usr/local/cuda",
		"LD_LIBRARY_PATH":   "/usr/local/cuda/lib64",
		"VIRTUAL_ENV":       tgt.VenvDir(),
		"MAX_JOBS":          "6",
		"EXT_PARALLEL":      "4",
		"NVCC_APPEND_FLAGS": "--threads 8",
	}
	for k, want := range checks {
		if env[k] != want {
			t.Fatalf("%s = %q, want %q", k, env[k], want)
		}
	}
}

func TestInstallCUDAFindsFallbackNVCC(t *testing.T) {
	h := newHarness(t, "")
	second := h.m.Config.CUDA.NVCCFallbacks[1]
	h.files[second] = true

	if err := h.m.InstallCUDA(context.Background()); err != nil {
		t.Fatalf("InstallCUDA: %v\n%s", err, h.fake.Dump())
	}
	order := []string{"wget -q -O", "sudo dpkg -i", "sudo apt-get update", "sudo apt-get -y install cuda-toolkit-12-8"}
	last := -1
	for _, pattern := range order {
		i := h.fake.Index(pattern)
		if i <= last {
			t.Fatalf("%q out of order:\n%s", pattern, h.fake.Dump())
		}
		last = i
	}
	if h.env["CUDA_HOME"] != "/usr/local/cuda" || !strings.HasPrefix(h.env["PATH"], "/usr/local/cuda/bin:") {
		t.Fatalf("process env not updated: %v", h.env)
	}
	profile, err := os.ReadFile(h.m.Config.CUDA.Profile)
	if err != nil || !strings.Contains(string(profile), "export CUDA_HOME=/usr/local/cuda") {
		t.Fatalf("profile = %q, %v", profile, err)
	}
	if !h.fake.Ran(second + " --version") {
		t.Fatalf("nvcc version not queried:\n%s", h.fake.Dump())
	}
}

func TestInstallCUDAFallsBackToGenericPackage(t *testing.T) {
	h := newHarness(t, "")
	h.fake.SetPath("nvcc", "/usr/local/cuda/bin/nvcc")
	h.fake.Fail("install cuda-toolkit-12-8")

	if err := h.m.InstallCUDA(context.Background()); err != nil {
		t.Fatalf("InstallCUDA: %v", err)
	}
	lines := h.fake.Lines()
	found := false
	for _, line := range lines {
		if line == "sudo apt-get -y install cuda-toolkit" {
			found = true
		}
	}
	if !found {
		t.Fatalf("fallback package not installed:\n%s", h.fake.Dump())
	}
}

func TestInstallCUDAReportsMissingNVCC(t *testing.T) {
	h := newHarness(t, "")
	err := h.m.InstallCUDA(context.Background())
	if !errors.Is(err, cuda.ErrNVCCNotFound) {
		t.Fatalf("expected ErrNVCCNotFound, got %v", err)
	}
	msg := h.errOut.String()
	fb := h.m.Config.CUDA.NVCCFallbacks
	if !strings.Contains(msg, strings.Join(fb, ", ")) {
		t.Fatalf("probe order not reported:\n%s", msg)
	}
}

func TestInstallCUDAStopsOnKeyringFailure(t *testing.T) {
	h := newHarness(t, "")
	h.fake.Fail("wget")
	if err := h.m.InstallCUDA(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if h.fake.Ran("dpkg") {
		t.Fatal("dpkg ran after failed download")
	}
	if _, err := os.Stat(h.m.Config.CUDA.Profile); !os.IsNotExist(err) {
		t.Fatalf("profile should be untouched (err=%v)", err)
	}
}
