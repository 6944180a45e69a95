package ops

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wgpctl/wgpctl/internal/cuda"
	"github.com/wgpctl/wgpctl/internal/gitutil"
	"github.com/wgpctl/wgpctl/internal/runner"
	"github.com/wgpctl/wgpctl/internal/target"
	"github.com/wgpctl/wgpctl/internal/venv"
)

// ReinstallSage rebuilds Sage Attention from source, falling back to the
// prebuilt wheel. The checkout is cloned first when it is missing.
func (m *Manager) ReinstallSage(ctx context.Context, t target.Target) error {
	if err := t.RequireVenv(); err != nil {
		return err
	}
	if _, err := os.Stat(t.SageDir()); os.IsNotExist(err) {
		if _, err := m.sequence(ctx, runner.Step{
			Name:    "Cloning Sage Attention",
			Command: gitutil.Clone(m.Config.Sage.Repo, t.SageDir()),
		}); err != nil {
			return err
		}
	}
	res, err := m.buildSage(ctx, t)
	if err != nil {
		return err
	}
	switch res.Outcome {
	case runner.Succeeded:
		m.UI.Success("Sage Attention built from source")
	case runner.FellBack:
		m.UI.Success("Sage Attention installed from %s (build log: %s)", m.Config.Sage.Prebuilt, m.Config.Sage.BuildLog)
	default:
		return fmt.Errorf("sage attention install failed, see %s: %w", m.Config.Sage.BuildLog, res.Err)
	}
	return nil
}

// buildSage runs setup.py install in the checkout with the prebuilt wheel as
// fallback. Output is copied to the build log, which is truncated first. The
// returned error covers only setup problems such as an unwritable log.
func (m *Manager) buildSage(ctx context.Context, t target.Target) (runner.Result, error) {
	sage := m.Config.Sage
	if dir := filepath.Dir(sage.BuildLog); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return runner.Result{}, err
		}
	}
	logFile, err := os.Create(sage.BuildLog)
	if err != nil {
		return runner.Result{}, fmt.Errorf("open build log: %w", err)
	}
	defer logFile.Close()

	out := io.MultiWriter(m.UI.Out(), logFile)
	errOut := io.MultiWriter(m.UI.Err(), logFile)

	build := venv.Command(t.VenvDir(), "setup.py", "install")
	build.Dir = t.SageDir()
	build.Env = m.sageEnv(t)
	build.Stdout, build.Stderr = out, errOut

	prebuilt := venv.Pip(t.VenvDir(), "install", sage.Prebuilt)
	prebuilt.Stdout, prebuilt.Stderr = out, errOut

	m.UI.Info("Build output is also written to %s", sage.BuildLog)
	results, _ := m.sequence(ctx, runner.Step{
		Name:     "Building Sage Attention",
		Command:  build,
		Policy:   runner.BestEffort,
		Fallback: &prebuilt,
	})
	if len(results) == 0 {
		return runner.Result{}, ctx.Err()
	}
	return results[0], nil
}

// sageEnv layers the venv on top of the CUDA toolkit variables so the venv
// bin directory comes first on PATH, followed by the toolkit.
func (m *Manager) sageEnv(t target.Target) []string {
	sage := m.Config.Sage
	cudaEnv := cuda.Environ(m.Config.CUDA.Home, m.Getenv)
	lookup := func(name string) string {
		for _, kv := range cudaEnv {
			if k, v, _ := strings.Cut(kv, "="); k == name {
				return v
			}
		}
		return m.Getenv(name)
	}
	env := venv.Merge(cudaEnv, venv.EnvWith(t.VenvDir(), lookup)...)
	return venv.Merge(env,
		"MAX_JOBS="+strconv.Itoa(sage.MaxJobs),
		"EXT_PARALLEL="+strconv.Itoa(sage.ExtParallel),
		"NVCC_APPEND_FLAGS=--threads "+strconv.Itoa(sage.NVCCThreads),
	)
}
