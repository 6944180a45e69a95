package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wgpctl/wgpctl/internal/cuda"
	"github.com/wgpctl/wgpctl/internal/gitutil"
	"github.com/wgpctl/wgpctl/internal/venv"
)

func newDoctorCommand(opts *globalOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose wgpctl prerequisites and the WGP installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, opts, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show passing checks too")
	return cmd
}

type doctorCheck struct {
	Name string
	Fn   func(*session) error
}

// procVersion is where the kernel identifies itself as WSL.
var procVersion = "/proc/version"

func runDoctor(cmd *cobra.Command, opts *globalOptions, verbose bool) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}
	checks := []doctorCheck{
		{Name: "running under WSL", Fn: checkWSL},
		{Name: "git installed", Fn: requireOnPath("git")},
		{Name: "wget installed", Fn: requireOnPath("wget")},
		{Name: "python interpreter", Fn: func(s *session) error {
			_, err := venv.Detect(s.ops.Runner, s.cfg.Python.Candidates)
			return err
		}},
		{Name: "WGP directory", Fn: func(s *session) error { return s.target.RequireInstalled() }},
		{Name: "WGP git checkout", Fn: func(s *session) error {
			if !gitutil.IsRepo(s.target.Dir) {
				return fmt.Errorf("%s is not a git repository", s.target.Dir)
			}
			return nil
		}},
		{Name: "virtual environment", Fn: func(s *session) error { return s.target.RequireVenv() }},
		{Name: "launcher script", Fn: func(s *session) error {
			if _, err := os.Stat(s.target.LauncherPath()); err != nil {
				return fmt.Errorf("%s missing; run a fresh install", s.target.LauncherPath())
			}
			return nil
		}},
		{Name: "nvcc reachable", Fn: func(s *session) error {
			loc, err := s.ops.Locator.NVCC(s.cfg.CUDA.NVCCFallbacks)
			if errors.Is(err, cuda.ErrNVCCNotFound) {
				return fmt.Errorf("not on PATH or in %s; run `wgpctl cuda`", strings.Join(loc.Probed, ", "))
			}
			return err
		}},
	}

	var failures []string
	for _, check := range checks {
		err := check.Fn(s)
		if err != nil {
			failures = append(failures, fmt.Sprintf("✗ %s: %v", check.Name, err))
			continue
		}
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", check.Name)
		}
	}

	if len(failures) > 0 {
		for _, failure := range failures {
			fmt.Fprintln(cmd.ErrOrStderr(), failure)
		}
		return fmt.Errorf("%d doctor checks failed", len(failures))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "healthy!")
	return nil
}

func requireOnPath(binary string) func(*session) error {
	return func(s *session) error {
		if _, err := s.ops.Runner.LookPath(binary); err != nil {
			return fmt.Errorf("%s not found on PATH", binary)
		}
		return nil
	}
}

func checkWSL(*session) error {
	data, err := os.ReadFile(procVersion)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(string(data)), "microsoft") {
		return errors.New("kernel does not look like WSL; Windows drive paths may not exist")
	}
	return nil
}
