package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wgpctl/wgpctl/internal/config"
	"github.com/wgpctl/wgpctl/internal/ops"
)

func newRunCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- WGP ARGS...]",
		Short: "Run WGP in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return s.ops.Run(cmd.Context(), s.target, args)
		},
	}
}

func newUpdateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "update [git|python|all]",
		Short:     "Pull WGP and/or update its Python dependencies",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"git", "python", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			what := "all"
			if len(args) == 1 {
				what = args[0]
			}
			ctx := cmd.Context()
			switch what {
			case "git":
				err = s.ops.UpdateGit(ctx, s.target)
			case "python":
				err = s.ops.UpdatePython(ctx, s.target)
			default:
				err = s.ops.UpdateAll(ctx, s.target)
			}
			return quietCancel(s, err)
		},
	}
}

func newStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return s.ops.Status(cmd.Context(), s.target)
		},
	}
}

func newInstallCommand(opts *globalOptions) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Fresh install of WGP, PyTorch and Sage Attention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			t, err := s.ops.FreshInstall(cmd.Context())
			if err != nil {
				return quietCancel(s, err)
			}
			if !save || t.Dir == s.cfg.Install.Dir {
				return nil
			}
			s.cfg.Install.Dir = t.Dir
			if err := config.Save(s.cfgPath, s.cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			s.ui.Info("Saved install.dir to %s", s.cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "record the chosen directory as install.dir in the config file")
	return cmd
}

func newCUDACommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cuda",
		Short: "Install the CUDA toolkit for WSL and export its environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return s.ops.InstallCUDA(cmd.Context())
		},
	}
}

func newSageCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sage",
		Short: "Rebuild Sage Attention, falling back to the prebuilt wheel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return s.ops.ReinstallSage(cmd.Context(), s.target)
		},
	}
}

func newDrivesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drives",
		Short: "List the Linux root and mounted Windows drives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return s.ops.FindDrives(cmd.Context())
		},
	}
}

func newShellCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Open a shell in the WGP directory with the virtual environment active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return s.ops.OpenDirectory(cmd.Context(), s.target)
		},
	}
}

// quietCancel turns a user cancellation into a clean exit.
func quietCancel(s *session, err error) error {
	if errors.Is(err, ops.ErrCancelled) {
		s.ui.Info("Cancelled.")
		return nil
	}
	return err
}
