package cli

import (
	"github.com/spf13/cobra"

	"github.com/wgpctl/wgpctl/internal/menu"
	"github.com/wgpctl/wgpctl/internal/version"
)

func Execute() error {
	return newRootCommand().Execute()
}

type globalOptions struct {
	dir        string
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "wgpctl",
		Short:         "Install, update and launch WGP (Wan2GP) under WSL",
		Long:          "Without a subcommand wgpctl shows the interactive menu.",
		Version:       version.String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "WGP installation directory (overrides config and $WGP_DIR)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/wgpctl/config.toml)")

	cmd.AddCommand(
		newRunCommand(opts),
		newUpdateCommand(opts),
		newStatusCommand(opts),
		newInstallCommand(opts),
		newCUDACommand(opts),
		newSageCommand(opts),
		newDrivesCommand(opts),
		newShellCommand(opts),
		newPluginCommand(opts),
		newDoctorCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func runMenu(cmd *cobra.Command, opts *globalOptions) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}
	loop := &menu.Loop{
		Ops:    s.ops,
		Prompt: s.prompt,
		UI:     s.ui,
		Target: s.target,
	}
	return loop.Run(cmd.Context())
}
