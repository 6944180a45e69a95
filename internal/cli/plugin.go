package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wgpctl/wgpctl/internal/plugins"
)

func newPluginCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage WGP plugins",
	}
	cmd.AddCommand(
		newPluginListCommand(opts),
		newPluginInstallCommand(opts),
		newPluginUpdateCommand(opts),
		newPluginRemoveCommand(opts),
		newPluginReinstallCommand(opts),
	)
	return cmd
}

func newPluginListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if err := s.target.RequireInstalled(); err != nil {
				return err
			}
			list, err := s.ops.Plugins(s.target).List()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				s.ui.Info("No plugins installed in %s", s.target.PluginsDir())
				return nil
			}
			for _, p := range list {
				kind := "user"
				if p.System {
					kind = "system"
				}
				line := fmt.Sprintf("%-32s %-6s", p.ID, kind)
				if p.Origin != "" {
					line += "  " + s.ui.Dim(p.Origin)
				}
				s.ui.Println(line)
			}
			return nil
		},
	}
}

func newPluginInstallCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install URL",
		Short: "Install a plugin from a GitHub repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if err := s.target.RequireVenv(); err != nil {
				return err
			}
			s.ui.Step("Installing %s", args[0])
			id, err := s.ops.Plugins(s.target).Install(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s.ui.Success("Installed plugin %s; restart WGP to load it", id)
			return nil
		},
	}
}

func newPluginUpdateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update [ID...]",
		Short: "Update plugins from their git origin (all user plugins by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if err := s.target.RequireVenv(); err != nil {
				return err
			}
			pm := s.ops.Plugins(s.target)
			explicit := len(args) > 0
			ids := args
			if !explicit {
				list, err := pm.List()
				if err != nil {
					return err
				}
				for _, p := range list {
					if !p.System {
						ids = append(ids, p.ID)
					}
				}
			}

			var errs []error
			for _, id := range ids {
				changed, err := pm.Update(cmd.Context(), id)
				switch {
				case errors.Is(err, plugins.ErrNotGit) && !explicit:
					s.ui.Warn("%s is not a git checkout; skipped", id)
				case err != nil:
					s.ui.Error("%s: %v", id, err)
					errs = append(errs, err)
				case changed:
					s.ui.Success("%s updated", id)
				default:
					s.ui.Info("%s is up to date", id)
				}
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d plugin updates failed", len(errs))
			}
			return nil
		},
	}
}

func newPluginRemoveCommand(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a user plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			id := args[0]
			if plugins.IsSystem(id) {
				return fmt.Errorf("%s: %w", id, plugins.ErrSystemPlugin)
			}
			if !yes {
				ok, err := s.prompt.Confirm(fmt.Sprintf("Remove plugin %s?", id))
				if err != nil {
					return err
				}
				if !ok {
					s.ui.Info("Cancelled.")
					return nil
				}
			}
			if err := s.ops.Plugins(s.target).Remove(id); err != nil {
				return err
			}
			s.ui.Success("Removed %s", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newPluginReinstallCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reinstall ID",
		Short: "Remove a plugin and install it again from its origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if err := s.target.RequireVenv(); err != nil {
				return err
			}
			if err := s.ops.Plugins(s.target).Reinstall(cmd.Context(), args[0]); err != nil {
				return err
			}
			s.ui.Success("Reinstalled %s", args[0])
			return nil
		},
	}
}
