package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wgpctl/wgpctl/internal/config"
	"github.com/wgpctl/wgpctl/internal/ops"
	"github.com/wgpctl/wgpctl/internal/prompt"
	"github.com/wgpctl/wgpctl/internal/runner"
	"github.com/wgpctl/wgpctl/internal/target"
	"github.com/wgpctl/wgpctl/internal/ui"
)

// session is everything a command needs, built from flags and config.
type session struct {
	cfg     config.Config
	cfgPath string
	ops     *ops.Manager
	target  target.Target
	prompt  *prompt.Prompter
	ui      *ui.Printer
}

func (o *globalOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.DefaultPath()
}

func (o *globalOptions) loadConfig() (config.Config, string, error) {
	path, err := o.resolveConfigPath()
	if err != nil {
		return config.Config{}, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}

func (o *globalOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, path, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	dir := cfg.Install.Dir
	if o.dir != "" {
		home, _ := os.UserHomeDir()
		dir = config.ExpandHome(o.dir, home)
	}
	t, err := target.New(dir)
	if err != nil {
		return nil, err
	}

	printer := ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
	p := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
	r := runner.New(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	m := ops.New(cfg, r, p, printer)
	m.Now = currentTimeOverride

	return &session{
		cfg:     cfg,
		cfgPath: path,
		ops:     m,
		target:  t,
		prompt:  p,
		ui:      printer,
	}, nil
}

func currentTimeOverride() time.Time {
	if override := os.Getenv("WGPCTL_NOW"); override != "" {
		if t, err := time.Parse(time.RFC3339, override); err == nil {
			return t
		}
	}
	return time.Now()
}
