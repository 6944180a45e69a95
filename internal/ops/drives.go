package ops

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/wgpctl/wgpctl/internal/mounts"
	"github.com/wgpctl/wgpctl/internal/runner"
)

// FindDrives lists the Linux root and the Windows drives mounted under /mnt.
func (m *Manager) FindDrives(ctx context.Context) error {
	drives, err := m.Drives()
	if errors.Is(err, mounts.ErrUnsupported) {
		_, err := m.sequence(ctx, runner.Step{
			Name:    "Mounted filesystems",
			Command: runner.Cmd("df", "-h"),
			Policy:  runner.BestEffort,
		})
		return err
	}
	if err != nil {
		return err
	}
	if len(drives) == 0 {
		m.UI.Info("No drives found under / or /mnt.")
		return nil
	}

	width := len("MOUNT")
	for _, d := range drives {
		width = max(width, runewidth.StringWidth(d.Path))
	}
	m.UI.Printf("%s  %-8s %9s %9s %9s %5s\n",
		runewidth.FillRight("MOUNT", width), "TYPE", "SIZE", "USED", "FREE", "USE%")
	for _, d := range drives {
		m.UI.Printf("%s  %-8s %9s %9s %9s %5s\n",
			runewidth.FillRight(d.Path, width), d.FSType,
			mounts.HumanBytes(d.Total), mounts.HumanBytes(d.Used()), mounts.HumanBytes(d.Free),
			usePercent(d))
	}
	return nil
}

func usePercent(d mounts.Mount) string {
	if d.Total == 0 {
		return "-"
	}
	return fmt.Sprintf("%d%%", d.Used()*100/d.Total)
}
