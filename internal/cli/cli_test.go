package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wgpctl/wgpctl/internal/target"
)

type cliEnv struct {
	home   string
	config string
}

func setupEnv(t *testing.T) cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("WGP_DIR", "")
	t.Setenv("NO_COLOR", "1")
	return cliEnv{home: home, config: filepath.Join(home, ".config", "wgpctl", "config.toml")}
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestConfigPathFollowsXDG(t *testing.T) {
	env := setupEnv(t)
	out, _, err := execute(t, "", "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != env.config {
		t.Fatalf("path = %q, want %q", out, env.config)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	env := setupEnv(t)
	if _, _, err := execute(t, "", "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(env.config); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, _, err := execute(t, "", "config", "init"); err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
	if _, _, err := execute(t, "", "config", "init", "--force"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
}

func TestConfigShowHonorsWGPDir(t *testing.T) {
	setupEnv(t)
	t.Setenv("WGP_DIR", "/opt/wgp")
	out, _, err := execute(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "/opt/wgp") || !strings.Contains(out, "[sage]") {
		t.Fatalf("unexpected config:\n%s", out)
	}
}

func TestConfigShowYAML(t *testing.T) {
	setupEnv(t)
	out, _, err := execute(t, "", "config", "show", "-o", "yaml")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "keyring_url:") || !strings.Contains(out, "remotes:") {
		t.Fatalf("unexpected yaml:\n%s", out)
	}
	if _, _, err := execute(t, "", "config", "show", "-o", "json"); err == nil {
		t.Fatal("expected unknown format error")
	}
}

func TestStatusFailsWithoutInstall(t *testing.T) {
	env := setupEnv(t)
	_, _, err := execute(t, "", "--dir", filepath.Join(env.home, "missing"), "status")
	if !errors.Is(err, target.ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}
}

func TestRunFailsWithoutVenv(t *testing.T) {
	env := setupEnv(t)
	dir := filepath.Join(env.home, "Wan2GP")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	_, _, err := execute(t, "", "run", "--", "--listen")
	if !errors.Is(err, target.ErrNoVenv) {
		t.Fatalf("expected ErrNoVenv, got %v", err)
	}
}

func TestUpdateRejectsUnknownTarget(t *testing.T) {
	setupEnv(t)
	if _, _, err := execute(t, "", "update", "everything"); err == nil {
		t.Fatal("expected invalid argument error")
	}
}

func TestMenuExit(t *testing.T) {
	env := setupEnv(t)
	out, _, err := execute(t, "12\n")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if !strings.Contains(out, filepath.Join(env.home, "Wan2GP")) || !strings.Contains(out, "Goodbye.") {
		t.Fatalf("unexpected menu output:\n%s", out)
	}
	if !strings.Contains(out, "not installed") {
		t.Fatalf("menu should report a missing install:\n%s", out)
	}
}

func TestMenuChangeDirectoryThenStatus(t *testing.T) {
	env := setupEnv(t)
	other := filepath.Join(env.home, "elsewhere")
	if err := os.MkdirAll(other, 0o755); err != nil {
		t.Fatal(err)
	}
	out, errOut, err := execute(t, "11\n"+other+"\n\n12\n")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if !strings.Contains(out, "WGP directory set to "+other) {
		t.Fatalf("directory not changed:\n%s\n%s", out, errOut)
	}
	if !strings.Contains(out, "Directory: "+other) {
		t.Fatalf("menu header not refreshed:\n%s", out)
	}
}

func TestPluginListEmpty(t *testing.T) {
	env := setupEnv(t)
	dir := filepath.Join(env.home, "Wan2GP")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	out, _, err := execute(t, "", "plugin", "list")
	if err != nil {
		t.Fatalf("plugin list: %v", err)
	}
	if !strings.Contains(out, "No plugins installed") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPluginRemoveRefusesSystemPlugin(t *testing.T) {
	setupEnv(t)
	_, _, err := execute(t, "", "plugin", "remove", "-y", "wan2gp-gallery")
	if err == nil || !strings.Contains(err.Error(), "system plugins") {
		t.Fatalf("expected system plugin refusal, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	setupEnv(t)
	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "wgpctl version ") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestDoctorReportsMissingInstall(t *testing.T) {
	env := setupEnv(t)
	orig := procVersion
	t.Cleanup(func() { procVersion = orig })
	procVersion = filepath.Join(env.home, "version")
	if err := os.WriteFile(procVersion, []byte("Linux version 6.6.87.2-microsoft-standard-WSL2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, errOut, err := execute(t, "", "--dir", filepath.Join(env.home, "missing"), "doctor")
	if err == nil || !strings.Contains(err.Error(), "doctor checks failed") {
		t.Fatalf("expected doctor failure, got %v", err)
	}
	if !strings.Contains(errOut, "✗ WGP directory") {
		t.Fatalf("missing directory not reported:\n%s", errOut)
	}
	if strings.Contains(errOut, "running under WSL") {
		t.Fatalf("WSL check should pass:\n%s", errOut)
	}
}
