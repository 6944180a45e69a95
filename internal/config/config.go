package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the user editable settings stored in config.toml.
type Config struct {
	Install InstallBlock  `toml:"install" yaml:"install"`
	App     AppBlock      `toml:"app" yaml:"app"`
	Remotes []RemoteBlock `toml:"remotes" yaml:"remotes"`
	Python  PythonBlock   `toml:"python" yaml:"python"`
	Torch   TorchBlock    `toml:"torch" yaml:"torch"`
	CUDA    CUDABlock     `toml:"cuda" yaml:"cuda"`
	Sage    SageBlock     `toml:"sage" yaml:"sage"`
}

// InstallBlock names where WGP lives and the locations offered by a fresh install.
type InstallBlock struct {
	Dir       string   `toml:"dir" yaml:"dir"`
	Locations []string `toml:"locations" yaml:"locations"`
}

// AppBlock describes the managed application repository.
type AppBlock struct {
	Repo         string   `toml:"repo" yaml:"repo"`
	Entry        string   `toml:"entry" yaml:"entry"`
	Requirements string   `toml:"requirements" yaml:"requirements"`
	RunArgs      []string `toml:"run_args" yaml:"run_args"`
}

// RemoteBlock is one pull source offered by update-git.
type RemoteBlock struct {
	Name   string `toml:"name" yaml:"name"`
	URL    string `toml:"url" yaml:"url"`
	Branch string `toml:"branch" yaml:"branch"`
}

// PythonBlock controls interpreter discovery.
type PythonBlock struct {
	Candidates []string `toml:"candidates" yaml:"candidates"`
	Fallback   string   `toml:"fallback" yaml:"fallback"`
}

// TorchBlock selects the PyTorch build.
type TorchBlock struct {
	Packages []string `toml:"packages" yaml:"packages"`
	IndexURL string   `toml:"index_url" yaml:"index_url"`
}

// CUDABlock governs install-cuda.
type CUDABlock struct {
	KeyringURL      string   `toml:"keyring_url" yaml:"keyring_url"`
	ToolkitPackage  string   `toml:"toolkit_package" yaml:"toolkit_package"`
	FallbackPackage string   `toml:"fallback_package" yaml:"fallback_package"`
	Home            string   `toml:"home" yaml:"home"`
	Profile         string   `toml:"profile" yaml:"profile"`
	NVCCFallbacks   []string `toml:"nvcc_fallbacks" yaml:"nvcc_fallbacks"`
}

// SageBlock governs the Sage Attention build.
type SageBlock struct {
	Repo        string `toml:"repo" yaml:"repo"`
	Prebuilt    string `toml:"prebuilt" yaml:"prebuilt"`
	BuildLog    string `toml:"build_log" yaml:"build_log"`
	MaxJobs     int    `toml:"max_jobs" yaml:"max_jobs"`
	ExtParallel int    `toml:"ext_parallel" yaml:"ext_parallel"`
	NVCCThreads int    `toml:"nvcc_threads" yaml:"nvcc_threads"`
}

// RemoteChoices is the number of pull sources update-git offers.
const RemoteChoices = 3

var (
	// ErrMissingInstallDir indicates the config left install.dir empty.
	ErrMissingInstallDir = errors.New("config.install.dir must be set")
	// ErrLocationCount indicates install.locations does not hold exactly three paths.
	ErrLocationCount = errors.New("config.install.locations must list exactly 3 paths")
	// ErrRemoteCount indicates the remotes table does not hold exactly three entries.
	ErrRemoteCount = errors.New("config must define exactly 3 [[remotes]]")
	// ErrNVCCFallbackCount indicates cuda.nvcc_fallbacks does not hold exactly three paths.
	ErrNVCCFallbackCount = errors.New("config.cuda.nvcc_fallbacks must list exactly 3 paths")
)

// Default returns the baseline configuration rooted at home.
func Default(home string) Config {
	cfg := Config{}
	cfg.applyDefaults(home)
	return cfg
}

func (c *Config) applyDefaults(home string) {
	if c.Install.Dir == "" {
		c.Install.Dir = filepath.Join(home, "Wan2GP")
	}
	if len(c.Install.Locations) == 0 {
		c.Install.Locations = []string{
			filepath.Join(home, "Wan2GP"),
			"/mnt/c/AI/Wan2GP",
			"/mnt/d/AI/Wan2GP",
		}
	}
	c.App.applyDefaults()
	if len(c.Remotes) == 0 {
		c.Remotes = []RemoteBlock{
			{Name: "origin", Branch: "main"},
			{Name: "upstream", URL: "https://github.com/deepbeepmeep/Wan2GP.git", Branch: "main"},
			{Name: "deepbeepmeep", URL: "https://github.com/deepbeepmeep/Wan2GP.git", Branch: "main"},
		}
	}
	for i := range c.Remotes {
		if c.Remotes[i].Branch == "" {
			c.Remotes[i].Branch = "main"
		}
	}
	if len(c.Python.Candidates) == 0 {
		c.Python.Candidates = []string{"python3.12", "python3.11", "python3.10", "python3"}
	}
	if c.Python.Fallback == "" {
		c.Python.Fallback = "python3.11"
	}
	if len(c.Torch.Packages) == 0 {
		c.Torch.Packages = []string{"torch", "torchvision", "torchaudio"}
	}
	if c.Torch.IndexURL == "" {
		c.Torch.IndexURL = "https://download.pytorch.org/whl/cu128"
	}
	c.CUDA.applyDefaults(home)
	c.Sage.applyDefaults()
}

func (a *AppBlock) applyDefaults() {
	if a.Repo == "" {
		a.Repo = "https://github.com/deepbeepmeep/Wan2GP.git"
	}
	if a.Entry == "" {
		a.Entry = "wgp.py"
	}
	if a.Requirements == "" {
		a.Requirements = "requirements.txt"
	}
}

func (c *CUDABlock) applyDefaults(home string) {
	if c.KeyringURL == "" {
		c.KeyringURL = "https://developer.download.nvidia.com/compute/cuda/repos/wsl-ubuntu/x86_64/cuda-keyring_1.1-1_all.deb"
	}
	if c.ToolkitPackage == "" {
		c.ToolkitPackage = "cuda-toolkit-12-8"
	}
	if c.FallbackPackage == "" {
		c.FallbackPackage = "cuda-toolkit"
	}
	if c.Home == "" {
		c.Home = "/usr/local/cuda"
	}
	if c.Profile == "" {
		c.Profile = filepath.Join(home, ".bashrc")
	}
	if len(c.NVCCFallbacks) == 0 {
		c.NVCCFallbacks = []string{
			"/usr/local/cuda/bin/nvcc",
			"/usr/local/cuda-12.8/bin/nvcc",
			"/usr/bin/nvcc",
		}
	}
}

func (s *SageBlock) applyDefaults() {
	if s.Repo == "" {
		s.Repo = "https://github.com/thu-ml/SageAttention.git"
	}
	if s.Prebuilt == "" {
		s.Prebuilt = "sageattention==1.0.6"
	}
	if s.BuildLog == "" {
		s.BuildLog = filepath.Join(os.TempDir(), "sage_build.log")
	}
	if s.MaxJobs <= 0 {
		s.MaxJobs = runtime.NumCPU()
	}
	if s.ExtParallel <= 0 {
		s.ExtParallel = 4
	}
	if s.NVCCThreads <= 0 {
		s.NVCCThreads = 8
	}
}

// Validate ensures the configuration can guide wgpctl's behavior.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Install.Dir) == "" {
		return ErrMissingInstallDir
	}
	if len(c.Install.Locations) != 3 {
		return ErrLocationCount
	}
	if len(c.Remotes) != RemoteChoices {
		return ErrRemoteCount
	}
	for i, r := range c.Remotes {
		if r.Name == "" {
			return fmt.Errorf("config.remotes[%d].name must be set", i)
		}
	}
	if len(c.CUDA.NVCCFallbacks) != 3 {
		return ErrNVCCFallbackCount
	}
	return nil
}

// DefaultPath reports where the config file lives when --config is not given.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "wgpctl", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "wgpctl", "config.toml"), nil
}

// Load reads configuration from disk. Missing files return a default config.
// WGP_DIR, when set, overrides install.dir.
func Load(path string) (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, err
	}

	if dir := os.Getenv("WGP_DIR"); dir != "" {
		cfg.Install.Dir = dir
	}
	cfg.applyDefaults(home)
	cfg.Install.Dir = ExpandHome(cfg.Install.Dir, home)
	cfg.CUDA.Profile = ExpandHome(cfg.CUDA.Profile, home)
	for i, loc := range cfg.Install.Locations {
		cfg.Install.Locations[i] = ExpandHome(loc, home)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes configuration to disk, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// ExpandHome replaces a leading ~ with home.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
