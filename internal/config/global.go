package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// GlobalConfig holds per-machine defaults from ~/.config/skt/config.yml.
// Repository settings take precedence over every field.
type GlobalConfig struct {
	DefaultUser  string `yaml:"default_user,omitempty"`
	HomeRepo     string `yaml:"home_repo,omitempty"` // Repository used outside any .skilltree directory
	LogLevel     string `yaml:"log_level,omitempty"`
	TaxonomyPath string `yaml:"taxonomy_path,omitempty"`
}

const (
	GlobalConfigDir  = "skt"
	GlobalConfigFile = "config.yml"
)

// Errors returned when resolving the home repository.
var (
	ErrHomeRepoNotSet  = errors.New("home_repo not configured")
	ErrHomeRepoMissing = errors.New("home_repo is not a skilltree repository")
)

var (
	globalMu     sync.Mutex
	globalCached *GlobalConfig
)

// GlobalConfigPath returns the global config location under
// $XDG_CONFIG_HOME, or ~/.config when unset. It is empty if no home
// directory can be determined.
func GlobalConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig reads the global config once per process. A missing file
// yields an empty config. Paths are expanded and the log level is checked.
func LoadGlobalConfig() (*GlobalConfig, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalCached != nil {
		return globalCached, nil
	}

	cfg, err := readGlobalConfig(GlobalConfigPath())
	if err != nil {
		return nil, err
	}
	globalCached = cfg
	return cfg, nil
}

func readGlobalConfig(path string) (*GlobalConfig, error) {
	cfg := &GlobalConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading global config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing global config %s: %w", path, err)
	}
	if err := ValidateLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("global config %s: %w", path, err)
	}

	cfg.HomeRepo = ExpandPath(cfg.HomeRepo)
	cfg.TaxonomyPath = ExpandPath(cfg.TaxonomyPath)
	return cfg, nil
}

// ResetGlobalConfigCache forces the next LoadGlobalConfig to reread the file.
func ResetGlobalConfigCache() {
	globalMu.Lock()
	globalCached = nil
	globalMu.Unlock()
}

// HomeRepository returns the configured home_repo if it is a repository.
func HomeRepository() (string, error) {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	switch {
	case cfg.HomeRepo == "":
		return "", ErrHomeRepoNotSet
	case !IsRepository(cfg.HomeRepo):
		return "", fmt.Errorf("%w: %s", ErrHomeRepoMissing, cfg.HomeRepo)
	}
	return cfg.HomeRepo, nil
}

// ResolveRepository returns the repository enclosing start, or the home
// repository when start is outside of one.
func ResolveRepository(start string) (string, error) {
	root, err := FindRepository(start)
	if !errors.Is(err, ErrNotRepository) {
		return root, err
	}
	if home, homeErr := HomeRepository(); homeErr == nil {
		return home, nil
	}
	return "", err
}

// HelpfulConfigMessage explains how to get a repository when none is found.
func HelpfulConfigMessage() string {
	path := GlobalConfigPath()
	return fmt.Sprintf(`No skilltree repository found.

Run 'skt init' to create one here, or point %s at an existing one:
  mkdir -p %s
  echo 'home_repo: /path/to/your/skills' >> %s`,
		path, filepath.Dir(path), path)
}
