// Package config handles repository configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/matsen/skilltree/internal/layout"
)

// Config represents repository configuration stored in .skilltree/config.json.
type Config struct {
	UserID       string        `json:"user_id,omitempty"`       // Owner of the skill tree edited by default
	Storage      string        `json:"storage,omitempty"`       // Backend: jsonl, sqlite, or memory
	TaxonomyPath string        `json:"taxonomy_path,omitempty"` // Custom catalog (YAML or JSON); empty uses the built-in one
	LogLevel     string        `json:"log_level,omitempty"`     // debug, info, warn, or error
	FPS          float64       `json:"fps,omitempty"`           // Interactive view frame rate
	Layout       layout.Config `json:"layout,omitempty"`        // Force simulation overrides
}

const (
	SkilltreeDir = ".skilltree"
	ConfigFile   = "config.json"
	SkillsFile   = "skills.jsonl"
	DBFile       = "cache.db"
)

// Environment variables that override configuration.
const (
	EnvUser     = "SKT_USER"
	EnvLogLevel = "SKT_LOG_LEVEL"
)

// ErrNotRepository is returned when no .skilltree directory is found.
var ErrNotRepository = errors.New("not in a skilltree repository (no .skilltree directory found)")

// ErrUnknownKey is returned by Get and Set for unsupported keys.
var ErrUnknownKey = errors.New("unknown config key")

// ValidStorage lists the supported storage backends.
var ValidStorage = []string{"jsonl", "sqlite", "memory"}

// ValidLogLevels lists the supported log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Keys lists the keys accepted by Get and Set.
var Keys = []string{"user_id", "storage", "taxonomy_path", "log_level", "fps"}

// DataPath returns the path to the .skilltree directory from a root path.
func DataPath(root string) string {
	return filepath.Join(root, SkilltreeDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, SkilltreeDir, ConfigFile)
}

// SkillsPath returns the path to skills.jsonl from a root path.
func SkillsPath(root string) string {
	return filepath.Join(root, SkilltreeDir, SkillsFile)
}

// DBPath returns the path to the SQLite database from a root path.
func DBPath(root string) string {
	return filepath.Join(root, SkilltreeDir, DBFile)
}

// IsRepository checks if the given path contains a skilltree repository.
func IsRepository(root string) bool {
	info, err := os.Stat(DataPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a skilltree repository.
// Returns the repository root path or ErrNotRepository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from SKT_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvUser); v != "" {
		c.UserID = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// ApplyGlobal fills fields the repository leaves empty from the global
// configuration.
func (c *Config) ApplyGlobal(g *GlobalConfig) {
	if g == nil {
		return
	}
	if c.UserID == "" {
		c.UserID = g.DefaultUser
	}
	if c.LogLevel == "" {
		c.LogLevel = g.LogLevel
	}
	if c.TaxonomyPath == "" {
		c.TaxonomyPath = g.TaxonomyPath
	}
}

// Get returns the value of key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "user_id":
		return c.UserID, nil
	case "storage":
		return c.Storage, nil
	case "taxonomy_path":
		return c.TaxonomyPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "fps":
		if c.FPS == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.FPS, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %s (valid: %v)", ErrUnknownKey, key, Keys)
	}
}

// Set validates value and assigns it to key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "user_id":
		c.UserID = strings.TrimSpace(value)
	case "storage":
		if err := ValidateStorage(value); err != nil {
			return err
		}
		c.Storage = value
	case "taxonomy_path":
		if err := ValidateTaxonomyPath(value); err != nil {
			return err
		}
		c.TaxonomyPath = value
	case "log_level":
		if err := ValidateLogLevel(value); err != nil {
			return err
		}
		c.LogLevel = value
	case "fps":
		fps, err := strconv.ParseFloat(value, 64)
		if err != nil || fps < 0 {
			return fmt.Errorf("invalid fps: %s (must be a non-negative number)", value)
		}
		c.FPS = fps
	default:
		return fmt.Errorf("%w: %s (valid: %v)", ErrUnknownKey, key, Keys)
	}
	return nil
}

// ValidateStorage checks that the storage backend is supported.
func ValidateStorage(backend string) error {
	if backend == "" || slices.Contains(ValidStorage, backend) {
		return nil
	}
	return fmt.Errorf("invalid storage: %s (valid: %v)", backend, ValidStorage)
}

// ValidateLogLevel checks that the log level is supported.
func ValidateLogLevel(level string) error {
	if level == "" || slices.Contains(ValidLogLevels, level) {
		return nil
	}
	return fmt.Errorf("invalid log_level: %s (valid: %v)", level, ValidLogLevels)
}

// ValidateTaxonomyPath checks that the taxonomy file exists.
func ValidateTaxonomyPath(path string) error {
	if path == "" {
		return nil // Empty uses the built-in catalog
	}

	expandedPath := ExpandPath(path)

	info, err := os.Stat(expandedPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", expandedPath)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory: %s", expandedPath)
	}

	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
