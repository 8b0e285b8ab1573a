package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const (
	DefaultDBFileName    = ".soundvault.db"
	DefaultLogLevel      = "info"
	DefaultMaxFileSizeMB = 15

	configFileName  = ".soundvault.toml"
	configDirEnvKey = "SOUNDVAULT_CONFIG_DIR"

	bytesPerMB = 1024 * 1024
)

// MaxFileSizeOptionsMB lists the accepted values for assets.max_file_size_mb.
var MaxFileSizeOptionsMB = []int{5, 10, 15, 25, 50}

// AssetsConfig defines runtime configuration for the asset store.
type AssetsConfig struct {
	MaxFileSizeMB int `toml:"max_file_size_mb"`
}

// OverridesConfig defines startup policy for sound overrides.
type OverridesConfig struct {
	ResetSeasonalOnStartup bool `toml:"reset_seasonal_on_startup"`
}

// Config defines runtime configuration for soundvault.
type Config struct {
	DBPath      string          `toml:"db_path"`
	LogLevel    string          `toml:"log_level"`
	CatalogPath string          `toml:"catalog_path"`
	Assets      AssetsConfig    `toml:"assets"`
	Overrides   OverridesConfig `toml:"overrides"`

	// Path is the file the config was read from, empty when none existed.
	Path string `toml:"-"`
}

// envOverrides are applied after the config file.
type envOverrides struct {
	DBPath        string `env:"SOUNDVAULT_DB"`
	LogLevel      string `env:"SOUNDVAULT_LOG_LEVEL"`
	CatalogPath   string `env:"SOUNDVAULT_CATALOG"`
	MaxFileSizeMB int    `env:"SOUNDVAULT_MAX_FILE_SIZE_MB"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Assets: AssetsConfig{
			MaxFileSizeMB: DefaultMaxFileSizeMB,
		},
	}
}

// MaxFileBytes returns the per-file upload ceiling in bytes.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Assets.MaxFileSizeMB) * bytesPerMB
}

// IsValidMaxFileSizeMB reports whether mb is one of the offered size options.
func IsValidMaxFileSizeMB(mb int) bool {
	return slices.Contains(MaxFileSizeOptionsMB, mb)
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

var allowedKeys = []string{
	"db_path",
	"log_level",
	"catalog_path",
	"assets.max_file_size_mb",
	"overrides.reset_seasonal_on_startup",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	return slices.Contains(allowedKeys, key)
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "catalog_path":
		return c.CatalogPath, nil
	case "assets.max_file_size_mb":
		return strconv.Itoa(c.Assets.MaxFileSizeMB), nil
	case "overrides.reset_seasonal_on_startup":
		return strconv.FormatBool(c.Overrides.ResetSeasonalOnStartup), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads the config file and applies env overrides.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadPath(path)
}

// LoadPath reads the config file at path (missing files are fine) and applies
// env overrides.
func LoadPath(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		loaded, err := loadFileIfExists(path, &cfg)
		if err != nil {
			return nil, err
		}
		if loaded {
			cfg.Path = path
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if v := strings.TrimSpace(overrides.DBPath); v != "" {
		c.DBPath = v
	}
	if v := strings.TrimSpace(overrides.LogLevel); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(overrides.CatalogPath); v != "" {
		c.CatalogPath = v
	}
	if overrides.MaxFileSizeMB != 0 {
		c.Assets.MaxFileSizeMB = overrides.MaxFileSizeMB
	}
	return nil
}

func (c *Config) normalize() {
	c.LogLevel = strings.TrimSpace(c.LogLevel)
	c.CatalogPath = strings.TrimSpace(c.CatalogPath)
	if !IsValidMaxFileSizeMB(c.Assets.MaxFileSizeMB) {
		c.Assets.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
}

// ParseLogLevel maps a log_level value to a slog level. Empty means
// DefaultLogLevel; "warning" is accepted for warn.
func ParseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return ParseLogLevel(DefaultLogLevel)
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "assets.max_file_size_mb":
		parsed, err := strconv.Atoi(value)
		if err != nil || !IsValidMaxFileSizeMB(parsed) {
			return nil, fmt.Errorf("%s must be one of %s", key, formatOptions(MaxFileSizeOptionsMB))
		}
		return int64(parsed), nil
	case "overrides.reset_seasonal_on_startup":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "log_level":
		if _, err := ParseLogLevel(value); err != nil {
			return nil, fmt.Errorf("%s must be one of debug, info, warn, error", key)
		}
		return strings.ToLower(value), nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func formatOptions(options []int) string {
	parts := make([]string, len(options))
	for i, v := range options {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
