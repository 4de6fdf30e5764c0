package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvUser     = "ORACLE_USER"
	EnvPassword = "ORACLE_PASSWORD"
	EnvDSN      = "ORACLE_DSN"
	EnvSchema   = "ORACLE_SCHEMA"
)

// Config holds all application configuration.
type Config struct {
	Connection     ConnectionConfig `yaml:"connection"`
	Theme          string           `yaml:"theme"`
	RowLimit       int              `yaml:"row_limit"`
	DefaultFilters []string         `yaml:"default_filters"`
	HistorySize    int              `yaml:"history_size"`
	Audit          AuditConfig      `yaml:"audit"`
	Debug          bool             `yaml:"debug"`
}

// ConnectionConfig holds the persisted connection credentials.
type ConnectionConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DSN      string `yaml:"dsn"`
	Schema   string `yaml:"schema"`
}

// Complete reports whether all four fields are set.
func (c ConnectionConfig) Complete() bool {
	return c.User != "" && c.Password != "" && c.DSN != "" && c.Schema != ""
}

// Merge fills the empty fields of c from other.
func (c ConnectionConfig) Merge(other ConnectionConfig) ConnectionConfig {
	if c.User == "" {
		c.User = other.User
	}
	if c.Password == "" {
		c.Password = other.Password
	}
	if c.DSN == "" {
		c.DSN = other.DSN
	}
	if c.Schema == "" {
		c.Schema = other.Schema
	}
	return c
}

// DisplayString returns user@dsn without the password.
func (c ConnectionConfig) DisplayString() string {
	if c.User == "" {
		return c.DSN
	}
	return c.User + "@" + c.DSN
}

// AuditConfig controls the ad-hoc statement audit log.
type AuditConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Theme:          "default",
		RowLimit:       50,
		DefaultFilters: []string{"TABLE"},
		HistorySize:    1000,
		Audit: AuditConfig{
			Enabled:   true,
			MaxSizeMB: 10,
		},
	}
}

// ErrMalformed marks a config file that exists but could not be parsed.
var ErrMalformed = errors.New("malformed config")

// ConfigDir returns the oraterm configuration directory path.
// It uses os.UserConfigDir to locate the base config directory and
// appends "oraterm" to it, typically resulting in ~/.config/oraterm/.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, "oraterm"), nil
}

// DefaultPath returns ConfigDir()/config.yaml.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads a Config from the YAML file at path. If the file does not exist,
// it returns DefaultConfig without error. A file that cannot be parsed also
// yields DefaultConfig, together with an error wrapping ErrMalformed, so the
// caller can warn and carry on without a stored connection.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadDefault loads configuration from the default path.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return Load(path)
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.RowLimit <= 0 {
		c.RowLimit = d.RowLimit
	}
	if len(c.DefaultFilters) == 0 {
		c.DefaultFilters = d.DefaultFilters
	}
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	if c.Theme == "" {
		c.Theme = d.Theme
	}
	c.Connection.User = strings.TrimSpace(c.Connection.User)
	c.Connection.DSN = strings.TrimSpace(c.Connection.DSN)
	c.Connection.Schema = strings.TrimSpace(c.Connection.Schema)
}

// StoredConnection returns the stored credentials. ok is false unless all
// four fields are present.
func (c *Config) StoredConnection() (ConnectionConfig, bool) {
	return c.Connection, c.Connection.Complete()
}

// Save writes the Config to the YAML file at path, creating any necessary
// parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveDefault writes the Config to the default path.
func (c *Config) SaveDefault() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.Save(path)
}

// AuditPath returns the configured audit file, or audit.jsonl next to the
// config file.
func (c *Config) AuditPath(configDir string) string {
	if c.Audit.Path != "" {
		return c.Audit.Path
	}
	return filepath.Join(configDir, "audit.jsonl")
}

// FromEnv reads connection values from the ORACLE_* environment variables.
func FromEnv(getenv func(string) string) ConnectionConfig {
	return ConnectionConfig{
		User:     getenv(EnvUser),
		Password: getenv(EnvPassword),
		DSN:      getenv(EnvDSN),
		Schema:   getenv(EnvSchema),
	}
}
