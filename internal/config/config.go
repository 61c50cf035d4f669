// Package config handles reading and writing the sqlpilot configuration file
// (~/.sqlpilot/config.toml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds sqlpilot configuration settings.
type Config struct {
	DBPath        string `toml:"db_path,omitempty" json:"db_path,omitempty"`
	ReportsDir    string `toml:"reports_dir,omitempty" json:"reports_dir,omitempty"`
	LogsDir       string `toml:"logs_dir,omitempty" json:"logs_dir,omitempty"`
	SqlmapPath    string `toml:"sqlmap_path,omitempty" json:"sqlmap_path,omitempty"`
	Wafw00fPath   string `toml:"wafw00f_path,omitempty" json:"wafw00f_path,omitempty"`
	ProxyFile     string `toml:"proxy_file,omitempty" json:"proxy_file,omitempty"`
	TamperDir     string `toml:"tamper_dir,omitempty" json:"tamper_dir,omitempty"`
	DefaultFormat string `toml:"default_format,omitempty" json:"default_format,omitempty"`
}

// validKeys lists the allowed configuration keys.
var validKeys = map[string]bool{
	"db_path":        true,
	"reports_dir":    true,
	"logs_dir":       true,
	"sqlmap_path":    true,
	"wafw00f_path":   true,
	"proxy_file":     true,
	"tamper_dir":     true,
	"default_format": true,
}

// ValidKeys returns the sorted list of valid configuration keys.
func ValidKeys() []string {
	return []string{
		"db_path", "default_format", "logs_dir", "proxy_file",
		"reports_dir", "sqlmap_path", "tamper_dir", "wafw00f_path",
	}
}

// Path returns the default config file path (~/.sqlpilot/config.toml).
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".sqlpilot", "config.toml")
	}
	return filepath.Join(home, ".sqlpilot", "config.toml")
}

// Load reads the config from the default path.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config from a specific path. Returns an empty Config if
// the file does not exist.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to a specific path, creating parent directories as
// needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Get returns the string value of a configuration key.
func (c *Config) Get(key string) (string, error) {
	if !validKeys[key] {
		return "", fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "reports_dir":
		return c.ReportsDir, nil
	case "logs_dir":
		return c.LogsDir, nil
	case "sqlmap_path":
		return c.SqlmapPath, nil
	case "wafw00f_path":
		return c.Wafw00fPath, nil
	case "proxy_file":
		return c.ProxyFile, nil
	case "tamper_dir":
		return c.TamperDir, nil
	case "default_format":
		return c.DefaultFormat, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set assigns a value to a configuration key.
func (c *Config) Set(key, value string) error {
	if !validKeys[key] {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "db_path":
		c.DBPath = value
	case "reports_dir":
		c.ReportsDir = value
	case "logs_dir":
		c.LogsDir = value
	case "sqlmap_path":
		c.SqlmapPath = value
	case "wafw00f_path":
		c.Wafw00fPath = value
	case "proxy_file":
		c.ProxyFile = value
	case "tamper_dir":
		c.TamperDir = value
	case "default_format":
		if value != "" && value != "table" && value != "json" {
			return fmt.Errorf("default_format must be \"table\" or \"json\", got %q", value)
		}
		c.DefaultFormat = value
	}
	return nil
}
