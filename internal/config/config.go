// Package config loads strategist's YAML configuration.
//
// Files live under the XDG directories: config in
// $XDG_CONFIG_HOME/strategist, the server database in $XDG_DATA_HOME,
// logs and the event log in $XDG_STATE_HOME. Secrets come from the
// environment or a .env file, never from the YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "strategist"

// Config is the persistent application configuration
type Config struct {
	// Base URL of the link analysis API
	ServerURL string `yaml:"server_url"`

	// Per-request HTTP timeout, Go duration syntax
	RequestTimeout string `yaml:"request_timeout"`

	// Client-side pacing of API calls. 0 disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Where CSV exports are written
	ExportDir string `yaml:"export_dir"`

	LogLevel string `yaml:"log_level"`

	Analysis AnalysisConfig `yaml:"analysis"`
	Server   ServerConfig   `yaml:"server"`

	// APIKey is the Anthropic key used by the server. Env only.
	APIKey string `yaml:"-"`
}

// AnalysisConfig holds the defaults the TUI pre-fills for each request.
type AnalysisConfig struct {
	// Opportunities to request, 0 lets the server choose
	Count       int    `yaml:"count"`
	Instruction string `yaml:"instruction"`
}

// ServerConfig configures `strategist serve`.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path"`
	Model  string `yaml:"model"`

	MaxTokens int `yaml:"max_tokens"`

	// Article content beyond this many characters is cut before prompting
	ContentLimit int `yaml:"content_limit"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ServerURL:         "http://localhost:8000",
		RequestTimeout:    "90s",
		RequestsPerSecond: 4,
		ExportDir:         xdg.UserDirs.Download,
		LogLevel:          "info",
		Analysis: AnalysisConfig{
			Count: 3,
		},
		Server: ServerConfig{
			Addr:         ":8000",
			DBPath:       filepath.Join(xdg.DataHome, appName, appName+".db"),
			Model:        "claude-sonnet-4-20250514",
			MaxTokens:    2000,
			ContentLimit: 12000,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// LogDir is where the text log files go.
func LogDir() string {
	return filepath.Join(xdg.StateHome, appName, "logs")
}

// EventsPath is the JSONL event log.
func EventsPath() string {
	return filepath.Join(xdg.StateHome, appName, "events.jsonl")
}

// Load reads config from path (ConfigPath when empty) over the defaults.
// A missing file is not an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.AutoPopulateFromEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to path (ConfigPath when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// AutoPopulateFromEnv applies environment overrides.
func (c *Config) AutoPopulateFromEnv() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.APIKey = key
	}
	if key := os.Getenv("CLAUDE_API_KEY"); key != "" && c.APIKey == "" {
		c.APIKey = key
	}
	if u := os.Getenv("STRATEGIST_SERVER_URL"); u != "" {
		c.ServerURL = u
	}
}

// LoadEnvFile reads KEY=value pairs from a .env file into the process
// environment without overriding variables that are already set, then
// reapplies the environment overrides.
func (c *Config) LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	c.AutoPopulateFromEnv()
	return nil
}

// Timeout parses RequestTimeout, falling back to 90s.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 90 * time.Second
	}
	return d
}

// ResolvedExportDir expands a leading ~ and falls back to the working
// directory.
func (c *Config) ResolvedExportDir() string {
	dir := c.ExportDir
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	if dir == "" {
		return "."
	}
	return dir
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server_url must be http or https, got %q", c.ServerURL)
	}
	if c.Analysis.Count < 0 || c.Analysis.Count > 5 {
		return fmt.Errorf("analysis.count must be between 0 and 5, got %d", c.Analysis.Count)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	return nil
}
