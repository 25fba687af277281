// Package config handles configuration loading and defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultAPIBaseURL     = "http://localhost:8000"
	DefaultTimeoutSeconds = 30
	DefaultDownloadDir    = "."
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Config holds the full configuration for todone. The API base URL is
// the one process-wide endpoint, fixed at startup and passed explicitly
// into the API client constructor.
type Config struct {
	// API endpoint
	APIBaseURL     string `toml:"api_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	// ValidateResponses enables schema checking of list responses.
	ValidateResponses bool `toml:"validate_responses"`

	// DownloadDir is where fetched attachments are written.
	DownloadDir string `toml:"download_dir"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
}

// Timeout returns the per-request deadline for API calls.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.todone/todone.toml or OS-specific config dir)
// 3. Project config file (todone.toml or .todone.toml in current directory)
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
	}

	if projectConfigFile := findProjectConfigFile(); projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
	}

	loadFromEnv(cfg)

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	finalizeConfig(cfg)
	return cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.APIBaseURL = DefaultAPIBaseURL
	cfg.TimeoutSeconds = DefaultTimeoutSeconds
	cfg.DownloadDir = DefaultDownloadDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TODONE_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("TODONE_TIMEOUT"); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			cfg.TimeoutSeconds = i
		}
	}
	if v := os.Getenv("TODONE_DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = v
	}
	if v := os.Getenv("TODONE_VALIDATE_RESPONSES"); v != "" {
		cfg.ValidateResponses = boolFromString(v)
	}
	if v := os.Getenv("TODONE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TODONE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TODONE_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
	}
	if v := os.Getenv("TODONE_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
	}
}

// parseFlags defines and parses CLI flags. They override everything.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	if fs == nil {
		fs = flag.NewFlagSet("todone", flag.ContinueOnError)
	}

	fs.StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "Base URL of the To-Done API")
	fs.IntVar(&cfg.TimeoutSeconds, "timeout", cfg.TimeoutSeconds, "Request timeout in seconds")
	fs.StringVar(&cfg.DownloadDir, "download-dir", cfg.DownloadDir, "Directory for downloaded attachments")
	fs.BoolVar(&cfg.ValidateResponses, "validate-responses", cfg.ValidateResponses, "Check list responses against the record schema")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	return fs.Parse(args)
}

// finalizeConfig computes derived values.
func finalizeConfig(cfg *Config) {
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.DownloadDir = expandPath(cfg.DownloadDir)
}

// findProjectConfigFile looks for a config file in the current directory.
func findProjectConfigFile() string {
	names := []string{"todone.toml", ".todone.toml"}
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// findUserConfigFile looks for a user-level config file. Checks
// ~/.todone/todone.toml first, then falls back to OS-specific config
// directories if ~/.todone doesn't exist.
func findUserConfigFile() string {
	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".todone", "todone.toml")
		if _, err := os.Stat(userConfigPath); err == nil {
			return userConfigPath
		}
	}

	if cfgDir := osUserConfigDir(); cfgDir != "" {
		userConfigPath := filepath.Join(cfgDir, "todone", "todone.toml")
		if _, err := os.Stat(userConfigPath); err == nil {
			return userConfigPath
		}
	}

	return ""
}

// osUserConfigDir returns the OS-specific user config directory.
// Returns empty string if the directory cannot be determined.
func osUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return appdata
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	case "linux", "openbsd", "freebsd", "netbsd":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, ".config")
		}
	}
	return ""
}

// loadConfigFile loads TOML config from the given file.
func loadConfigFile(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// expandPath expands a leading ~ and environment variables in paths.
func expandPath(p string) string {
	if p == "" {
		return p
	}

	expanded := os.ExpandEnv(p)
	if expanded == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return home
	}
	if strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return filepath.Join(home, expanded[2:])
	}
	return expanded
}
