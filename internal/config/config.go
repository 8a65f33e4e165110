package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory and the XDG config dir.
const FileName = "spendview.yaml"

// AppDir is the subdirectory of $XDG_CONFIG_HOME holding FileName.
const AppDir = "spendview"

// EnvAddr overrides Server.Addr when set.
const EnvAddr = "SPENDVIEW_ADDR"

// Config represents the top-level spendview.yaml configuration.
type Config struct {
	Range  RangeConfig  `yaml:"range"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// RangeConfig bounds the selectable date range.
type RangeConfig struct {
	DefaultStart string `yaml:"default_start"` // "YYYY-MM-DD"
	MinDate      string `yaml:"min_date"`      // "YYYY-MM-DD"
}

// ServerConfig controls the HTTP upload API.
type ServerConfig struct {
	Addr           string  `yaml:"addr"`
	MaxUploadMB    int     `yaml:"max_upload_mb"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	// TrustProxy keys rate limiting on X-Forwarded-For. Enable only behind a
	// proxy that overwrites that header.
	TrustProxy     bool    `yaml:"trust_proxy"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Load reads a spendview.yaml file from disk. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if _, _, err := c.Range.Dates(); err != nil {
		return err
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("server.rate_limit_burst must be at least 1 when rate_limit_rps is %g, got %d",
			c.Server.RateLimitRPS, c.Server.RateLimitBurst)
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the stock date bounds and server settings.
func Default() *Config {
	return &Config{
		Range: RangeConfig{
			DefaultStart: "2025-01-01",
			MinDate:      "2000-01-01",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadMB:    32,
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Resolve finds and loads the config. An explicit path must exist; otherwise
// ./spendview.yaml, then $XDG_CONFIG_HOME/spendview/spendview.yaml are tried,
// falling back to Default. The second return value is the path loaded, or ""
// when defaults were used.
func Resolve(explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		if err != nil {
			return nil, "", err
		}
		return cfg, explicit, nil
	}

	for _, candidate := range []string{FileName, XDGPath()} {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("checking %s: %w", candidate, err)
		}
		cfg, err := Load(candidate)
		if err != nil {
			return nil, "", err
		}
		return cfg, candidate, nil
	}
	return Default(), "", nil
}

// XDGPath returns the per-user config location.
func XDGPath() string {
	return filepath.Join(xdg.ConfigHome, AppDir, FileName)
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	if addr := os.Getenv(EnvAddr); addr != "" {
		c.Server.Addr = addr
	}
}

// Dates parses the default start and minimum dates.
func (r RangeConfig) Dates() (defaultStart, minDate time.Time, err error) {
	defaultStart, err = time.Parse(time.DateOnly, r.DefaultStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing range.default_start %q: %w", r.DefaultStart, err)
	}
	minDate, err = time.Parse(time.DateOnly, r.MinDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing range.min_date %q: %w", r.MinDate, err)
	}
	return defaultStart, minDate, nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}
