// Package config resolves forecast settings. Values are layered, later
// sources winning: built-in defaults, the YAML config file, ledger option
// lines, then environment variables and command-line flags (applied by the
// CLI through kong).
//
//	# beanforecast.yaml
//	horizon: 12m
//	flag: "#"
//	tag: forecast
//	auto_accounts: true
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/autoaccounts"
)

// Ledger option names read by ApplyOptions.
const (
	OptionHorizon = "forecast_horizon"
	OptionFlag    = "forecast_flag"
	OptionTag     = "forecast_tag"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "beanforecast.yaml"

// Config holds the forecast settings.
type Config struct {
	// Horizon is an absolute date (2025-12-31) or a period relative to today
	// (90d, 8w, 12m, 2y). Empty means no horizon.
	Horizon      string `yaml:"horizon"`
	Flag         string `yaml:"flag"`
	Tag          string `yaml:"tag"`
	AutoAccounts bool   `yaml:"auto_accounts"`
	Concurrency  int    `yaml:"concurrency"`
	LogLevel     string `yaml:"log_level"`
	Port         int    `yaml:"port"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Flag:        "#",
		Tag:         "forecast",
		Concurrency: 1,
		LogLevel:    "warn",
		Port:        8080,
	}
}

// LoadEnv loads environment variables from a .env file. A missing default
// file is not an error, a missing explicit one is.
func LoadEnv(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// Load reads the YAML config file at path on top of the defaults. An empty
// path tries DefaultFile and falls back to the defaults when it is absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyOptions overrides settings with forecast options declared in the
// ledger:
//
//	option "forecast_horizon" "2026-12-31"
//	option "forecast_flag" "#"
//	option "forecast_tag" "forecast"
func (c *Config) ApplyOptions(tree *ast.AST) error {
	if v := tree.Option(OptionHorizon); v != "" {
		c.Horizon = v
	}
	if v := tree.Option(OptionFlag); v != "" {
		c.Flag = v
	}
	if v := tree.Option(OptionTag); v != "" {
		c.Tag = v
	}
	if tree.HasPlugin(autoaccounts.PluginName) {
		c.AutoAccounts = true
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid ledger option: %w", err)
	}
	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	if _, err := ParseHorizon(c.Horizon, time.Now()); err != nil {
		return err
	}
	if !validFlag(c.Flag) {
		return fmt.Errorf("invalid flag %q, expected a single character such as '#' or '!'", c.Flag)
	}
	if strings.ContainsAny(c.Tag, " \t#^") {
		return fmt.Errorf("invalid tag %q", c.Tag)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// HorizonDate resolves Horizon against now. The zero time means no horizon.
func (c *Config) HorizonDate(now time.Time) (time.Time, error) {
	return ParseHorizon(c.Horizon, now)
}

// ParseHorizon parses an absolute date or a relative period such as "90d",
// "8w", "12m" or "2y" (optionally prefixed with '+') counted from the day of
// now. An empty string returns the zero time.
func ParseHorizon(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(ast.DateFormat, s); err == nil {
		return t, nil
	}

	rel := strings.TrimPrefix(s, "+")
	if len(rel) < 2 {
		return time.Time{}, fmt.Errorf("invalid horizon %q, expected YYYY-MM-DD or a period like 12m", s)
	}

	n, err := strconv.Atoi(rel[:len(rel)-1])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("invalid horizon %q, expected YYYY-MM-DD or a period like 12m", s)
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	switch unit := rel[len(rel)-1]; unit {
	case 'd', 'D':
		return today.AddDate(0, 0, n), nil
	case 'w', 'W':
		return today.AddDate(0, 0, 7*n), nil
	case 'm', 'M':
		return today.AddDate(0, n, 0), nil
	case 'y', 'Y':
		return today.AddDate(n, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("invalid horizon unit %q in %q, expected d, w, m or y", string(unit), s)
	}
}

func validFlag(flag string) bool {
	if len(flag) != 1 {
		return false
	}
	return strings.Contains("*!#?%&PSTCURM", flag)
}
