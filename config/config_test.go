package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beancount-forecast/autoaccounts"
	"github.com/robinvdvleuten/beancount-forecast/parser"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beanforecast.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(`
horizon: "2026-12-31"
flag: "!"
tag: planned
auto_accounts: true
concurrency: 4
`), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, &Config{
		Horizon:      "2026-12-31",
		Flag:         "!",
		Tag:          "planned",
		AutoAccounts: true,
		Concurrency:  4,
		LogLevel:     "warn",
		Port:         8080,
	}, cfg)
}

func TestLoadDefaultMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	assert.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("MissingExplicit", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		assert.NoError(t, os.WriteFile(path, []byte("horizon: [unclosed"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("InvalidValue", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		assert.NoError(t, os.WriteFile(path, []byte("flag: forecast\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), `invalid flag "forecast"`)
	})
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, os.WriteFile(path, []byte("BEANFORECAST_TEST_HORIZON=6m\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("BEANFORECAST_TEST_HORIZON") })

	assert.NoError(t, LoadEnv(path))
	assert.Equal(t, "6m", os.Getenv("BEANFORECAST_TEST_HORIZON"))

	assert.Error(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestApplyOptions(t *testing.T) {
	tree, err := parser.ParseString(context.Background(), `
option "forecast_horizon" "2027-06-30"
option "forecast_tag" "budget"
plugin "beancount.plugins.auto_accounts"
`)
	assert.NoError(t, err)

	cfg := Default()
	assert.NoError(t, cfg.ApplyOptions(tree))
	assert.Equal(t, "2027-06-30", cfg.Horizon)
	assert.Equal(t, "budget", cfg.Tag)
	assert.Equal(t, "#", cfg.Flag)
	assert.True(t, cfg.AutoAccounts)

	tree, err = parser.ParseString(context.Background(), `plugin "`+autoaccounts.PluginName+`"`)
	assert.NoError(t, err)
	cfg = Default()
	assert.NoError(t, cfg.ApplyOptions(tree))
	assert.True(t, cfg.AutoAccounts)

	tree, err = parser.ParseString(context.Background(), `plugin "beancount.plugins.other"`)
	assert.NoError(t, err)
	cfg = Default()
	assert.NoError(t, cfg.ApplyOptions(tree))
	assert.False(t, cfg.AutoAccounts)

	tree, err = parser.ParseString(context.Background(), `option "forecast_horizon" "soon"`)
	assert.NoError(t, err)
	assert.Error(t, Default().ApplyOptions(tree))
}

func TestParseHorizon(t *testing.T) {
	now := time.Date(2024, 5, 17, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		input string
		want  string
	}{
		{"2025-12-31", "2025-12-31"},
		{"90d", "2024-08-15"},
		{"+2w", "2024-05-31"},
		{"12m", "2025-05-17"},
		{"2Y", "2026-05-17"},
		{"0d", "2024-05-17"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHorizon(tt.input, now)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}

	got, err := ParseHorizon("", now)
	assert.NoError(t, err)
	assert.True(t, got.IsZero())

	for _, invalid := range []string{"tomorrow", "12", "-3m", "5h", "2024-13-01"} {
		t.Run(invalid, func(t *testing.T) {
			_, err := ParseHorizon(invalid, now)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		err    string
	}{
		{"Flag", func(c *Config) { c.Flag = "##" }, "invalid flag"},
		{"Tag", func(c *Config) { c.Tag = "two words" }, "invalid tag"},
		{"Concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency must be at least 1"},
		{"Port", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"Horizon", func(c *Config) { c.Horizon = "later" }, "invalid horizon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}

	assert.NoError(t, Default().Validate())
}
