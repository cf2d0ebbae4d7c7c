package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "popover-", cfg.Placement.IDPrefix)
	assert.Equal(t, "data-popover-flip", cfg.Placement.FlipAttribute)
	assert.Equal(t, "data-popover-container", cfg.Placement.ContainerAttribute)
	assert.Equal(t, "main", cfg.Placement.MainContainer)
	assert.Equal(t, "appbar", cfg.Placement.AppBarClass)
	assert.Equal(t, 2, cfg.Placement.Precision)
	assert.True(t, cfg.Placement.LegacyDefaultAnchor)
	assert.Equal(t, 16, cfg.Placement.ResizeLoopLimit)
	assert.Equal(t, 8, cfg.Preview.CellWidth)
	assert.Equal(t, 16, cfg.Preview.CellHeight)
	assert.True(t, cfg.Preview.ShowHelp)
	assert.Equal(t, 100*time.Millisecond, cfg.Watch.Debounce.Duration())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[placement]
id_prefix = "pop-"
flip_attribute = "data-flip"
main_container = "app"
precision = 3
legacy_default_anchor = false
resize_loop_limit = 4

[preview]
cell_width = 10
cell_height = 20
show_help = false

[watch]
debounce = "250ms"

[log]
level = "debug"
format = "json"
`
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "pop-", cfg.Placement.IDPrefix)
	assert.Equal(t, "data-flip", cfg.Placement.FlipAttribute)
	assert.Equal(t, "app", cfg.Placement.MainContainer)
	assert.Equal(t, 3, cfg.Placement.Precision)
	assert.False(t, cfg.Placement.LegacyDefaultAnchor)
	assert.Equal(t, 4, cfg.Placement.ResizeLoopLimit)
	assert.Equal(t, 10, cfg.Preview.CellWidth)
	assert.Equal(t, 20, cfg.Preview.CellHeight)
	assert.False(t, cfg.Preview.ShowHelp)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce.Duration())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[placement]
precision = 0
`
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// Changed field
	assert.Equal(t, 0, cfg.Placement.Precision)

	// Unchanged fields should have defaults
	assert.Equal(t, "popover-", cfg.Placement.IDPrefix)
	assert.True(t, cfg.Placement.LegacyDefaultAnchor)
	assert.Equal(t, 8, cfg.Preview.CellWidth)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	err := os.WriteFile(path, []byte(`this is not valid toml [`), 0644)
	require.NoError(t, err)

	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	err := os.WriteFile(path, []byte("[placement]\nprecision = 12\n"), 0644)
	require.NoError(t, err)

	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precision")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"empty prefix", func(c *Config) { c.Placement.IDPrefix = "" }, "id_prefix"},
		{"empty attribute", func(c *Config) { c.Placement.FlipAttribute = "" }, "attribute"},
		{"appbar with space", func(c *Config) { c.Placement.AppBarClass = "app bar" }, "appbar_class"},
		{"negative precision", func(c *Config) { c.Placement.Precision = -1 }, "precision"},
		{"loop limit", func(c *Config) { c.Placement.ResizeLoopLimit = 0 }, "resize_loop_limit"},
		{"cell size", func(c *Config) { c.Preview.CellHeight = 0 }, "cell size"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = Duration(-time.Second) }, "debounce"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.Placement.IDPrefix = "menu-"
	cfg.Watch.Debounce = Duration(2 * time.Second)

	err := cfg.Save(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "menu-", loaded.Placement.IDPrefix)
	assert.Equal(t, 2*time.Second, loaded.Watch.Debounce.Duration())
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"100ms", 100 * time.Millisecond, false},
		{"1s", time.Second, false},
		{"250", 250 * time.Millisecond, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("")
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/popanchor/config.toml", ConfigPath())
}

func TestConfigPathDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	path := ConfigPath()
	assert.Contains(t, path, filepath.Join("popanchor", "config.toml"))
}
