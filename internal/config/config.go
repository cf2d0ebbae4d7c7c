// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultIDPrefix           = "popover-"
	DefaultFlipAttribute      = "data-popover-flip"
	DefaultContainerAttribute = "data-popover-container"
	DefaultMainContainer      = "main"
	DefaultAppBarClass        = "appbar"
	DefaultPrecision          = 2
	DefaultResizeLoopLimit    = 16
	DefaultCellWidth          = 8
	DefaultCellHeight         = 16
	DefaultDebounce           = 100 * time.Millisecond
	DefaultLogLevel           = "warn"
	DefaultLogFormat          = "text"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "100ms", "1s", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '100ms', '1s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the popanchor configuration.
type Config struct {
	Placement PlacementConfig `toml:"placement"`
	Preview   PreviewConfig   `toml:"preview"`
	Watch     WatchConfig     `toml:"watch"`
	Log       LogConfig       `toml:"log"`
}

// PlacementConfig holds the engine's naming conventions and numeric behaviour.
type PlacementConfig struct {
	IDPrefix            string `toml:"id_prefix"`             // Popover element id = prefix + registered id
	FlipAttribute       string `toml:"flip_attribute"`        // Marker set while a flip is applied
	ContainerAttribute  string `toml:"container_attribute"`   // Marker on the observed main container
	MainContainer       string `toml:"main_container"`        // Id of the main container (root if missing)
	AppBarClass         string `toml:"appbar_class"`          // Class of top/bottom app bars
	Precision           int    `toml:"precision"`             // Decimals written to left/top
	LegacyDefaultAnchor bool   `toml:"legacy_default_anchor"` // Keep swapped fallback anchor point
	ResizeLoopLimit     int    `toml:"resize_loop_limit"`     // Resize rounds per mutation
}

// PreviewConfig holds terminal preview settings.
type PreviewConfig struct {
	CellWidth  int  `toml:"cell_width"`  // Pixels per terminal column
	CellHeight int  `toml:"cell_height"` // Pixels per terminal row
	ShowHelp   bool `toml:"show_help"`
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	Debounce Duration `toml:"debounce"` // Quiet period before reloading
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Placement: PlacementConfig{
			IDPrefix:            DefaultIDPrefix,
			FlipAttribute:       DefaultFlipAttribute,
			ContainerAttribute:  DefaultContainerAttribute,
			MainContainer:       DefaultMainContainer,
			AppBarClass:         DefaultAppBarClass,
			Precision:           DefaultPrecision,
			LegacyDefaultAnchor: true,
			ResizeLoopLimit:     DefaultResizeLoopLimit,
		},
		Preview: PreviewConfig{
			CellWidth:  DefaultCellWidth,
			CellHeight: DefaultCellHeight,
			ShowHelp:   true,
		},
		Watch: WatchConfig{
			Debounce: Duration(DefaultDebounce),
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "popanchor", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	p := c.Placement
	if p.IDPrefix == "" {
		return errors.New("placement.id_prefix must not be empty")
	}
	if p.FlipAttribute == "" || p.ContainerAttribute == "" {
		return errors.New("placement attribute names must not be empty")
	}
	if p.AppBarClass == "" || strings.ContainsAny(p.AppBarClass, " \t") {
		return fmt.Errorf("invalid appbar_class %q", p.AppBarClass)
	}
	if p.Precision < 0 || p.Precision > 6 {
		return fmt.Errorf("precision must be between 0 and 6, got %d", p.Precision)
	}
	if p.ResizeLoopLimit < 1 || p.ResizeLoopLimit > 1000 {
		return fmt.Errorf("resize_loop_limit must be between 1 and 1000, got %d", p.ResizeLoopLimit)
	}

	if c.Preview.CellWidth < 1 || c.Preview.CellHeight < 1 {
		return fmt.Errorf("preview cell size must be positive, got %dx%d", c.Preview.CellWidth, c.Preview.CellHeight)
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce.Duration())
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be text or json", c.Log.Format)
	}

	return nil
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
	}
}
