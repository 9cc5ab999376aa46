// Package config provides configuration parsing for processpilot.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the processpilot configuration.
type Config struct {
	// Monitor holds sampling-engine settings.
	Monitor MonitorConfig `yaml:"monitor"`

	// Display holds TUI rendering settings.
	Display DisplayConfig `yaml:"display"`

	// Cache holds lookup-cache sizing.
	Cache CacheConfig `yaml:"cache"`

	// Terminate holds process-termination settings.
	Terminate TerminateConfig `yaml:"terminate"`

	// Logging holds log output settings.
	Logging LoggingConfig `yaml:"logging"`
}

// MonitorConfig holds sampling-engine settings.
type MonitorConfig struct {
	// RefreshInterval is a duration string (e.g. "2s") between samples once warmup ends.
	RefreshInterval string `yaml:"refresh_interval"`
	// WarmupInterval is a duration string between the rapid initial samples.
	WarmupInterval string `yaml:"warmup_interval"`
	// WarmupSamples is how many rapid samples run before the steady interval takes over.
	WarmupSamples int `yaml:"warmup_samples"`
	// SmoothingWindow is the number of recent samples averaged per process.
	SmoothingWindow int `yaml:"smoothing_window"`
	// HistorySamples caps the bottom-bar chart buffers.
	HistorySamples int `yaml:"history_samples"`
}

// DisplayConfig holds TUI rendering settings.
type DisplayConfig struct {
	// SortKey selects the initial sort column: "cpu" or "memory".
	SortKey string `yaml:"sort_key"`
	// SortDescending controls the initial sort direction.
	SortDescending bool `yaml:"sort_descending"`
	// GroupByApp starts the view in grouped mode.
	GroupByApp bool `yaml:"group_by_app"`
	// ShowIcons enables application icon loading.
	ShowIcons bool `yaml:"show_icons"`
}

// CacheConfig holds lookup-cache sizing.
type CacheConfig struct {
	// DescriptionCapacity bounds the bundle-description cache.
	DescriptionCapacity int `yaml:"description_capacity"`
	// IconCapacity bounds the application-icon cache.
	IconCapacity int `yaml:"icon_capacity"`
}

// TerminateConfig holds process-termination settings.
type TerminateConfig struct {
	// ConfirmKill requires a confirmation prompt before signalling.
	ConfirmKill bool `yaml:"confirm_kill"`
	// UseHelper enables delegation to the privileged helper on permission errors.
	UseHelper bool `yaml:"use_helper"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// File is the path for log output; empty discards logs.
	File string `yaml:"file"`
	// Level is the minimum level: "debug", "info", "warn", or "error".
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Monitor: MonitorConfig{
			RefreshInterval: "2s",
			WarmupInterval:  "500ms",
			WarmupSamples:   3,
			SmoothingWindow: 3,
			HistorySamples:  60,
		},
		Display: DisplayConfig{
			SortKey:        "cpu",
			SortDescending: true,
			GroupByApp:     false,
			ShowIcons:      true,
		},
		Cache: CacheConfig{
			DescriptionCapacity: 256,
			IconCapacity:        128,
		},
		Terminate: TerminateConfig{
			ConfirmKill: true,
			UseHelper:   true,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(home, ".local", "log", "processpilot.log"),
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file, merging with defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for required fields and logical consistency.
func (c *Config) Validate() error {
	if _, err := c.RefreshInterval(); err != nil {
		return fmt.Errorf("monitor.refresh_interval: %w", err)
	}
	if _, err := c.WarmupInterval(); err != nil {
		return fmt.Errorf("monitor.warmup_interval: %w", err)
	}
	if c.Monitor.WarmupSamples < 0 {
		return fmt.Errorf("monitor.warmup_samples must be non-negative, got %d", c.Monitor.WarmupSamples)
	}
	if c.Monitor.SmoothingWindow < 1 {
		return fmt.Errorf("monitor.smoothing_window must be at least 1, got %d", c.Monitor.SmoothingWindow)
	}
	if c.Monitor.HistorySamples < 1 {
		return fmt.Errorf("monitor.history_samples must be at least 1, got %d", c.Monitor.HistorySamples)
	}

	if c.Display.SortKey != "cpu" && c.Display.SortKey != "memory" {
		return fmt.Errorf("display.sort_key must be 'cpu' or 'memory', got %q", c.Display.SortKey)
	}

	if c.Cache.DescriptionCapacity < 1 {
		return fmt.Errorf("cache.description_capacity must be at least 1, got %d", c.Cache.DescriptionCapacity)
	}
	if c.Cache.IconCapacity < 1 {
		return fmt.Errorf("cache.icon_capacity must be at least 1, got %d", c.Cache.IconCapacity)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %q", c.Logging.Level)
	}

	return nil
}

// RefreshInterval parses the steady-state sampling interval.
func (c *Config) RefreshInterval() (time.Duration, error) {
	return parseInterval(c.Monitor.RefreshInterval)
}

// WarmupInterval parses the warmup sampling interval.
func (c *Config) WarmupInterval() (time.Duration, error) {
	return parseInterval(c.Monitor.WarmupInterval)
}

func parseInterval(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("duration is required")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
