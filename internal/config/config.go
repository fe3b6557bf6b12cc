// Package config loads the application config file. The file is optional:
// a missing file yields Default().
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath            string `toml:"db_path" yaml:"db_path"`
	LogFile           string `toml:"log_file" yaml:"log_file"`
	LogLevel          string `toml:"log_level" yaml:"log_level"`
	Notifications     bool   `toml:"notifications" yaml:"notifications"`
	Bell              bool   `toml:"bell" yaml:"bell"`
	ReminderMinutes   int    `toml:"reminder_minutes" yaml:"reminder_minutes"`
	TimelineStartHour int    `toml:"timeline_start_hour" yaml:"timeline_start_hour"`
}

// Dir returns ~/.config/pomolog.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "pomolog")
}

// DefaultPath is where the config file is looked up when --config is not set.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

func Default() *Config {
	dir := Dir()
	return &Config{
		DBPath:            filepath.Join(dir, "pomolog.db"),
		LogFile:           filepath.Join(dir, "pomolog.log"),
		LogLevel:          "info",
		Notifications:     true,
		Bell:              true,
		ReminderMinutes:   10,
		TimelineStartHour: 6,
	}
}

// ReminderInterval returns the overtime reminder period.
func (c *Config) ReminderInterval() time.Duration {
	return time.Duration(c.ReminderMinutes) * time.Minute
}

// Validate rejects values the app cannot run with.
func (c *Config) Validate() error {
	if c.ReminderMinutes < 1 {
		return fmt.Errorf("reminder_minutes must be at least 1, got %d", c.ReminderMinutes)
	}
	if c.TimelineStartHour < 0 || c.TimelineStartHour > 23 {
		return fmt.Errorf("timeline_start_hour must be between 0 and 23, got %d", c.TimelineStartHour)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads path over the defaults. TOML unless the extension is .yaml or .yml.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse YAML config: %w", err)
		}
	} else {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse TOML config: %w", err)
		}
	}
	cfg.expand()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// expand resolves a leading ~ in paths.
func (c *Config) expand() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	for _, p := range []*string{&c.DBPath, &c.LogFile} {
		if *p == "~" {
			*p = home
		} else if strings.HasPrefix(*p, "~/") {
			*p = filepath.Join(home, (*p)[2:])
		}
	}
}

// Save writes cfg to path in the format its extension selects.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var data []byte
	if isYAML(path) {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal YAML config: %w", err)
		}
		data = out
	} else {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("marshal TOML config: %w", err)
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
