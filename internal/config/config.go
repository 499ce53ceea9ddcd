package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Tracking TrackingConfig `yaml:"tracking"`
	Repair   RepairConfig   `yaml:"repair"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TrackingConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	IdleThreshold time.Duration `yaml:"idle_threshold"`
	IgnoredApps   []string      `yaml:"ignored_apps"`
	IgnoredTitles []string      `yaml:"ignored_titles"`
}

type RepairConfig struct {
	BudgetFactor int           `yaml:"budget_factor"`
	CompactGap   time.Duration `yaml:"compact_gap"`
}

// UnmarshalYAML accepts durations as strings like "2s". Fields absent
// from the document keep their current values.
func (c *TrackingConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		PollInterval  string   `yaml:"poll_interval"`
		IdleThreshold string   `yaml:"idle_threshold"`
		IgnoredApps   []string `yaml:"ignored_apps"`
		IgnoredTitles []string `yaml:"ignored_titles"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if err := setDuration(&c.PollInterval, raw.PollInterval); err != nil {
		return fmt.Errorf("poll_interval: %w", err)
	}
	if err := setDuration(&c.IdleThreshold, raw.IdleThreshold); err != nil {
		return fmt.Errorf("idle_threshold: %w", err)
	}
	if raw.IgnoredApps != nil {
		c.IgnoredApps = raw.IgnoredApps
	}
	if raw.IgnoredTitles != nil {
		c.IgnoredTitles = raw.IgnoredTitles
	}
	return nil
}

func (c *RepairConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BudgetFactor *int   `yaml:"budget_factor"`
		CompactGap   string `yaml:"compact_gap"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.BudgetFactor != nil {
		c.BudgetFactor = *raw.BudgetFactor
	}
	if err := setDuration(&c.CompactGap, raw.CompactGap); err != nil {
		return fmt.Errorf("compact_gap: %w", err)
	}
	return nil
}

func setDuration(dst *time.Duration, val string) error {
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Tracking: TrackingConfig{
			PollInterval:  2 * time.Second,
			IdleThreshold: 5 * time.Minute,
			IgnoredApps:   []string{"loginwindow", "LockApp"},
		},
		Repair: RepairConfig{
			BudgetFactor: 4,
			CompactGap:   2 * time.Second,
		},
	}

	if path := os.Getenv("WORKLOG_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("WORKLOG_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("WORKLOG_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WORKLOG_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("WORKLOG_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("WORKLOG_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if poll := os.Getenv("WORKLOG_POLL_INTERVAL"); poll != "" {
		d, err := time.ParseDuration(poll)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WORKLOG_POLL_INTERVAL: %w", err)
		}
		cfg.Tracking.PollInterval = d
	}
	if idle := os.Getenv("WORKLOG_IDLE_THRESHOLD"); idle != "" {
		d, err := time.ParseDuration(idle)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WORKLOG_IDLE_THRESHOLD: %w", err)
		}
		cfg.Tracking.IdleThreshold = d
	}
	if apps := os.Getenv("WORKLOG_IGNORED_APPS"); apps != "" {
		cfg.Tracking.IgnoredApps = splitList(apps)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "worklog.db"
	}
	return filepath.Join(home, ".worklog", "worklog.db")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
