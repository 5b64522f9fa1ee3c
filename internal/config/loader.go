package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvToken      = "SLACK_BOT_TOKEN"
	EnvWebhookURL = "SLACK_WEBHOOK_URL"
)

// ConfigPath returns the default configuration file path: ~/.slacknotify/config.json.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".slacknotify/config.json"
	}
	return filepath.Join(home, ".slacknotify", "config.json")
}

// DataDir returns the slacknotify data directory: ~/.slacknotify.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".slacknotify"
	}
	return filepath.Join(home, ".slacknotify")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads and parses the config file at path.
// If path is empty, ConfigPath() is used. A missing file yields DefaultConfig().
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	case isYAML(path):
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Slack.Token = v
	}
	if v := os.Getenv(EnvWebhookURL); v != "" {
		cfg.Slack.WebhookURL = v
	}
}

// Save writes cfg to path as indented JSON, or YAML for .yaml/.yml paths.
// If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		// Append a trailing newline for POSIX compliance.
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Validate reports configuration that would make every send fail.
func (c *Config) Validate() error {
	switch c.Slack.Mode {
	case ModeAPI, "":
		if c.Slack.Token == "" {
			return fmt.Errorf("slack.token is not set (or export %s)", EnvToken)
		}
	case ModeWebhook:
		if c.Slack.WebhookURL == "" {
			return fmt.Errorf("slack.webhookUrl is not set (or export %s)", EnvWebhookURL)
		}
	default:
		return fmt.Errorf("unknown slack.mode %q", c.Slack.Mode)
	}
	return nil
}

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
