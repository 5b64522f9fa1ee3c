// Package config defines the configuration schema for slacknotify.
//
// JSON keys use camelCase; the same keys are accepted from YAML files.
package config

import (
	"os"
	"path/filepath"
)

// Transport modes.
const (
	ModeAPI     = "api"
	ModeWebhook = "webhook"
)

// SlackConfig selects and authenticates the transport.
type SlackConfig struct {
	Mode           string  `json:"mode" yaml:"mode"` // "api" or "webhook"
	Token          string  `json:"token" yaml:"token"`
	WebhookURL     string  `json:"webhookUrl" yaml:"webhookUrl"`
	APIURL         string  `json:"apiUrl,omitempty" yaml:"apiUrl,omitempty"`
	DefaultChannel string  `json:"defaultChannel" yaml:"defaultChannel"`
	RateLimit      float64 `json:"rateLimit" yaml:"rateLimit"` // calls per second, 0 = unlimited
}

func defaultSlackConfig() SlackConfig {
	return SlackConfig{Mode: ModeAPI, RateLimit: 1}
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text or json
}

func defaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: "text"}
}

// ScheduleConfig is one recurring notification.
type ScheduleConfig struct {
	Name     string `json:"name" yaml:"name"`
	Schedule string `json:"schedule" yaml:"schedule"` // 5-field cron expression
	Channel  string `json:"channel,omitempty" yaml:"channel,omitempty"`
	Recipe   string `json:"recipe" yaml:"recipe"` // path to a recipe file
	TZ       string `json:"tz,omitempty" yaml:"tz,omitempty"`
}

// Config is the root configuration object.
type Config struct {
	Slack     SlackConfig      `json:"slack" yaml:"slack"`
	Log       LogConfig        `json:"log" yaml:"log"`
	Schedules []ScheduleConfig `json:"schedules" yaml:"schedules"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Slack:     defaultSlackConfig(),
		Log:       defaultLogConfig(),
		Schedules: []ScheduleConfig{},
	}
}

// ResolvePath expands a leading "~/" and makes p relative to the config
// directory when it is not absolute.
func ResolvePath(p string) string {
	if len(p) >= 2 && p[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(DataDir(), p)
}
