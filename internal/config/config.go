package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds process configuration read from the environment.
type Config struct {
	DataDir     string `envconfig:"CHMON_DATA_DIR"`
	Offline     bool   `envconfig:"CHMON_OFFLINE" default:"false"`
	Logging     LogConfig
	HTTP        HTTPConfig
	Fingerprint FingerprintConfig
	Filesystem  FilesystemConfig
	Sources     SourceConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"CHMON_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"CHMON_LOG_DEV" default:"false"`
	ToFile      bool   `envconfig:"CHMON_LOG_FILE" default:"false"`
}

// HTTPConfig holds the repository client configuration.
type HTTPConfig struct {
	Timeout           time.Duration `envconfig:"CHMON_HTTP_TIMEOUT" default:"30s"`
	Retries           int           `envconfig:"CHMON_HTTP_RETRIES" default:"3"`
	RequestsPerSecond float64       `envconfig:"CHMON_HTTP_RPS" default:"0"`
	UserAgent         string        `envconfig:"CHMON_USER_AGENT" default:"chmon/1.0"`
}

// FingerprintConfig bounds folder hashing.
type FingerprintConfig struct {
	Workers int `envconfig:"CHMON_FINGERPRINT_WORKERS" default:"8"`
}

// FilesystemConfig tunes the locked-file retry schedule.
type FilesystemConfig struct {
	RetrySteps int           `envconfig:"CHMON_FS_RETRY_STEPS" default:"21"`
	RetryStart time.Duration `envconfig:"CHMON_FS_RETRY_START" default:"1ms"`
}

// SourceConfig holds the remote repository endpoints.
type SourceConfig struct {
	CurseURL    string `envconfig:"CHMON_CURSE_URL" default:"https://addons-ecs.forgesvc.net/api/v2"`
	TukuiURL    string `envconfig:"CHMON_TUKUI_URL" default:"https://www.tukui.org"`
	WowIURL     string `envconfig:"CHMON_WOWI_URL" default:"https://api.mmoui.com/v4/game/WOW"`
	HubURL      string `envconfig:"CHMON_HUB_URL" default:"https://hub.wowup.io"`
	GitHubURL   string `envconfig:"CHMON_GITHUB_URL" default:"https://api.github.com"`
	GitLabURL   string `envconfig:"CHMON_GITLAB_URL" default:"https://gitlab.com/api/v4"`
	GitHubToken string `envconfig:"CHMON_GITHUB_TOKEN"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level: "info",
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			Retries:   3,
			UserAgent: "chmon/1.0",
		},
		Fingerprint: FingerprintConfig{
			Workers: 8,
		},
		Filesystem: FilesystemConfig{
			RetrySteps: 21,
			RetryStart: time.Millisecond,
		},
		Sources: SourceConfig{
			CurseURL:  "https://addons-ecs.forgesvc.net/api/v2",
			TukuiURL:  "https://www.tukui.org",
			WowIURL:   "https://api.mmoui.com/v4/game/WOW",
			HubURL:    "https://hub.wowup.io",
			GitHubURL: "https://api.github.com",
			GitLabURL: "https://gitlab.com/api/v4",
		},
	}
}
