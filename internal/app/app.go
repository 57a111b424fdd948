// Package app wires configuration, logging, metrics, the repository
// client and the engine into one process.
package app

import (
	"fmt"
	"os"

	"github.com/GriffinCanCode/chmon/internal/config"
	"github.com/GriffinCanCode/chmon/internal/domain/cache"
	"github.com/GriffinCanCode/chmon/internal/domain/engine"
	"github.com/GriffinCanCode/chmon/internal/domain/repository"
	"github.com/GriffinCanCode/chmon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/providers/filesystem"
	"github.com/GriffinCanCode/chmon/internal/providers/http/client"
	"github.com/GriffinCanCode/chmon/internal/shared/paths"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// App holds the long lived components of a run
type App struct {
	Config   *config.Config
	Layout   paths.Layout
	Settings *config.Settings
	Logger   *logging.Logger
	Registry *prometheus.Registry
	Metrics  *monitoring.Metrics
	HTTP     *client.Client
	Engine   *engine.Engine
}

// New builds every component from cfg. Settings that fail to parse are
// replaced by defaults with a warning.
func New(cfg *config.Config) (*App, error) {
	layout, err := paths.NewLayout(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(layout.CacheDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	logger, err := newLogger(cfg, layout)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	settings, err := config.LoadSettings(layout.SettingsFile())
	if err != nil {
		logger.Warn("settings unreadable, using defaults", zap.String("path", layout.SettingsFile()), zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	opts := client.DefaultOptions()
	opts.Timeout = cfg.HTTP.Timeout
	opts.Retries = cfg.HTTP.Retries
	opts.RequestsPerSecond = cfg.HTTP.RequestsPerSecond
	opts.UserAgent = cfg.HTTP.UserAgent
	opts.Metrics = metrics
	opts.Logger = logger
	httpClient := client.NewClient(opts)

	var transport repository.Transport = repository.Offline{}
	if !cfg.Offline {
		src := cfg.Sources
		transport = repository.NewClient(metrics, logger,
			repository.NewCurse(src.CurseURL, httpClient),
			repository.NewTukui(src.TukuiURL, httpClient),
			repository.NewWowI(src.WowIURL, httpClient),
			repository.NewHub(src.HubURL, httpClient),
			repository.NewGit(src.GitHubURL, src.GitLabURL, src.GitHubToken, httpClient),
		)
	}

	fs := filesystem.NewResilient(cfg.Filesystem.RetryStart, cfg.Filesystem.RetrySteps, metrics, logger)
	eng := engine.New(engine.Options{
		Store:     cache.NewFileStore(layout.CacheDir()),
		Transport: transport,
		Scanner:   filesystem.NewScanner(logger),
		Settings:  settings,
		Workers:   cfg.Fingerprint.Workers,
		Metrics:   metrics,
		Logger:    logger,
		RemoveAll: fs.RemoveAll,
	})

	return &App{
		Config:   cfg,
		Layout:   layout,
		Settings: settings,
		Logger:   logger,
		Registry: registry,
		Metrics:  metrics,
		HTTP:     httpClient,
		Engine:   eng,
	}, nil
}

func newLogger(cfg *config.Config, layout paths.Layout) (*logging.Logger, error) {
	var lc logging.Config
	switch {
	case cfg.Logging.ToFile:
		lc = logging.FileConfig(layout.DataDir, cfg.Logging.Level)
	case cfg.Logging.Development:
		lc = logging.DevelopmentConfig()
	default:
		lc = logging.DefaultConfig()
		lc.Level = cfg.Logging.Level
	}
	return logging.New(lc)
}

// SaveSettings persists the user settings
func (a *App) SaveSettings() error {
	return a.Settings.Save(a.Layout.SettingsFile())
}

// Close flushes the logger
func (a *App) Close() error {
	_ = a.Logger.Sync()
	return nil
}
