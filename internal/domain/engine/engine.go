package engine

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/chmon/internal/config"
	"github.com/GriffinCanCode/chmon/internal/domain/cache"
	"github.com/GriffinCanCode/chmon/internal/domain/fingerprint"
	"github.com/GriffinCanCode/chmon/internal/domain/repository"
	"github.com/GriffinCanCode/chmon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/providers/filesystem"
	"github.com/GriffinCanCode/chmon/internal/shared/id"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
)

// Scanner lists the addon folders below an AddOns directory.
type Scanner interface {
	Scan(ctx context.Context, dir string, flavor types.Flavor) ([]filesystem.FolderInfo, error)
}

// Fingerprinter computes folder fingerprints.
type Fingerprinter interface {
	Folder(ctx context.Context, dir string) (uint32, error)
}

// Options configures an Engine. Store and Transport are required.
type Options struct {
	Store         cache.Store
	Transport     repository.Transport
	Scanner       Scanner
	Fingerprinter Fingerprinter
	Settings      *config.Settings
	Workers       int
	Metrics       *monitoring.Metrics
	Logger        *logging.Logger
	IDs           *id.Generator
	// RemoveAll deletes addon folders, defaults to filesystem.RemoveAll
	RemoveAll func(path string) error
}

// Engine owns the caches and resolves installed addons against remote
// sources. One Engine serves every flavor.
type Engine struct {
	fingerprints  *cache.FingerprintCache
	addons        *cache.AddonCache
	fingerprinter Fingerprinter
	transport     repository.Transport
	scanner       Scanner
	settings      *config.Settings
	workers       int
	metrics       *monitoring.Metrics
	logger        *logging.Logger
	ids           *id.Generator
	removeAll     func(string) error

	mu      sync.Mutex
	current map[types.Flavor]id.RefreshID
}

// New loads both caches from opts.Store and creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Scanner == nil {
		opts.Scanner = filesystem.NewScanner(logger)
	}
	if opts.Fingerprinter == nil {
		opts.Fingerprinter = fingerprint.New()
	}
	if opts.Settings == nil {
		opts.Settings = config.DefaultSettings()
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.IDs == nil {
		opts.IDs = id.Default()
	}
	if opts.RemoveAll == nil {
		opts.RemoveAll = filesystem.RemoveAll
	}

	return &Engine{
		fingerprints:  cache.LoadFingerprintCache(opts.Store, logger, opts.Metrics),
		addons:        cache.LoadAddonCache(opts.Store, logger),
		fingerprinter: opts.Fingerprinter,
		transport:     opts.Transport,
		scanner:       opts.Scanner,
		settings:      opts.Settings,
		workers:       opts.Workers,
		metrics:       opts.Metrics,
		logger:        logger.Component("engine"),
		ids:           opts.IDs,
		removeAll:     opts.RemoveAll,
		current:       make(map[types.Flavor]id.RefreshID),
	}
}

// Settings returns the user settings the engine applies
func (e *Engine) Settings() *config.Settings { return e.settings }

// FingerprintCache exposes the fingerprint cache
func (e *Engine) FingerprintCache() *cache.FingerprintCache { return e.fingerprints }

// AddonCache exposes the addon identity cache
func (e *Engine) AddonCache() *cache.AddonCache { return e.addons }

// beginRefresh tags a new refresh cycle of flavor, superseding the
// previous one.
func (e *Engine) beginRefresh(flavor types.Flavor) id.RefreshID {
	refreshID := e.ids.NewRefreshID()
	e.mu.Lock()
	e.current[flavor] = refreshID
	e.mu.Unlock()
	return refreshID
}

// currentRefresh returns the id of the latest cycle of flavor, starting a
// cycle when none exists yet.
func (e *Engine) currentRefresh(flavor types.Flavor) id.RefreshID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if refreshID, ok := e.current[flavor]; ok {
		return refreshID
	}
	refreshID := e.ids.NewRefreshID()
	e.current[flavor] = refreshID
	return refreshID
}

// IsCurrent reports whether refreshID tags the latest cycle of flavor.
// Results of older cycles should be dropped.
func (e *Engine) IsCurrent(flavor types.Flavor, refreshID id.RefreshID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current[flavor] == refreshID
}
