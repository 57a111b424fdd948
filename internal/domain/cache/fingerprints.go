package cache

import (
	"slices"
	"sync"
	"time"

	"github.com/GriffinCanCode/chmon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/paths"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"go.uber.org/zap"
)

// FingerprintEntry is the memoized fingerprint of one folder.
type FingerprintEntry struct {
	Fingerprint uint32    `yaml:"fingerprint"`
	Modified    time.Time `yaml:"modified"`
	ComputedAt  time.Time `yaml:"computed_at"`
}

// FingerprintCache memoizes folder fingerprints per flavor so unchanged
// folders are not hashed again. It never watches the disk; callers decide
// freshness by comparing modification times.
type FingerprintCache struct {
	mu      sync.Mutex
	entries map[types.Flavor]map[string]FingerprintEntry
	store   Store
	logger  *logging.Logger
	metrics *monitoring.Metrics
	now     func() time.Time
}

// LoadFingerprintCache reads the persisted snapshot. An unreadable snapshot
// is logged and replaced by an empty cache; malformed entries are skipped.
func LoadFingerprintCache(store Store, logger *logging.Logger, metrics *monitoring.Metrics) *FingerprintCache {
	c := &FingerprintCache{
		entries: make(map[types.Flavor]map[string]FingerprintEntry),
		store:   store,
		logger:  logger.Component("fingerprint-cache"),
		metrics: metrics,
		now:     time.Now,
	}

	raw, err := loadSnapshot(store, paths.FingerprintFileName)
	if err != nil {
		c.logger.Warn("fingerprint cache unreadable, starting empty", zap.Error(err))
		return c
	}

	for flavorName, folders := range raw {
		flavor, err := types.ParseFlavor(flavorName)
		if err != nil {
			c.logger.Warn("skipping fingerprint cache flavor", zap.String("flavor", flavorName))
			continue
		}
		for folder, value := range folders {
			var entry FingerprintEntry
			if folder == "" || decodeEntry(value, &entry) != nil {
				c.logger.Warn("skipping malformed fingerprint entry",
					logging.Flavor(flavor), zap.String("folder", folder))
				continue
			}
			c.set(flavor, folder, entry)
		}
	}
	return c
}

func (c *FingerprintCache) set(flavor types.Flavor, folder string, entry FingerprintEntry) {
	byFolder, ok := c.entries[flavor]
	if !ok {
		byFolder = make(map[string]FingerprintEntry)
		c.entries[flavor] = byFolder
	}
	byFolder[folder] = entry
}

// Get returns the entry stored for a folder.
func (c *FingerprintCache) Get(flavor types.Flavor, folder string) (FingerprintEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[flavor][folder]
	return entry, ok
}

// Fresh returns the stored fingerprint only when it was computed for the
// same modification time the folder has now.
func (c *FingerprintCache) Fresh(flavor types.Flavor, folder string, modified time.Time) (uint32, bool) {
	entry, ok := c.Get(flavor, folder)
	if !ok || !entry.Modified.Equal(modified) {
		return 0, false
	}
	c.metrics.IncFingerprintCacheHit()
	return entry.Fingerprint, true
}

// Put stores a fingerprint and persists the cache.
func (c *FingerprintCache) Put(flavor types.Flavor, folder string, fingerprint uint32, modified time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(flavor, folder, FingerprintEntry{
		Fingerprint: fingerprint,
		Modified:    modified,
		ComputedAt:  c.now().UTC(),
	})
	return c.save()
}

// Remove drops the entries of the given folders.
func (c *FingerprintCache) Remove(flavor types.Flavor, folders ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false
	for _, folder := range folders {
		if _, ok := c.entries[flavor][folder]; ok {
			delete(c.entries[flavor], folder)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return c.save()
}

// RemoveStale drops every entry of flavor whose folder is not in known.
func (c *FingerprintCache) RemoveStale(flavor types.Flavor, known []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false
	for folder := range c.entries[flavor] {
		if !slices.Contains(known, folder) {
			delete(c.entries[flavor], folder)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return c.save()
}

// Len returns the number of entries stored for flavor
func (c *FingerprintCache) Len(flavor types.Flavor) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[flavor])
}

// save writes the whole snapshot. Callers hold c.mu.
func (c *FingerprintCache) save() error {
	snapshot := make(map[string]map[string]FingerprintEntry, len(c.entries))
	for flavor, folders := range c.entries {
		if len(folders) == 0 {
			continue
		}
		copied := make(map[string]FingerprintEntry, len(folders))
		for folder, entry := range folders {
			copied[folder] = entry
		}
		snapshot[string(flavor)] = copied
	}

	if err := c.store.Save(paths.FingerprintFileName, snapshot); err != nil {
		c.logger.Warn("failed to persist fingerprint cache", zap.Error(err))
		return err
	}
	c.metrics.IncCacheSave()
	return nil
}
