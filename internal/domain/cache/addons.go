package cache

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/paths"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"go.uber.org/zap"
)

var (
	// ErrContentAddressed is returned when storing an identity that is always
	// derived from fingerprints instead.
	ErrContentAddressed = errors.New("content addressed addons are not cached")
	// ErrInvalidEntry is returned for entries missing their identity or folders.
	ErrInvalidEntry = errors.New("invalid addon cache entry")
)

// AddonEntry remembers which folders belong to a remote package so the
// association survives restarts without asking the remote source again.
type AddonEntry struct {
	Kind          types.RepositoryKind `yaml:"kind"`
	ID            string               `yaml:"id"`
	Title         string               `yaml:"title"`
	PrimaryFolder string               `yaml:"primary_folder"`
	Folders       []string             `yaml:"folders"`
	Modified      time.Time            `yaml:"modified"`
}

// Key identifies an entry within a flavor
func (e AddonEntry) Key() string {
	return entryKey(e.Kind, e.ID)
}

func entryKey(kind types.RepositoryKind, id string) string {
	return string(kind) + ":" + id
}

func (e AddonEntry) validate() error {
	switch {
	case !e.Kind.Valid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, e.Kind)
	case e.Kind.ContentAddressed():
		return ErrContentAddressed
	case e.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidEntry)
	case len(e.Folders) == 0:
		return fmt.Errorf("%w: no folders", ErrInvalidEntry)
	case !slices.Contains(e.Folders, e.PrimaryFolder):
		return fmt.Errorf("%w: primary folder %q not among folders", ErrInvalidEntry, e.PrimaryFolder)
	}
	return nil
}

// AddonCache maps (flavor, kind, id) to the folders of an installed addon.
type AddonCache struct {
	mu      sync.Mutex
	entries map[types.Flavor]map[string]AddonEntry
	store   Store
	logger  *logging.Logger
}

// LoadAddonCache reads the persisted snapshot. An unreadable snapshot is
// logged and replaced by an empty cache; malformed entries are skipped.
func LoadAddonCache(store Store, logger *logging.Logger) *AddonCache {
	c := &AddonCache{
		entries: make(map[types.Flavor]map[string]AddonEntry),
		store:   store,
		logger:  logger.Component("addon-cache"),
	}

	raw, err := loadSnapshot(store, paths.AddonCacheFileName)
	if err != nil {
		c.logger.Warn("addon cache unreadable, starting empty", zap.Error(err))
		return c
	}

	for flavorName, byKey := range raw {
		flavor, err := types.ParseFlavor(flavorName)
		if err != nil {
			c.logger.Warn("skipping addon cache flavor", zap.String("flavor", flavorName))
			continue
		}
		for key, value := range byKey {
			var entry AddonEntry
			if err := decodeEntry(value, &entry); err != nil {
				c.logger.Warn("skipping malformed addon entry", logging.Flavor(flavor), zap.String("key", key))
				continue
			}
			if err := entry.validate(); err != nil {
				c.logger.Warn("skipping invalid addon entry",
					logging.Flavor(flavor), zap.String("key", key), zap.Error(err))
				continue
			}
			c.set(flavor, entry)
		}
	}
	return c
}

func (c *AddonCache) set(flavor types.Flavor, entry AddonEntry) {
	byKey, ok := c.entries[flavor]
	if !ok {
		byKey = make(map[string]AddonEntry)
		c.entries[flavor] = byKey
	}
	entry.Folders = slices.Clone(entry.Folders)
	byKey[entry.Key()] = entry
}

// Lookup returns the entry of a remote package.
func (c *AddonCache) Lookup(flavor types.Flavor, kind types.RepositoryKind, id string) (AddonEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[flavor][entryKey(kind, id)]
	if ok {
		entry.Folders = slices.Clone(entry.Folders)
	}
	return entry, ok
}

// Upsert stores entry, replacing any previous entry of the same package as a
// whole, and persists the cache.
func (c *AddonCache) Upsert(flavor types.Flavor, entry AddonEntry) error {
	if err := entry.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(flavor, entry)
	return c.save()
}

// Remove deletes the entry of a remote package. Removing an absent entry is
// not an error.
func (c *AddonCache) Remove(flavor types.Flavor, kind types.RepositoryKind, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := entryKey(kind, id)
	if _, ok := c.entries[flavor][key]; !ok {
		return nil
	}
	delete(c.entries[flavor], key)
	return c.save()
}

// Entries returns the entries of flavor ordered by key.
func (c *AddonCache) Entries(flavor types.Flavor) []AddonEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]AddonEntry, 0, len(c.entries[flavor]))
	for _, entry := range c.entries[flavor] {
		entry.Folders = slices.Clone(entry.Folders)
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].Key(), out[j].Key()) < 0
	})
	return out
}

// save writes the whole snapshot. Callers hold c.mu.
func (c *AddonCache) save() error {
	snapshot := make(map[string]map[string]AddonEntry, len(c.entries))
	for flavor, byKey := range c.entries {
		if len(byKey) == 0 {
			continue
		}
		copied := make(map[string]AddonEntry, len(byKey))
		for key, entry := range byKey {
			copied[key] = entry
		}
		snapshot[string(flavor)] = copied
	}

	if err := c.store.Save(paths.AddonCacheFileName, snapshot); err != nil {
		c.logger.Warn("failed to persist addon cache", zap.Error(err))
		return err
	}
	return nil
}
