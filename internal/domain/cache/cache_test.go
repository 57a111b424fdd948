package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GriffinCanCode/chmon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/paths"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var modified = time.Date(2021, 3, 14, 15, 9, 26, 535000000, time.UTC)

func TestFingerprintCachePutGet(t *testing.T) {
	store := NewMemoryStore()
	c := LoadFingerprintCache(store, logging.NewNop(), nil)

	require.NoError(t, c.Put(types.FlavorRetail, "AddonX", 876556838, modified))

	entry, ok := c.Get(types.FlavorRetail, "AddonX")
	require.True(t, ok)
	assert.Equal(t, uint32(876556838), entry.Fingerprint)
	assert.True(t, entry.Modified.Equal(modified))
	assert.False(t, entry.ComputedAt.IsZero())

	_, ok = c.Get(types.FlavorClassicEra, "AddonX")
	assert.False(t, ok, "flavors are independent")
}

func TestFingerprintCachePutIsIdempotent(t *testing.T) {
	c := LoadFingerprintCache(NewMemoryStore(), nil, nil)

	require.NoError(t, c.Put(types.FlavorRetail, "AddonX", 1, modified))
	require.NoError(t, c.Put(types.FlavorRetail, "AddonX", 1, modified))

	assert.Equal(t, 1, c.Len(types.FlavorRetail))
	entry, _ := c.Get(types.FlavorRetail, "AddonX")
	assert.Equal(t, uint32(1), entry.Fingerprint)
}

func TestFingerprintCacheFresh(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	c := LoadFingerprintCache(NewMemoryStore(), nil, metrics)
	require.NoError(t, c.Put(types.FlavorRetail, "AddonX", 7, modified))

	fp, ok := c.Fresh(types.FlavorRetail, "AddonX", modified)
	assert.True(t, ok)
	assert.Equal(t, uint32(7), fp)

	_, ok = c.Fresh(types.FlavorRetail, "AddonX", modified.Add(time.Second))
	assert.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FingerprintCacheHits))
}

func TestFingerprintCacheRemoveStale(t *testing.T) {
	c := LoadFingerprintCache(NewMemoryStore(), nil, nil)
	require.NoError(t, c.Put(types.FlavorRetail, "A", 1, modified))
	require.NoError(t, c.Put(types.FlavorRetail, "B", 2, modified))
	require.NoError(t, c.Put(types.FlavorClassicEra, "A", 3, modified))

	require.NoError(t, c.RemoveStale(types.FlavorRetail, []string{"B"}))

	_, ok := c.Get(types.FlavorRetail, "A")
	assert.False(t, ok)
	_, ok = c.Get(types.FlavorRetail, "B")
	assert.True(t, ok)
	_, ok = c.Get(types.FlavorClassicEra, "A")
	assert.True(t, ok, "other flavors are untouched")
}

func TestFingerprintCachePersists(t *testing.T) {
	store := NewFileStore(t.TempDir())
	c := LoadFingerprintCache(store, nil, nil)
	require.NoError(t, c.Put(types.FlavorClassicTBC, "Questie", 123456, modified))

	reloaded := LoadFingerprintCache(store, nil, nil)
	entry, ok := reloaded.Get(types.FlavorClassicTBC, "Questie")
	require.True(t, ok)
	assert.Equal(t, uint32(123456), entry.Fingerprint)
	assert.True(t, entry.Modified.Equal(modified))
}

func TestFingerprintCacheCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, paths.FingerprintFileName)
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- [unbalanced"), 0o644))

	c := LoadFingerprintCache(NewFileStore(dir), nil, nil)
	assert.Zero(t, c.Len(types.FlavorRetail))

	// The cache stays usable and overwrites the corrupt file
	require.NoError(t, c.Put(types.FlavorRetail, "A", 1, modified))
	reloaded := LoadFingerprintCache(NewFileStore(dir), nil, nil)
	assert.Equal(t, 1, reloaded.Len(types.FlavorRetail))
}

func TestFingerprintCacheSkipsMalformedEntries(t *testing.T) {
	store := NewMemoryStore()
	store.SetRaw(paths.FingerprintFileName, []byte(`
retail:
  Good:
    fingerprint: 42
    modified: 2021-03-14T15:09:26Z
  Bad:
    fingerprint: not-a-number
wotlk:
  Other:
    fingerprint: 1
`))

	c := LoadFingerprintCache(store, nil, nil)
	entry, ok := c.Get(types.FlavorRetail, "Good")
	require.True(t, ok)
	assert.Equal(t, uint32(42), entry.Fingerprint)
	_, ok = c.Get(types.FlavorRetail, "Bad")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(types.FlavorRetail))
}

func tukuiEntry() AddonEntry {
	return AddonEntry{
		Kind:          types.KindTukui,
		ID:            "42",
		Title:         "AddonX",
		PrimaryFolder: "AddonX",
		Folders:       []string{"AddonX", "AddonX_Options"},
		Modified:      modified,
	}
}

func TestAddonCacheUpsertLookup(t *testing.T) {
	c := LoadAddonCache(NewMemoryStore(), logging.NewNop())
	require.NoError(t, c.Upsert(types.FlavorRetail, tukuiEntry()))

	entry, ok := c.Lookup(types.FlavorRetail, types.KindTukui, "42")
	require.True(t, ok)
	assert.Equal(t, []string{"AddonX", "AddonX_Options"}, entry.Folders)

	_, ok = c.Lookup(types.FlavorRetail, types.KindWowI, "42")
	assert.False(t, ok, "kind is part of the key")
}

func TestAddonCacheUpsertReplacesWholeEntry(t *testing.T) {
	c := LoadAddonCache(NewMemoryStore(), nil)
	require.NoError(t, c.Upsert(types.FlavorRetail, tukuiEntry()))

	replacement := tukuiEntry()
	replacement.Folders = []string{"AddonX"}
	replacement.Title = ""
	require.NoError(t, c.Upsert(types.FlavorRetail, replacement))

	entry, ok := c.Lookup(types.FlavorRetail, types.KindTukui, "42")
	require.True(t, ok)
	assert.Equal(t, []string{"AddonX"}, entry.Folders)
	assert.Empty(t, entry.Title)
	assert.Len(t, c.Entries(types.FlavorRetail), 1)
}

func TestAddonCacheUpsertIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	c := LoadAddonCache(store, nil)
	require.NoError(t, c.Upsert(types.FlavorRetail, tukuiEntry()))
	first, _ := store.Raw(paths.AddonCacheFileName)

	require.NoError(t, c.Upsert(types.FlavorRetail, tukuiEntry()))
	second, _ := store.Raw(paths.AddonCacheFileName)
	assert.Equal(t, string(first), string(second))
}

func TestAddonCacheRejectsInvalidEntries(t *testing.T) {
	c := LoadAddonCache(NewMemoryStore(), nil)

	curse := tukuiEntry()
	curse.Kind = types.KindCurse
	assert.ErrorIs(t, c.Upsert(types.FlavorRetail, curse), ErrContentAddressed)

	noFolders := tukuiEntry()
	noFolders.Folders = nil
	assert.ErrorIs(t, c.Upsert(types.FlavorRetail, noFolders), ErrInvalidEntry)

	strayPrimary := tukuiEntry()
	strayPrimary.PrimaryFolder = "Other"
	assert.ErrorIs(t, c.Upsert(types.FlavorRetail, strayPrimary), ErrInvalidEntry)

	assert.Empty(t, c.Entries(types.FlavorRetail))
}

func TestAddonCacheRemove(t *testing.T) {
	c := LoadAddonCache(NewMemoryStore(), nil)
	require.NoError(t, c.Upsert(types.FlavorRetail, tukuiEntry()))

	require.NoError(t, c.Remove(types.FlavorRetail, types.KindTukui, "42"))
	_, ok := c.Lookup(types.FlavorRetail, types.KindTukui, "42")
	assert.False(t, ok)

	require.NoError(t, c.Remove(types.FlavorRetail, types.KindTukui, "42"))
}

func TestAddonCachePersistsAndSkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	c := LoadAddonCache(store, nil)
	require.NoError(t, c.Upsert(types.FlavorClassicEra, tukuiEntry()))

	// Append a hand written curse entry that must not survive a load
	path := filepath.Join(dir, paths.AddonCacheFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("retail:\n  curse:1:\n    kind: curse\n    id: \"1\"\n    primary_folder: A\n    folders: [A]\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reloaded := LoadAddonCache(store, nil)
	entries := reloaded.Entries(types.FlavorClassicEra)
	require.Len(t, entries, 1)
	assert.Equal(t, "tukui:42", entries[0].Key())
	assert.Empty(t, reloaded.Entries(types.FlavorRetail))
}

func TestAddonCacheCorruptSnapshot(t *testing.T) {
	store := NewMemoryStore()
	store.SetRaw(paths.AddonCacheFileName, []byte("- just\n- a list\n"))

	c := LoadAddonCache(store, nil)
	assert.Empty(t, c.Entries(types.FlavorRetail))
}
