package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanFindsAddonFolders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "AddonX", "AddonX.toc"),
		"## Interface: 90001\n## Title: |cff00ff00Addon|r X\n## Version: 1.2.3\n## X-Tukui-ProjectID: 42\n")
	writeFile(t, filepath.Join(dir, "AddonX_Options", "AddonX_Options-Mainline.toc"),
		"## Title: AddonX Options\n## Dependencies: AddonX\n")
	writeFile(t, filepath.Join(dir, "NoManifest", "core.lua"), "print(1)")
	writeFile(t, filepath.Join(dir, "Blizzard_Core", "Blizzard_Core.toc"), "## Title: Core\n")
	writeFile(t, filepath.Join(dir, "stray.txt"), "")

	folders, err := NewScanner(logging.NewNop()).Scan(context.Background(), dir, types.FlavorRetail)
	require.NoError(t, err)
	require.Len(t, folders, 2)

	assert.Equal(t, "AddonX", folders[0].Name)
	assert.Equal(t, "Addon X", folders[0].Manifest.Title)
	assert.Equal(t, "1.2.3", folders[0].Manifest.Version)
	assert.Equal(t, "42", folders[0].Manifest.TukuiID)
	assert.False(t, folders[0].Modified.IsZero())

	assert.Equal(t, "AddonX_Options", folders[1].Name)
	assert.Equal(t, []string{"AddonX"}, folders[1].Manifest.Dependencies)
}

func TestScanMissingDirectory(t *testing.T) {
	folders, err := NewScanner(nil).Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), types.FlavorRetail)
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestScanHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A", "A.toc"), "## Title: A\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(nil).Scan(ctx, dir, types.FlavorRetail)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindTOCPrefersFlavorSpecificFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Questie")
	writeFile(t, filepath.Join(dir, "Questie.toc"), "")
	writeFile(t, filepath.Join(dir, "questie-bcc.toc"), "")

	toc, ok := FindTOC(dir, types.FlavorClassicTBC)
	require.True(t, ok)
	assert.Equal(t, "questie-bcc.toc", filepath.Base(toc))

	toc, ok = FindTOC(dir, types.FlavorRetail)
	require.True(t, ok)
	assert.Equal(t, "Questie.toc", filepath.Base(toc))
}

func TestParseTOCStripsByteOrderMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "A", "A.toc")
	writeFile(t, path, "\ufeff## Title: Bommed\r\n## X-WoWI-ID: 5108\r\n## X-Wago-ID: aNDmy96o\r\n## X-Curse-Project-ID: 1337\r\n")

	m, err := ParseTOC(path)
	require.NoError(t, err)
	assert.Equal(t, "Bommed", m.Title)
	assert.Equal(t, "5108", m.WowIID)
	assert.Equal(t, "aNDmy96o", m.WagoID)
	assert.Equal(t, "1337", m.CurseID)
}

func TestParseTOCDecodesLegacyEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "A", "A.toc")
	writeFile(t, path, "## Title: Caf\xe9 Addon\n## Notes: Handy addon for the caf\xe9\n")

	m, err := ParseTOC(path)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(m.Title))
	assert.Contains(t, m.Title, "Caf")
	assert.Contains(t, m.Title, "Addon")
}

func TestParseTOCMissingFile(t *testing.T) {
	_, err := ParseTOC(filepath.Join(t.TempDir(), "missing.toc"))
	var parseErr *types.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestLatestModified(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.lua"), "")
	writeFile(t, filepath.Join(dir, "libs", "b.lua"), "")

	newer := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "libs", "b.lua"), newer, newer))

	latest, err := LatestModified(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, latest.Equal(newer), "got %v want %v", latest, newer)
}
