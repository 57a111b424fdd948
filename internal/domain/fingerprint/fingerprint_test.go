package fingerprint

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAddon(t *testing.T, root, folder string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, folder)
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func addonX() map[string]string {
	return map[string]string{
		"AddonX.toc": "## Title: AddonX\n# comment core.lua\ncore.lua\nui.xml\n",
		"core.lua":   "print('hi')\n",
		"ui.xml":     "<Ui>\n  <Script file=\"ui.lua\"/>\n</Ui>\n",
		"ui.lua":     "local x = 1\n",
	}
}

func TestMurmur2(t *testing.T) {
	assert.Equal(t, uint32(1540447798), Murmur2(nil, 1))
	assert.Equal(t, uint32(626045324), Murmur2([]byte("a"), 1))
	assert.Equal(t, uint32(2788266382), Murmur2([]byte("hello"), 1))
	assert.Equal(t, uint32(2133740196), Murmur2([]byte("print('hi')"), 1))
}

func TestFileHashIgnoresWhitespace(t *testing.T) {
	assert.Equal(t, FileHash([]byte("print('hi')")), FileHash([]byte(" print('hi')\r\n\t")))
	assert.Equal(t, uint32(3006078451), FileHash([]byte("## Title: AddonX")))
}

func TestCombineIsOrderIndependent(t *testing.T) {
	assert.Equal(t, Combine([]uint32{3, 1, 2}), Combine([]uint32{1, 2, 3}))
	assert.NotEqual(t, Combine([]uint32{1, 2}), Combine([]uint32{1, 2, 3}))
}

func TestFolderKnownValue(t *testing.T) {
	dir := writeAddon(t, t.TempDir(), "AddonX", addonX())

	fp, err := New().Folder(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, uint32(876556838), fp)
}

func TestFolderDeterministic(t *testing.T) {
	root := t.TempDir()
	dir := writeAddon(t, root, "AddonX", addonX())
	f := New()

	first, err := f.Folder(context.Background(), dir)
	require.NoError(t, err)

	// Concurrent calls on the same folder agree
	var wg sync.WaitGroup
	results := make([]uint32, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = f.Folder(context.Background(), dir)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, first, r)
	}

	// An identical tree elsewhere has the same fingerprint
	copyDir := writeAddon(t, t.TempDir(), "AddonX", addonX())
	other, err := f.Folder(context.Background(), copyDir)
	require.NoError(t, err)
	assert.Equal(t, first, other)
}

func TestFolderChangeSensitivity(t *testing.T) {
	f := New()
	base, err := f.Folder(context.Background(), writeAddon(t, t.TempDir(), "AddonX", addonX()))
	require.NoError(t, err)

	t.Run("referenced lua edit changes fingerprint", func(t *testing.T) {
		files := addonX()
		files["ui.lua"] = "local x = 2\n"
		fp, err := f.Folder(context.Background(), writeAddon(t, t.TempDir(), "AddonX", files))
		require.NoError(t, err)
		assert.NotEqual(t, base, fp)
	})

	t.Run("whitespace only edit keeps fingerprint", func(t *testing.T) {
		files := addonX()
		files["core.lua"] = "print('hi')\r\n\r\n\t  "
		fp, err := f.Folder(context.Background(), writeAddon(t, t.TempDir(), "AddonX", files))
		require.NoError(t, err)
		assert.Equal(t, base, fp)
	})

	t.Run("unreferenced file is ignored", func(t *testing.T) {
		files := addonX()
		files["unused.lua"] = "error('never loaded')"
		files["media/readme.txt"] = "docs"
		fp, err := f.Folder(context.Background(), writeAddon(t, t.TempDir(), "AddonX", files))
		require.NoError(t, err)
		assert.Equal(t, base, fp)
	})

	t.Run("missing referenced file is skipped", func(t *testing.T) {
		files := addonX()
		delete(files, "ui.lua")
		fp, err := f.Folder(context.Background(), writeAddon(t, t.TempDir(), "AddonX", files))
		require.NoError(t, err)
		assert.NotEqual(t, base, fp)
	})
}

func TestFolderResolvesReferencesWithoutCase(t *testing.T) {
	f := New()
	files := map[string]string{
		"AddonY.toc":               "Libs\\Embeds.XML\n",
		"libs/embeds.xml":          "<Ui><Include file=\"LibStub\\LibStub.lua\" /></Ui>",
		"libs/libstub/libstub.lua": "LibStub = {}",
	}
	root := t.TempDir()
	fp1, err := f.Folder(context.Background(), writeAddon(t, root, "AddonY", files))
	require.NoError(t, err)

	files["libs/libstub/libstub.lua"] = "LibStub = { minor = 2 }"
	fp2, err := f.Folder(context.Background(), writeAddon(t, t.TempDir(), "AddonY", files))
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2, "nested include must be part of the fingerprint")
}

func TestFolderDoesNotFollowParentReferences(t *testing.T) {
	root := t.TempDir()
	writeAddon(t, root, "Shared", map[string]string{"evil.lua": "one"})
	dir := writeAddon(t, root, "AddonZ", map[string]string{
		"AddonZ.toc": "..\\Shared\\evil.lua\ncore.lua\n",
		"core.lua":   "x",
	})
	f := New()
	before, err := f.Folder(context.Background(), dir)
	require.NoError(t, err)

	writeAddon(t, root, "Shared", map[string]string{"evil.lua": "two"})
	after, err := f.Folder(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFolderIncludesFlavorTOCAndBindings(t *testing.T) {
	f := New()
	files := map[string]string{
		"AddonW_Mainline.toc": "core.lua\n",
		"Bindings.xml":        "<Bindings/>",
		"core.lua":            "x",
	}
	base, err := f.Folder(context.Background(), writeAddon(t, t.TempDir(), "AddonW", files))
	require.NoError(t, err)

	files["Bindings.xml"] = "<Bindings><Binding name=\"X\"/></Bindings>"
	changed, err := f.Folder(context.Background(), writeAddon(t, t.TempDir(), "AddonW", files))
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)
}

func TestFolderMissingDirectory(t *testing.T) {
	_, err := New().Folder(context.Background(), filepath.Join(t.TempDir(), "gone"))
	var parseErr *types.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
