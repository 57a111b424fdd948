package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GriffinCanCode/chmon/internal/providers/filesystem"
	"github.com/stretchr/testify/require"
)

func filesystemInfo(name, version string) filesystem.FolderInfo {
	return filesystem.FolderInfo{
		Name:     name,
		Path:     "/wow/_retail_/Interface/AddOns/" + name,
		Manifest: &filesystem.Manifest{Title: name, Version: version},
	}
}

// writeSharedLibrary writes folder with the same files as every other
// folder written by it, apart from the TOC file name.
func writeSharedLibrary(t *testing.T, addonDir, folder string) string {
	t.Helper()
	dir := filepath.Join(addonDir, folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, folder+".toc"), []byte("## Title: Shared\nlib.lua\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.lua"), []byte("local lib = {}\nreturn lib\n"), 0o644))
	return dir
}
