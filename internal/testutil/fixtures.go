package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GriffinCanCode/chmon/internal/domain/repository"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/stretchr/testify/require"
)

// WriteAddon creates an addon folder with a TOC declaring the given
// directives, plus a Lua file so the folder has a fingerprint.
func WriteAddon(t *testing.T, addonDir, folder string, directives map[string]string) string {
	t.Helper()
	dir := filepath.Join(addonDir, folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	toc := "## Title: " + folder + "\n"
	for key, value := range directives {
		toc += "## " + key + ": " + value + "\n"
	}
	toc += "core.lua\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, folder+".toc"), []byte(toc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.lua"), []byte("-- "+folder), 0o644))
	return dir
}

// Package builds a package with one release per version, newest last.
func Package(kind types.RepositoryKind, id string, versions ...string) *repository.Package {
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	releases := make([]repository.Release, len(versions))
	for i, v := range versions {
		releases[i] = repository.Release{
			Version:     v,
			Channel:     types.ChannelStable,
			FileID:      v,
			DownloadURL: "https://example.com/" + id + "/" + v + ".zip",
			Date:        base.AddDate(0, 0, i),
		}
	}
	return repository.NewPackage(kind, id, repository.Metadata{Title: id}, releases)
}
