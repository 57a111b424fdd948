package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/GriffinCanCode/chmon/internal/config"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	addons := filepath.Join(root, "_classic_", "Interface", "AddOns")
	require.NoError(t, os.MkdirAll(addons, 0o755))

	out, err := run(t, "resolve-path", addons)
	require.NoError(t, err)
	assert.Equal(t, root+"\tclassic_tbc\n", out)

	_, err = run(t, "resolve-path", t.TempDir())
	assert.Error(t, err)
}

func TestStatusOffline(t *testing.T) {
	root := t.TempDir()
	addonDir := filepath.Join(root, "_retail_", "Interface", "AddOns", "AddonX")
	require.NoError(t, os.MkdirAll(addonDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(addonDir, "AddonX.toc"), []byte("## Interface: 90001\n## Title: Addon X\n## Version: 1.2.3\n"), 0o644))

	out, err := run(t, "status", "--offline", "--data-dir", t.TempDir(), "--dir", root, "--flavor", "retail")
	require.NoError(t, err)
	assert.Contains(t, out, "Addon X")
	assert.Contains(t, out, "1.2.3")
	assert.Contains(t, out, "unknown")
	assert.Contains(t, out, "9.0.1")
}

func TestStatusRequiresDirectory(t *testing.T) {
	_, err := run(t, "status", "--offline", "--data-dir", t.TempDir())
	assert.Error(t, err)
}

func TestChannelAndIgnorePersist(t *testing.T) {
	dataDir := t.TempDir()

	_, err := run(t, "channel", "Details", "beta", "--data-dir", dataDir, "--flavor", "classic_era")
	require.NoError(t, err)
	_, err = run(t, "ignore", "WeakAuras", "--data-dir", dataDir)
	require.NoError(t, err)

	settings, err := config.LoadSettings(filepath.Join(dataDir, "settings.toml"))
	require.NoError(t, err)
	assert.Equal(t, types.ChannelBeta, settings.ReleaseChannel(types.FlavorClassicEra, "Details"))
	assert.True(t, settings.IsIgnored(types.FlavorRetail, "WeakAuras"))

	_, err = run(t, "unignore", "WeakAuras", "--data-dir", dataDir)
	require.NoError(t, err)
	settings, err = config.LoadSettings(filepath.Join(dataDir, "settings.toml"))
	require.NoError(t, err)
	assert.False(t, settings.IsIgnored(types.FlavorRetail, "WeakAuras"))

	_, err = run(t, "channel", "Details", "nightly", "--data-dir", dataDir)
	assert.Error(t, err)
}

func TestDownloadArguments(t *testing.T) {
	dataDir := t.TempDir()

	_, err := run(t, "download", "tukui", "--data-dir", dataDir)
	assert.Error(t, err)
	_, err = run(t, "download", "tukui", "1", "--source", "https://github.com/owner/AddonX", "--data-dir", dataDir)
	assert.Error(t, err)

	_, err = run(t, "download", "tukui", "1", "--offline", "--data-dir", dataDir)
	assert.ErrorIs(t, err, errOffline)
}
