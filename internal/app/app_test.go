package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/GriffinCanCode/chmon/internal/config"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWiresComponents(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, cfg.DataDir, a.Layout.DataDir)
	assert.DirExists(t, a.Layout.CacheDir())
	assert.Equal(t, types.FlavorRetail, a.Settings.SelectedFlavor())
	require.NotNil(t, a.Engine)

	result, err := a.Engine.Scan(context.Background(), types.FlavorRetail, filepath.Join(cfg.DataDir, "no-game"))
	require.NoError(t, err)
	assert.Empty(t, result.Addons)
}

func TestSaveSettings(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	a, err := New(cfg)
	require.NoError(t, err)
	a.Settings.SetIgnored(types.FlavorRetail, "AddonX", true)
	require.NoError(t, a.SaveSettings())

	loaded, err := config.LoadSettings(a.Layout.SettingsFile())
	require.NoError(t, err)
	assert.True(t, loaded.IsIgnored(types.FlavorRetail, "AddonX"))
}
