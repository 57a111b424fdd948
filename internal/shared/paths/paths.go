// Package paths provides the on-disk layout used by the engine: where the
// game keeps its addons and where chmon keeps its own state.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
)

const appDirName = "chmon"

// Files kept inside the data directory
const (
	SettingsFileName    = "settings.toml"
	FingerprintFileName = "fingerprints.yml"
	AddonCacheFileName  = "addons.yml"
)

// Layout resolves every path below one data directory.
type Layout struct {
	DataDir string
}

// NewLayout uses override when set, otherwise the per-user config directory.
func NewLayout(override string) (Layout, error) {
	if override != "" {
		return Layout{DataDir: filepath.Clean(override)}, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return Layout{}, fmt.Errorf("resolve config dir: %w", err)
	}
	return Layout{DataDir: filepath.Join(base, appDirName)}, nil
}

// SettingsFile is the user settings file
func (l Layout) SettingsFile() string {
	return filepath.Join(l.DataDir, SettingsFileName)
}

// CacheDir holds both persistent caches
func (l Layout) CacheDir() string {
	return filepath.Join(l.DataDir, "cache")
}

// FingerprintCacheFile is the fingerprint cache snapshot
func (l Layout) FingerprintCacheFile() string {
	return filepath.Join(l.CacheDir(), FingerprintFileName)
}

// AddonCacheFile is the addon identity cache snapshot
func (l Layout) AddonCacheFile() string {
	return filepath.Join(l.CacheDir(), AddonCacheFileName)
}

// DownloadDir holds archives between download and unpack
func (l Layout) DownloadDir() string {
	return filepath.Join(l.DataDir, "downloads")
}

// AddonDirectory returns <root>/<flavor folder>/Interface/AddOns.
func AddonDirectory(root string, flavor types.Flavor) string {
	return filepath.Join(root, flavor.FolderName(), "Interface", "AddOns")
}

// FlavorDirectory returns <root>/<flavor folder>.
func FlavorDirectory(root string, flavor types.Flavor) string {
	return filepath.Join(root, flavor.FolderName())
}

// ResolveGameRoot picks the installation root from any directory the user
// chose inside it. The path itself is accepted when it contains one of the
// flavor folders; otherwise its ancestors are searched for a flavor folder and
// that folder's parent is returned.
func ResolveGameRoot(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	path = filepath.Clean(path)

	for _, flavor := range types.AllFlavors {
		if info, err := os.Stat(filepath.Join(path, flavor.FolderName())); err == nil && info.IsDir() {
			return path, true
		}
	}

	for dir := path; ; {
		name := filepath.Base(dir)
		for _, flavor := range types.AllFlavors {
			if strings.EqualFold(name, flavor.FolderName()) {
				return filepath.Dir(dir), true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DetectFlavors lists the flavors installed below root.
func DetectFlavors(root string) []types.Flavor {
	var found []types.Flavor
	for _, flavor := range types.AllFlavors {
		if info, err := os.Stat(FlavorDirectory(root, flavor)); err == nil && info.IsDir() {
			found = append(found, flavor)
		}
	}
	return found
}
