package addon

import (
	"time"

	"github.com/GriffinCanCode/chmon/internal/providers/filesystem"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
)

// Folder is one directory inside the AddOns directory.
type Folder struct {
	Name     string
	Flavor   types.Flavor
	Path     string
	Modified time.Time
	Manifest filesystem.Manifest

	fingerprint    uint32
	hasFingerprint bool
}

// NewFolder builds a Folder from a scanned directory
func NewFolder(flavor types.Flavor, info filesystem.FolderInfo) *Folder {
	f := &Folder{
		Name:     info.Name,
		Flavor:   flavor,
		Path:     info.Path,
		Modified: info.Modified,
	}
	if info.Manifest != nil {
		f.Manifest = *info.Manifest
	}
	return f
}

// Fingerprint returns the folder fingerprint when one was computed.
func (f *Folder) Fingerprint() (uint32, bool) {
	return f.fingerprint, f.hasFingerprint
}

// SetFingerprint records the computed fingerprint.
func (f *Folder) SetFingerprint(fp uint32) {
	f.fingerprint = fp
	f.hasFingerprint = true
}

// Title is the manifest title, or the folder name when the manifest has none.
func (f *Folder) Title() string {
	if f.Manifest.Title != "" {
		return f.Manifest.Title
	}
	return f.Name
}

// RepositoryIDs returns the remote ids the author declared in the manifest,
// keyed by the kind that resolves them. Wago ids are served by the hub.
func (f *Folder) RepositoryIDs() map[types.RepositoryKind]string {
	ids := make(map[types.RepositoryKind]string, 4)
	set := func(kind types.RepositoryKind, id string) {
		if id != "" {
			ids[kind] = id
		}
	}
	set(types.KindCurse, f.Manifest.CurseID)
	set(types.KindTukui, f.Manifest.TukuiID)
	set(types.KindWowI, f.Manifest.WowIID)
	set(types.KindHub, f.Manifest.WagoID)
	return ids
}
