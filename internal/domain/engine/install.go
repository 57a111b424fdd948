package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/GriffinCanCode/chmon/internal/domain/addon"
	"github.com/GriffinCanCode/chmon/internal/domain/repository"
	"github.com/GriffinCanCode/chmon/internal/providers/filesystem"
	"github.com/GriffinCanCode/chmon/internal/shared/paths"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/GriffinCanCode/chmon/internal/shared/utils"
	"go.uber.org/zap"
)

var (
	// ErrNoPackage is returned for operations that need a remote source.
	ErrNoPackage = errors.New("addon has no repository package")
	// ErrNoRelease is returned when no release matches the release channel.
	ErrNoRelease = errors.New("no release for the selected channel")
)

// Install resolves a catalog package for a fresh install.
func (e *Engine) Install(ctx context.Context, flavor types.Flavor, kind types.RepositoryKind, id string) (*addon.Pending, error) {
	pkg, err := e.transport.Resolve(ctx, flavor, kind, id)
	if err != nil {
		return nil, err
	}
	return e.pending(flavor, pkg)
}

// InstallFromSource resolves the package published at a GitHub or GitLab
// project URL.
func (e *Engine) InstallFromSource(ctx context.Context, flavor types.Flavor, rawURL string) (*addon.Pending, error) {
	pkg, err := e.transport.ResolveSource(ctx, flavor, rawURL)
	if err != nil {
		return nil, err
	}
	return e.pending(flavor, pkg)
}

func (e *Engine) pending(flavor types.Flavor, pkg *repository.Package) (*addon.Pending, error) {
	p := &addon.Pending{
		ID:      utils.StableID(string(pkg.Kind()), pkg.ID()),
		Flavor:  flavor,
		Package: pkg,
		Channel: e.settings.GlobalChannel(),
	}
	if _, ok := p.Release(); !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNoRelease, pkg.Kind(), pkg.ID())
	}
	return p, nil
}

// CompleteInstall is called once the archive of a's relevant release has
// been unpacked into folders. It records the installed release, remembers
// the identity and re-fingerprints the folders. The addon ends Completed,
// or Error with the cause.
func (e *Engine) CompleteInstall(ctx context.Context, flavor types.Flavor, root string, a *addon.Addon, folders []string) error {
	if err := a.Transition(addon.StateFingerprint); err != nil {
		return err
	}
	if len(folders) == 0 {
		folders = a.FolderNames()
	}

	if release, ok := a.RelevantRelease(); ok {
		a.MarkInstalled(release)
	}
	if pkg := a.Package(); pkg != nil {
		if pkg.Kind().ContentAddressed() {
			if err := e.addons.Remove(flavor, pkg.Kind(), pkg.ID()); err != nil {
				e.logger.Warn("failed to persist addon cache", zap.Error(err))
			}
		} else {
			primary := a.ID()
			if !slices.Contains(folders, primary) {
				primary = primaryOf(folders)
			}
			e.remember(flavor, pkg, primary, folders)
		}
	}

	dir := paths.AddonDirectory(root, flavor)
	for _, name := range folders {
		path := filepath.Join(dir, name)
		modified, err := filesystem.LatestModified(ctx, path)
		if err == nil {
			var fp uint32
			if fp, err = e.fingerprinter.Folder(ctx, path); err == nil {
				err = e.fingerprints.Put(flavor, name, fp, modified)
			}
		}
		if err != nil {
			_ = a.Fail(err.Error())
			return fmt.Errorf("fingerprint %s: %w", name, err)
		}
	}

	return a.Transition(addon.StateCompleted)
}

// CompleteNewInstall turns a pending install into an addon once its
// archive has been unpacked into folders, then completes it.
func (e *Engine) CompleteNewInstall(ctx context.Context, root string, p *addon.Pending, folders []string) (*addon.Addon, error) {
	if len(folders) == 0 {
		return nil, addon.ErrNoFolders
	}

	infos, err := e.scanner.Scan(ctx, paths.AddonDirectory(root, p.Flavor), p.Flavor)
	if err != nil {
		return nil, err
	}
	var installed []*addon.Folder
	for _, info := range infos {
		if slices.Contains(folders, info.Name) {
			installed = append(installed, addon.NewFolder(p.Flavor, info))
		}
	}

	primary := primaryOf(folders)
	a, err := addon.New(p.Flavor, primary, installed)
	if err != nil {
		return nil, err
	}
	a.SetRepositoryPackage(p.Package)
	e.applySettings(a)

	if err := e.CompleteInstall(ctx, p.Flavor, root, a, a.FolderNames()); err != nil {
		return a, err
	}
	return a, nil
}

// Delete removes the folders of a from disk and forgets it in both caches.
func (e *Engine) Delete(flavor types.Flavor, root string, a *addon.Addon) error {
	dir := paths.AddonDirectory(root, flavor)
	names := a.FolderNames()
	for _, name := range names {
		if err := e.removeAll(filepath.Join(dir, name)); err != nil {
			return err
		}
	}

	if err := e.fingerprints.Remove(flavor, names...); err != nil {
		e.logger.Warn("failed to persist fingerprint cache", zap.Error(err))
	}
	if pkg := a.Package(); pkg != nil && !pkg.Kind().ContentAddressed() {
		if err := e.addons.Remove(flavor, pkg.Kind(), pkg.ID()); err != nil {
			e.logger.Warn("failed to persist addon cache", zap.Error(err))
		}
	}
	return nil
}

// Changelog returns the changelog of a's relevant release.
func (e *Engine) Changelog(ctx context.Context, a *addon.Addon) (string, error) {
	pkg := a.Package()
	if pkg == nil {
		return "", ErrNoPackage
	}
	release, ok := a.RelevantRelease()
	if !ok {
		return "", ErrNoRelease
	}
	return e.transport.Changelog(ctx, a.Flavor(), pkg, release)
}
