package addon

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/chmon/internal/domain/repository"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
)

var (
	// ErrNoFolders is returned when an addon would own no folder.
	ErrNoFolders = errors.New("addon has no folders")
	// ErrUnknownPrimary is returned when the primary folder is not one of
	// the addon's folders.
	ErrUnknownPrimary = errors.New("primary folder is not part of the addon")
)

// Addon is one or more folders installed together, optionally tied to a
// package on a remote source.
type Addon struct {
	flavor  types.Flavor
	primary string
	folders []*Folder

	// Replaced wholesale, never mutated
	pkg atomic.Pointer[repository.Package]

	mu        sync.RWMutex
	channel   types.ReleaseChannel
	global    types.ReleaseChannel
	state     State
	reason    string
	installed string
	score     float64
}

// New creates an addon owning folders, with primary as the folder whose
// manifest is authoritative.
func New(flavor types.Flavor, primary string, folders []*Folder) (*Addon, error) {
	if len(folders) == 0 {
		return nil, ErrNoFolders
	}
	found := false
	for _, f := range folders {
		if f.Name == primary {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrimary, primary)
	}

	return &Addon{
		flavor:  flavor,
		primary: primary,
		folders: slices.Clone(folders),
		channel: types.ChannelDefault,
		global:  types.ChannelDefault,
		state:   StateIdle,
	}, nil
}

// ID is the primary folder name, unique within a flavor.
func (a *Addon) ID() string { return a.primary }

// Flavor returns the flavor the addon is installed for
func (a *Addon) Flavor() types.Flavor { return a.flavor }

// PrimaryFolder returns the authoritative folder
func (a *Addon) PrimaryFolder() *Folder {
	for _, f := range a.folders {
		if f.Name == a.primary {
			return f
		}
	}
	return nil
}

// Folders returns the folders in order
func (a *Addon) Folders() []*Folder { return slices.Clone(a.folders) }

// FolderNames returns the folder names in order
func (a *Addon) FolderNames() []string {
	names := make([]string, len(a.folders))
	for i, f := range a.folders {
		names[i] = f.Name
	}
	return names
}

// Title prefers the remote title over the manifest one.
func (a *Addon) Title() string {
	if pkg := a.pkg.Load(); pkg != nil && pkg.Metadata().Title != "" {
		return pkg.Metadata().Title
	}
	return a.PrimaryFolder().Title()
}

// Version is the installed version: the one recorded by the last install,
// otherwise the primary manifest's.
func (a *Addon) Version() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.localVersion()
}

func (a *Addon) localVersion() string {
	if a.installed != "" {
		return a.installed
	}
	return a.PrimaryFolder().Manifest.Version
}

// Package returns the attached package, or nil
func (a *Addon) Package() *repository.Package { return a.pkg.Load() }

// SetRepositoryPackage attaches pkg, replacing any previous package.
func (a *Addon) SetRepositoryPackage(pkg *repository.Package) {
	a.pkg.Store(pkg)
	a.Evaluate()
}

// MergeRemoteReleases folds a refreshed package into the attached one. A
// missing or placeholder package is replaced by pkg. Otherwise the releases
// and metadata of pkg are taken and the installed file id of the attached
// package, which may come from a fingerprint match, is kept.
func (a *Addon) MergeRemoteReleases(pkg *repository.Package) {
	for {
		current := a.pkg.Load()
		if a.pkg.CompareAndSwap(current, mergePackage(current, pkg)) {
			break
		}
	}
	a.Evaluate()
}

func mergePackage(current, refreshed *repository.Package) *repository.Package {
	if current == nil || current.Placeholder() {
		return refreshed
	}
	meta := refreshed.Metadata()
	if fileID := current.Metadata().FileID; fileID != "" {
		meta.FileID = fileID
	}
	return current.WithReleases(refreshed.Releases()).WithMetadata(meta)
}

// ReleaseChannel returns the addon's own channel preference
func (a *Addon) ReleaseChannel() types.ReleaseChannel {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.channel
}

// SetReleaseChannel changes the channel preference and re-evaluates.
func (a *Addon) SetReleaseChannel(c types.ReleaseChannel) {
	a.mu.Lock()
	a.channel = c
	a.mu.Unlock()
	a.Evaluate()
}

// SetGlobalChannel sets the channel used when the addon has no preference.
func (a *Addon) SetGlobalChannel(c types.ReleaseChannel) {
	a.mu.Lock()
	a.global = c
	a.mu.Unlock()
	a.Evaluate()
}

// EffectiveChannel resolves Default to the global channel, then to the
// package's main channel.
func (a *Addon) EffectiveChannel() types.ReleaseChannel {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.effectiveChannel(a.pkg.Load())
}

func (a *Addon) effectiveChannel(pkg *repository.Package) types.ReleaseChannel {
	switch {
	case !a.channel.IsDefault():
		return a.channel
	case !a.global.IsDefault():
		return a.global
	case pkg != nil:
		return pkg.MainChannel()
	default:
		return types.ChannelStable
	}
}

// RelevantRelease returns the release the addon should be on.
func (a *Addon) RelevantRelease() (repository.Release, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pkg := a.pkg.Load()
	if pkg == nil {
		return repository.Release{}, false
	}
	return pkg.RelevantRelease(a.effectiveChannel(pkg))
}

// IsUpdatable reports whether the relevant release differs from the
// installed version.
func (a *Addon) IsUpdatable() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.isUpdatable()
}

func (a *Addon) isUpdatable() bool {
	pkg := a.pkg.Load()
	if pkg == nil {
		return false
	}
	release, ok := pkg.RelevantRelease(a.effectiveChannel(pkg))
	return ok && IsUpdatable(a.localVersion(), release.Version)
}

// Evaluate moves an idle, updatable or completed addon to Updatable or
// Idle. Other states are left alone.
func (a *Addon) Evaluate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.Stable() && a.state != StateCompleted {
		return
	}
	if a.isUpdatable() {
		a.state = StateUpdatable
	} else {
		a.state = StateIdle
	}
	a.reason = ""
}

// State returns the lifecycle state
func (a *Addon) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Reason returns the cause recorded with the Error or Retry state.
func (a *Addon) Reason() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.reason
}

// Transition moves the addon to state to.
func (a *Addon) Transition(to State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transition(to, "")
}

func (a *Addon) transition(to State, reason string) error {
	if !CanTransition(a.state, to) {
		return transitionError(a.state, to)
	}
	a.state = to
	a.reason = reason
	return nil
}

// Fail moves the addon to Error with a human readable cause.
func (a *Addon) Fail(reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transition(StateError, reason)
}

// Retry moves the addon to Retry with the cause of the failed attempt.
func (a *Addon) Retry(reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transition(StateRetry, reason)
}

// Ignore excludes the addon from updates.
func (a *Addon) Ignore() error {
	return a.Transition(StateIgnored)
}

// Unignore returns an ignored addon to Idle or Updatable.
func (a *Addon) Unignore() error {
	a.mu.Lock()
	if a.state != StateIgnored {
		a.mu.Unlock()
		return transitionError(a.state, StateIdle)
	}
	a.state = StateIdle
	a.mu.Unlock()
	a.Evaluate()
	return nil
}

// MarkInstalled records release as the installed one.
func (a *Addon) MarkInstalled(release repository.Release) {
	a.mu.Lock()
	a.installed = release.Version
	a.mu.Unlock()
	for {
		current := a.pkg.Load()
		if current == nil || a.pkg.CompareAndSwap(current, current.WithInstalledFile(release.FileID)) {
			return
		}
	}
}

// Score is the match quality used to rank search results.
func (a *Addon) Score() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.score
}

// SetScore records the match quality
func (a *Addon) SetScore(score float64) {
	a.mu.Lock()
	a.score = score
	a.mu.Unlock()
}
