package repository

import (
	"slices"
	"time"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
)

// Release is one downloadable version of a package.
type Release struct {
	Version     string
	Channel     types.ReleaseChannel
	FileID      string
	DownloadURL string
	Date        time.Time
	GameVersion string
	// Modules lists the folder names the release unpacks to, when known
	Modules []string
	// Notes holds release notes published inline with the release
	Notes string
}

// Metadata describes a package independent of its releases.
type Metadata struct {
	Title         string
	Author        string
	Summary       string
	WebsiteURL    string
	ChangelogURL  string
	GameVersion   string
	DownloadCount int64
	// FileID is the file currently installed, when the source can tell
	FileID string
}

// Package is an immutable view of an addon on a remote source. Updates
// produce a new Package.
type Package struct {
	kind     types.RepositoryKind
	id       string
	metadata Metadata
	releases []Release
}

// NewPackage creates a Package. Releases are kept in source order.
func NewPackage(kind types.RepositoryKind, id string, metadata Metadata, releases []Release) *Package {
	return &Package{
		kind:     kind,
		id:       id,
		metadata: metadata,
		releases: cloneReleases(releases),
	}
}

// Kind returns the source the package comes from
func (p *Package) Kind() types.RepositoryKind { return p.kind }

// ID returns the identifier of the package on its source
func (p *Package) ID() string { return p.id }

// Metadata returns the package metadata
func (p *Package) Metadata() Metadata { return p.metadata }

// Releases returns a copy of the releases in source order
func (p *Package) Releases() []Release { return cloneReleases(p.releases) }

// Placeholder reports whether p only names an identity: it carries no
// releases and no installed file id.
func (p *Package) Placeholder() bool {
	return len(p.releases) == 0 && p.metadata.FileID == ""
}

// WithReleases returns a copy of p with its releases replaced. Metadata,
// including the installed file id, is kept.
func (p *Package) WithReleases(releases []Release) *Package {
	next := *p
	next.releases = cloneReleases(releases)
	return &next
}

// WithMetadata returns a copy of p with its metadata replaced
func (p *Package) WithMetadata(metadata Metadata) *Package {
	next := *p
	next.metadata = metadata
	next.releases = cloneReleases(p.releases)
	return &next
}

// WithInstalledFile returns a copy of p recording fileID as installed
func (p *Package) WithInstalledFile(fileID string) *Package {
	meta := p.metadata
	meta.FileID = fileID
	return p.WithMetadata(meta)
}

// MainChannel is the channel a package is followed on when neither the
// addon nor the user chose one.
func (p *Package) MainChannel() types.ReleaseChannel {
	return types.ChannelStable
}

// RelevantRelease returns the newest release acceptable on channel. Among
// releases with the same date the first in source order wins.
func (p *Package) RelevantRelease(channel types.ReleaseChannel) (Release, bool) {
	if channel.IsDefault() {
		channel = p.MainChannel()
	}

	best := -1
	for i, r := range p.releases {
		if !channel.Accepts(r.Channel) {
			continue
		}
		if best < 0 || r.Date.After(p.releases[best].Date) {
			best = i
		}
	}
	if best < 0 {
		return Release{}, false
	}
	return cloneRelease(p.releases[best]), true
}

func cloneRelease(r Release) Release {
	r.Modules = slices.Clone(r.Modules)
	return r
}

func cloneReleases(releases []Release) []Release {
	if releases == nil {
		return nil
	}
	out := make([]Release, len(releases))
	for i, r := range releases {
		out[i] = cloneRelease(r)
	}
	return out
}
