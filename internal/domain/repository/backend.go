package repository

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
)

// ErrNoChangelog is returned when a source publishes no changelog text.
var ErrNoChangelog = errors.New("no changelog available")

// Fetcher is the HTTP transport a backend talks through.
type Fetcher interface {
	GetJSON(ctx context.Context, url string, headers map[string]string, out any) error
	PostJSON(ctx context.Context, url string, body any, out any) error
	GetText(ctx context.Context, url string) (string, error)
}

// Backend resolves packages on one remote source.
type Backend interface {
	Kind() types.RepositoryKind
	// Fetch resolves a single package
	Fetch(ctx context.Context, flavor types.Flavor, id string) (*Package, error)
	// Batch resolves many packages at once. Ids the source does not know
	// are absent from the result.
	Batch(ctx context.Context, flavor types.Flavor, ids []string) (map[string]*Package, error)
	// Changelog returns the plain text changelog of a release
	Changelog(ctx context.Context, flavor types.Flavor, pkg *Package, release Release) (string, error)
}

// Module is one folder of a fingerprint match.
type Module struct {
	Folder      string
	Fingerprint uint32
}

// FingerprintMatch is a package whose published file matches local folders.
type FingerprintMatch struct {
	Package *Package
	// Modules are the folders of the matched file with their fingerprints
	Modules []Module
}

// FingerprintMatcher is implemented by content addressed sources.
type FingerprintMatcher interface {
	MatchFingerprints(ctx context.Context, flavor types.Flavor, fingerprints []uint32) ([]FingerprintMatch, error)
}

// SourceResolver is implemented by sources addressed by a URL.
type SourceResolver interface {
	ParseSource(rawURL string) (string, error)
}
