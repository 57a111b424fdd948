package repository

import (
	"context"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
)

// Offline is a Transport that knows no remote package. Scans against it
// resolve addons from the identity cache and manifests only.
type Offline struct{}

func (Offline) Resolve(_ context.Context, _ types.Flavor, kind types.RepositoryKind, id string) (*Package, error) {
	return nil, &types.RepositoryError{Kind: kind, ID: id, Reason: types.ReasonNotFound}
}

func (Offline) ResolveSource(_ context.Context, _ types.Flavor, rawURL string) (*Package, error) {
	return nil, &types.RepositoryError{Kind: types.KindGit, ID: rawURL, Reason: types.ReasonUnsupported}
}

func (Offline) MatchFingerprints(context.Context, types.Flavor, []uint32) ([]FingerprintMatch, error) {
	return nil, nil
}

func (Offline) Refresh(context.Context, types.Flavor, types.RepositoryKind, []string) (map[string]*Package, error) {
	return map[string]*Package{}, nil
}

func (Offline) Changelog(context.Context, types.Flavor, *Package, Release) (string, error) {
	return "", ErrNoChangelog
}
