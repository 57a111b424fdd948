package addon

import (
	"github.com/GriffinCanCode/chmon/internal/domain/repository"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
)

// Pending is a package chosen for install before any of its folders exist
// on disk. It becomes an Addon once the install completes.
type Pending struct {
	// ID is a temporary id derived from the package kind and id
	ID      string
	Flavor  types.Flavor
	Package *repository.Package
	Channel types.ReleaseChannel
}

// Release returns the release to install
func (p *Pending) Release() (repository.Release, bool) {
	return p.Package.RelevantRelease(p.Channel)
}
