package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/GriffinCanCode/chmon/internal/domain/addon"
	"github.com/GriffinCanCode/chmon/internal/shared/id"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
)

// Failure is a resolution error scoped to some folders or one remote id.
type Failure struct {
	Kind    types.RepositoryKind
	ID      string
	Folders []string
	Err     error
}

func (f Failure) Error() string {
	subject := strings.Join(f.Folders, ", ")
	if f.ID != "" {
		subject = fmt.Sprintf("%s:%s", f.Kind, f.ID)
	}
	return fmt.Sprintf("%s: %v", subject, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Result is the outcome of one scan or refresh cycle.
type Result struct {
	RefreshID id.RefreshID
	Flavor    types.Flavor
	Addons    []*addon.Addon
	Failures  []Failure
}

// Updatable returns the addons with a newer relevant release
func (r *Result) Updatable() []*addon.Addon {
	var out []*addon.Addon
	for _, a := range r.Addons {
		if a.State() == addon.StateUpdatable {
			out = append(out, a)
		}
	}
	return out
}

// Find returns the addon with the given primary folder
func (r *Result) Find(id string) (*addon.Addon, bool) {
	for _, a := range r.Addons {
		if a.ID() == id {
			return a, true
		}
	}
	return nil, false
}

func sortAddons(addons []*addon.Addon) {
	sort.Slice(addons, func(i, j int) bool {
		ti, tj := strings.ToLower(addons[i].Title()), strings.ToLower(addons[j].Title())
		if ti != tj {
			return ti < tj
		}
		return addons[i].ID() < addons[j].ID()
	})
}
