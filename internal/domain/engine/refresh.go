package engine

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/chmon/internal/domain/addon"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Refresh fetches the latest releases of every addon with a package, one
// batch per repository kind, and merges them in. Ignored addons and addons
// without a source are skipped. A failing kind is reported in the result
// and does not affect the others. The result joins the cycle of the latest
// Scan of flavor and goes stale with it.
func (e *Engine) Refresh(ctx context.Context, flavor types.Flavor, addons []*addon.Addon) (*Result, error) {
	refreshID := e.currentRefresh(flavor)
	result := &Result{RefreshID: refreshID, Flavor: flavor, Addons: addons}

	byKind := make(map[types.RepositoryKind]map[string][]*addon.Addon)
	var kinds []types.RepositoryKind
	for _, a := range addons {
		pkg := a.Package()
		if pkg == nil || a.State() == addon.StateIgnored {
			continue
		}
		ids, ok := byKind[pkg.Kind()]
		if !ok {
			ids = make(map[string][]*addon.Addon)
			byKind[pkg.Kind()] = ids
			kinds = append(kinds, pkg.Kind())
		}
		ids[pkg.ID()] = append(ids[pkg.ID()], a)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, kind := range kinds {
		g.Go(func() error {
			wanted := byKind[kind]
			ids := make([]string, 0, len(wanted))
			for id := range wanted {
				ids = append(ids, id)
			}

			pkgs, err := e.transport.Refresh(gctx, flavor, kind, ids)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.metrics.RecordResolutionFailure(string(kind))
				e.logger.Warn("refresh failed", logging.Flavor(flavor), zap.String("kind", string(kind)), zap.Error(err))
				mu.Lock()
				result.Failures = append(result.Failures, Failure{Kind: kind, Err: err})
				mu.Unlock()
				return nil
			}

			for id, pkg := range pkgs {
				for _, a := range wanted[id] {
					a.MergeRemoteReleases(pkg)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.metrics.SetUpdatable(string(flavor), len(result.Updatable()))
	return result, nil
}
