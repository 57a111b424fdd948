package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/GriffinCanCode/chmon/internal/domain/addon"
	"github.com/GriffinCanCode/chmon/internal/domain/cache"
	"github.com/GriffinCanCode/chmon/internal/domain/repository"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/paths"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Manifest ids are tried in this order when fingerprints found nothing.
var declaredKinds = []types.RepositoryKind{types.KindCurse, types.KindTukui, types.KindWowI, types.KindHub}

// Scan reads the AddOns directory of flavor below root and works out which
// addons are installed and where they come from. Resolution failures are
// reported per addon in the result; only a failure to list the directory
// fails the scan.
func (e *Engine) Scan(ctx context.Context, flavor types.Flavor, root string) (*Result, error) {
	refreshID := e.beginRefresh(flavor)
	dir := paths.AddonDirectory(root, flavor)
	log := e.logger.With(logging.Flavor(flavor), zap.String("refresh_id", refreshID.String()))

	infos, err := e.scanner.Scan(ctx, dir, flavor)
	if err != nil {
		return nil, err
	}

	folders := make([]*addon.Folder, len(infos))
	names := make([]string, len(infos))
	for i, info := range infos {
		folders[i] = addon.NewFolder(flavor, info)
		names[i] = info.Name
	}

	if err := e.fingerprintFolders(ctx, flavor, folders); err != nil {
		return nil, err
	}
	if err := e.fingerprints.RemoveStale(flavor, names); err != nil {
		log.Warn("failed to persist fingerprint cache", zap.Error(err))
	}

	r := &resolution{
		engine:    e,
		flavor:    flavor,
		remaining: make(map[string]*addon.Folder, len(folders)),
		result:    &Result{RefreshID: refreshID, Flavor: flavor},
	}
	for _, f := range folders {
		r.remaining[f.Name] = f
	}

	r.fromCache()
	if err := r.fromFingerprints(ctx); err != nil {
		return nil, err
	}
	if err := r.fromManifests(ctx); err != nil {
		return nil, err
	}
	r.unknown()

	for _, a := range r.result.Addons {
		e.applySettings(a)
	}
	sortAddons(r.result.Addons)
	e.metrics.SetUpdatable(string(flavor), len(r.result.Updatable()))

	log.Info("scan complete",
		zap.Int("folders", len(folders)),
		zap.Int("addons", len(r.result.Addons)),
		zap.Int("failures", len(r.result.Failures)))
	return r.result, nil
}

// fingerprintFolders fingerprints folders in parallel. Unchanged folders
// come from the cache. A folder that cannot be fingerprinted is left
// without one.
func (e *Engine) fingerprintFolders(ctx context.Context, flavor types.Flavor, folders []*addon.Folder) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, f := range folders {
		g.Go(func() error {
			if fp, ok := e.fingerprints.Fresh(flavor, f.Name, f.Modified); ok {
				f.SetFingerprint(fp)
				return nil
			}

			start := time.Now()
			fp, err := e.fingerprinter.Folder(gctx, f.Path)
			e.metrics.RecordFingerprint(time.Since(start), err)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.logger.Warn("fingerprint failed", zap.String("folder", f.Name), zap.Error(err))
				return nil
			}

			f.SetFingerprint(fp)
			if err := e.fingerprints.Put(flavor, f.Name, fp, f.Modified); err != nil {
				e.logger.Warn("failed to persist fingerprint cache", zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// resolution groups the folders of one scan into addons.
type resolution struct {
	engine    *Engine
	flavor    types.Flavor
	remaining map[string]*addon.Folder
	result    *Result
}

// take removes names from the remaining folders and returns them in order.
// It fails when any of them was already taken or is not installed.
func (r *resolution) take(names []string) ([]*addon.Folder, bool) {
	folders := make([]*addon.Folder, 0, len(names))
	for _, name := range names {
		f, ok := r.remaining[name]
		if !ok {
			return nil, false
		}
		folders = append(folders, f)
	}
	for _, name := range names {
		delete(r.remaining, name)
	}
	return folders, true
}

func (r *resolution) add(primary string, folders []*addon.Folder, pkg *repository.Package) {
	a, err := addon.New(r.flavor, primary, folders)
	if err != nil {
		r.engine.logger.Warn("dropping invalid addon", zap.String("primary", primary), zap.Error(err))
		return
	}
	if pkg != nil {
		a.SetRepositoryPackage(pkg)
	}
	r.result.Addons = append(r.result.Addons, a)
}

func (r *resolution) fail(kind types.RepositoryKind, id string, folders []string, err error) {
	r.engine.metrics.RecordResolutionFailure(string(kind))
	r.result.Failures = append(r.result.Failures, Failure{Kind: kind, ID: id, Folders: folders, Err: err})
}

// fromCache reuses identities resolved by earlier scans. The package is a
// placeholder until Refresh fetches its releases. Entries whose folders
// are gone are dropped.
func (r *resolution) fromCache() {
	e := r.engine
	for _, entry := range e.addons.Entries(r.flavor) {
		folders, ok := r.take(entry.Folders)
		if !ok {
			if err := e.addons.Remove(r.flavor, entry.Kind, entry.ID); err != nil {
				e.logger.Warn("failed to persist addon cache", zap.Error(err))
			}
			continue
		}
		e.metrics.IncAddonCacheHit()
		r.add(entry.PrimaryFolder, folders, repository.NewPackage(entry.Kind, entry.ID, repository.Metadata{Title: entry.Title}, nil))
	}
}

// fromFingerprints groups folders whose fingerprints match a published
// file of the content addressed source.
func (r *resolution) fromFingerprints(ctx context.Context) error {
	// Identical folders share a fingerprint, so a module is identified by
	// its folder name as well.
	type moduleKey struct {
		folder      string
		fingerprint uint32
	}
	byModule := make(map[moduleKey]*addon.Folder)
	seen := make(map[uint32]bool)
	var fingerprints []uint32
	for _, name := range r.remainingNames() {
		f := r.remaining[name]
		fp, ok := f.Fingerprint()
		if !ok {
			continue
		}
		byModule[moduleKey{strings.ToLower(f.Name), fp}] = f
		if !seen[fp] {
			seen[fp] = true
			fingerprints = append(fingerprints, fp)
		}
	}
	if len(fingerprints) == 0 {
		return nil
	}

	matches, err := r.engine.transport.MatchFingerprints(ctx, r.flavor, fingerprints)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.fail(types.KindCurse, "", nil, err)
		return nil
	}

	for _, m := range matches {
		var names []string
		for _, mod := range m.Modules {
			f, ok := byModule[moduleKey{strings.ToLower(mod.Folder), mod.Fingerprint}]
			if !ok {
				continue
			}
			if _, free := r.remaining[f.Name]; free {
				names = append(names, f.Name)
			}
		}
		if len(names) == 0 {
			continue
		}
		folders, _ := r.take(names)
		r.add(primaryOf(names), folders, m.Package)
	}
	return nil
}

// fromManifests resolves folders whose manifest declares a repository id.
// Folders declaring the same id form one addon.
func (r *resolution) fromManifests(ctx context.Context) error {
	type claim struct {
		kind  types.RepositoryKind
		id    string
		names []string
		pkg   *repository.Package
		err   error
	}

	var claims []*claim
	index := make(map[string]*claim)
	for _, name := range r.remainingNames() {
		ids := r.remaining[name].RepositoryIDs()
		for _, kind := range declaredKinds {
			id, ok := ids[kind]
			if !ok {
				continue
			}
			key := string(kind) + ":" + id
			c, ok := index[key]
			if !ok {
				c = &claim{kind: kind, id: id}
				index[key] = c
				claims = append(claims, c)
			}
			c.names = append(c.names, name)
			break
		}
	}
	if len(claims) == 0 {
		return nil
	}

	e := r.engine
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, c := range claims {
		g.Go(func() error {
			c.pkg, c.err = e.transport.Resolve(gctx, r.flavor, c.kind, c.id)
			if c.err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range claims {
		if c.err != nil {
			if !types.IsNotFound(c.err) {
				r.fail(c.kind, c.id, c.names, c.err)
			}
			continue
		}
		folders, ok := r.take(c.names)
		if !ok {
			continue
		}
		primary := primaryOf(c.names)
		r.add(primary, folders, c.pkg)
		if !c.kind.ContentAddressed() {
			e.remember(r.flavor, c.pkg, primary, c.names)
		}
	}
	return nil
}

// unknown turns the leftovers into addons without a source. A folder that
// depends on another leftover whose name it extends joins that addon,
// e.g. AddonX_Options with AddonX.
func (r *resolution) unknown() {
	names := r.remainingNames()
	parent := make(map[string]string, len(names))
	for _, name := range names {
		for _, dep := range r.remaining[name].Manifest.Dependencies {
			if _, ok := r.remaining[dep]; ok && dep != name && strings.HasPrefix(name, dep) {
				parent[name] = dep
				break
			}
		}
	}

	groups := make(map[string][]string)
	var primaries []string
	for _, name := range names {
		// Prefixes strictly shrink, so the walk ends
		root := name
		for p, ok := parent[root]; ok; p, ok = parent[root] {
			root = p
		}
		if root == name {
			primaries = append(primaries, name)
		}
		groups[root] = append(groups[root], name)
	}

	for _, primary := range primaries {
		folders, ok := r.take(groups[primary])
		if !ok {
			continue
		}
		r.add(primary, folders, nil)
	}
}

func (r *resolution) remainingNames() []string {
	names := make([]string, 0, len(r.remaining))
	for name := range r.remaining {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// primaryOf picks the shortest folder name, which is the core folder of a
// multi folder addon (Details over Details_DataStorage).
func primaryOf(names []string) string {
	primary := names[0]
	for _, n := range names[1:] {
		if len(n) < len(primary) || (len(n) == len(primary) && n < primary) {
			primary = n
		}
	}
	return primary
}

// remember stores the identity of an addon resolved by id so the next scan
// skips the remote lookup.
func (e *Engine) remember(flavor types.Flavor, pkg *repository.Package, primary string, folders []string) {
	err := e.addons.Upsert(flavor, cache.AddonEntry{
		Kind:          pkg.Kind(),
		ID:            pkg.ID(),
		Title:         pkg.Metadata().Title,
		PrimaryFolder: primary,
		Folders:       folders,
		Modified:      time.Now().UTC(),
	})
	if err != nil && !errors.Is(err, cache.ErrContentAddressed) {
		e.logger.Warn("failed to persist addon cache", zap.Error(err))
	}
}

// applySettings applies the user's channel and ignore choices.
func (e *Engine) applySettings(a *addon.Addon) {
	a.SetGlobalChannel(e.settings.GlobalChannel())
	if c := e.settings.ReleaseChannel(a.Flavor(), a.ID()); !c.IsDefault() {
		a.SetReleaseChannel(c)
	}
	if e.settings.IsIgnored(a.Flavor(), a.ID()) {
		if err := a.Ignore(); err != nil {
			e.logger.Debug("addon not ignored", logging.Flavor(a.Flavor()), zap.String("addon", a.ID()), zap.Error(err))
		}
	}
}
