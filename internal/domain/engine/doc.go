/*
Package engine resolves the addons installed for a flavor and keeps them in
step with their remote sources.

The Engine owns the fingerprint cache and the addon identity cache. A scan
fingerprints every folder (in parallel, reusing cached fingerprints of
unchanged folders) and then resolves identities in four steps:

 1. addon cache entries whose folders are all installed
 2. fingerprint matches against the content addressed source
 3. repository ids declared in manifests
 4. everything else, grouped by dependency and name prefix

	eng := engine.New(engine.Options{Store: store, Transport: client})
	result, err := eng.Scan(ctx, types.FlavorRetail, "/Applications/World of Warcraft")
	result, err = eng.Refresh(ctx, types.FlavorRetail, result.Addons)

Every result carries a RefreshID; IsCurrent tells whether it still belongs
to the latest cycle of its flavor.
*/
package engine
