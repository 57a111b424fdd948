/*
Package monitoring provides Prometheus metrics for the addon engine.

# Overview

The engine, caches, repository client and filesystem layer record what they
do: how many folders were fingerprinted versus served from cache, how many
addons were re-associated through the identity cache, how remote calls
behave, and how often a locked file forced a retry.

A nil *Metrics is accepted everywhere and records nothing, so components can
be built without metrics in tests.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	metrics.IncFingerprintCacheHit()
	metrics.RecordRepositoryFetch("tukui", time.Since(start), err)

	fmt.Println(metrics.Snapshot().FingerprintsComputed)
*/
package monitoring
