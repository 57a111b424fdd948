/*
Package repository models addons as published by remote sources and talks to
those sources.

# Sources

Each RepositoryKind has one Backend:

	curse  fingerprint addressed catalog (Curse)
	tukui  Tukui catalog, including the Tukui and ElvUI suites
	wowi   WoWInterface file details
	hub    community hub batch API
	git    GitHub and GitLab releases, addressed by project URL

Backends only know how to turn API answers into Packages. Client puts them
behind the Transport interface the engine consumes and records per-kind call
durations.

# Packages

A Package is immutable. Refreshing an addon produces a new Package through
WithReleases, which keeps the installed file id and other metadata:

	fresh, err := transport.Refresh(ctx, flavor, types.KindTukui, []string{"42"})
	merged := current.WithReleases(fresh["42"].Releases())

RelevantRelease selects what the user should be offered: the newest release
on a channel at least as stable as the one followed.
*/
package repository
