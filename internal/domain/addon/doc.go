/*
Package addon models installed addons and decides whether they need an update.

An Addon groups one or more folders found in the AddOns directory under a
primary folder whose manifest is authoritative. Once a remote package is
attached the addon is re-evaluated:

	a, err := addon.New(flavor, "Details", folders)
	a.SetRepositoryPackage(pkg)
	if a.State() == addon.StateUpdatable {
		release, _ := a.RelevantRelease()
	}

The lifecycle is a fixed state machine driven by the caller between I/O
steps:

	Idle <-> Updatable -> Downloading -> Unpacking -> Fingerprint -> Completed
	  |          |            |              |             |
	  +-Ignored--+            +----- Retry / Error --------+

Versions are compared on their digit sequence only, see IsUpdatable.
*/
package addon
