/*
Package cache holds the two persistent memos of the addon engine.

# Fingerprint cache

Maps (flavor, folder) to the fingerprint computed for that folder and the
folder's modification time at that moment. A scan reuses the stored value
when the time still matches and hashes the folder otherwise.

# Addon cache

Maps (flavor, kind, id) to the folders that make up an installed package.
This is what lets a Tukui or WoWInterface addon be recognised again after a
restart even though its folders carry no usable identity. Content addressed
packages are never stored: their identity comes from fingerprints every time.

# Persistence

Both caches are loaded once, guarded by a mutex, and write a complete
snapshot through a Store after each mutation. FileStore writes YAML files
atomically:

	store := cache.NewFileStore(layout.CacheDir())
	fingerprints := cache.LoadFingerprintCache(store, logger, metrics)
	addons := cache.LoadAddonCache(store, logger)

A missing, unreadable or corrupt snapshot results in an empty cache and a
warning, never in a failed start.
*/
package cache
