// Package filesystem provides the disk side of the addon engine.
//
// This package is organized into small modules:
//   - resilient: Rename, Remove and RemoveAll that wait out locked files
//   - atomic: temp file plus rename writes for settings and cache snapshots
//   - scan: addon folder discovery and folder modification times
//   - manifest: TOC file lookup and parsing with legacy encoding support
//
// Locked files are common on desktop systems: antivirus scanners and
// indexers open freshly extracted files for a moment. Only permission
// denied class errors are retried; anything else is returned at once. Every
// failure surfaces as *types.FilesystemError carrying the attempt count.
//
// Example Usage:
//
//	scanner := filesystem.NewScanner(logger)
//	folders, err := scanner.Scan(ctx, paths.AddonDirectory(root, flavor), flavor)
//
//	if err := filesystem.RemoveAll(folder.Path); err != nil {
//		var fsErr *types.FilesystemError
//		errors.As(err, &fsErr)
//	}
package filesystem
