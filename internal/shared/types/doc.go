// Package types provides shared data structures for the addon engine.
//
// Core Types:
//   - Flavor: Game client variant (retail, classic, test realms)
//
// Error Types:
//   - FilesystemError: I/O failure after retry exhaustion
//   - ParseError: Malformed manifest or failed fingerprint computation
//   - RepositoryError: Remote identity resolution failure
//   - DownloadError: Transport failure while fetching an archive
//
// All error types wrap their cause and work with errors.As and errors.Is.
//
// Example Usage:
//
//	flavor, err := types.ParseFlavor("classic_era")
//	dir := flavor.FolderName() // "_classic_era_"
package types
