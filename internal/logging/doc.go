// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output, written to chmon.log in the data directory
//   - Development: Colored console output for human readability
//
// Components receive a *Logger and derive a named child with Component, so
// every line carries the subsystem that produced it (chmon.engine,
// chmon.cache, chmon.repository, ...).
//
// Example Usage:
//
//	logger := logging.NewDefault().Component("engine")
//	logger.Info("Scanning addons", logging.Flavor(flavor), zap.String("root", root))
//	logger.Warn("Fingerprint failed", zap.String("folder", name), zap.Error(err))
package logging
