// Package logging provides structured logging for the Kubernetes test harness.
//
// It wraps the standard library slog package with harness defaults: JSON
// output to stderr, module/version context on every record, LOG_LEVEL
// environment configuration, and source location tracking for debug logs.
//
// Typical use in main():
//
//	logging.SetDefaultStructuredLogger("k8stest", version)
//	slog.Info("connecting to cluster", "name", name)
//
// The LOG_LEVEL environment variable (debug, info, warn, error; default info)
// controls verbosity when no explicit level is given.
package logging
