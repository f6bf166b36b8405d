// Package logging provides structured logging for the iometer CLI.
//
// This package wraps a global zap logger with convenience functions. Logging
// is silent unless a level is requested, so command output stays clean.
//
// # Log Levels
//
//   - Debug: per-attempt request details, discovery results
//   - Info: completed bridge calls
//   - Warn: failed attempts and failed calls
//   - Error: unexpected failures
//
// # Configuration
//
// Initialize logging once at startup, from a flag or IOMETER_LOG_LEVEL:
//
//	if err := logging.Initialize(levelFlag); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Hand a component logger to the bridge client:
//
//	client.SetLogger(logging.Named("bridge"))
//
// # Output Format
//
// Logs are written to stderr in console format so they never mix with
// command output on stdout:
//
//	2025-11-25T10:30:45.123+0100  WARN  bridge  Bridge request attempt failed  {"host": "192.168.1.100", "attempt": 1}
package logging
