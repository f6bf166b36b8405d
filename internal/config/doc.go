// Package config provides user configuration management for the iometer CLI.
//
// This package manages a YAML-based configuration file that remembers the
// bridges the CLI has talked to and a few preferences (default host, request
// and discovery timeouts). It also reads the IOMETER_* environment overrides.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/iometer/config.yaml or $HOME/.config/iometer/config.yaml
//   - macOS: $HOME/.config/iometer/config.yaml
//   - Windows: %LOCALAPPDATA%\iometer\config.yaml
//
// IOMETER_CONFIG_DIR replaces the directory on every platform.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.UpdateBridgeLastSeen(status.Device.ID, host, status.Device.Bridge.Version, meter)
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment
//
//	IOMETER_HOST       bridge host used when --host is not given
//	IOMETER_TIMEOUT    per-attempt request timeout (e.g. 3s)
//	IOMETER_LOG_LEVEL  debug, info, warn or error
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
