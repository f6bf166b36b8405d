package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	t.Setenv(ConfigDirEnvVar, "")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "iometer") {
		t.Errorf("GetConfigDir() = %v, should contain 'iometer'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and other Unix systems")
	}

	t.Setenv(ConfigDirEnvVar, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join("/tmp/xdg", "iometer") {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg/iometer", configDir)
	}
}

func TestGetConfigDir_Override(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigDirEnvVar, dir)

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != dir {
		t.Errorf("GetConfigDir() = %v, want %v", configDir, dir)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Bridges == nil {
		t.Error("NewRegistry().Bridges should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.RequestTimeout() != 5*time.Second {
		t.Errorf("RequestTimeout() = %v, want 5s", reg.RequestTimeout())
	}
	if reg.DiscoverTimeout() != 5*time.Second {
		t.Errorf("DiscoverTimeout() = %v, want 5s", reg.DiscoverTimeout())
	}
}

func TestRegistryEnsureBridge(t *testing.T) {
	reg := &Registry{Version: 1}

	bridge1 := reg.EnsureBridge("658c2b34-2017-45f2-a12b-731235f8bb97")
	if bridge1 == nil {
		t.Fatal("EnsureBridge() returned nil")
	}

	bridge2 := reg.EnsureBridge("658c2b34-2017-45f2-a12b-731235f8bb97")
	if bridge1 != bridge2 {
		t.Error("EnsureBridge() should return same instance for same id")
	}

	bridge3 := reg.EnsureBridge("other")
	if bridge1 == bridge3 {
		t.Error("EnsureBridge() should create new instance for different id")
	}
}

func TestRegistryUpdateBridgeLastSeen(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateBridgeLastSeen("bridge-1", "192.168.1.100", "build-65", "1ISK0000000000")
	after := time.Now()

	bridge := reg.GetBridge("bridge-1")
	if bridge == nil {
		t.Fatal("Bridge should exist after UpdateBridgeLastSeen()")
	}
	if bridge.LastHost != "192.168.1.100" {
		t.Errorf("LastHost = %v, want 192.168.1.100", bridge.LastHost)
	}
	if bridge.BridgeVersion != "build-65" {
		t.Errorf("BridgeVersion = %v, want build-65", bridge.BridgeVersion)
	}
	if bridge.MeterNumber != "1ISK0000000000" {
		t.Errorf("MeterNumber = %v, want 1ISK0000000000", bridge.MeterNumber)
	}
	if bridge.LastSeen.Before(before) || bridge.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", bridge.LastSeen, before, after)
	}

	reg.UpdateBridgeLastSeen("bridge-1", "192.168.1.101", "build-66", "")
	if bridge.MeterNumber != "" {
		t.Errorf("MeterNumber = %v, want cleared", bridge.MeterNumber)
	}
}

func TestRegistryFindBridge(t *testing.T) {
	reg := NewRegistry()
	reg.UpdateBridgeLastSeen("bridge-1", "192.168.1.100", "build-65", "")
	reg.UpdateBridgeLastSeen("bridge-2", "192.168.1.101", "build-65", "")
	reg.SetBridgeNickname("bridge-2", "garage")

	tests := []struct {
		query  string
		wantID string
	}{
		{query: "garage", wantID: "bridge-2"},
		{query: "192.168.1.100", wantID: "bridge-1"},
		{query: "unknown", wantID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			id, bridge := reg.FindBridge(tt.query)
			if id != tt.wantID {
				t.Errorf("FindBridge(%q) id = %q, want %q", tt.query, id, tt.wantID)
			}
			if (bridge != nil) != (tt.wantID != "") {
				t.Errorf("FindBridge(%q) bridge = %v", tt.query, bridge)
			}
		})
	}
}

func TestRegistryBridgeIDs(t *testing.T) {
	now := time.Now()
	reg := NewRegistry()
	reg.Bridges["old"] = &Bridge{LastSeen: now.Add(-time.Hour)}
	reg.Bridges["new"] = &Bridge{LastSeen: now}
	reg.Bridges["b-never"] = &Bridge{}
	reg.Bridges["a-never"] = &Bridge{}

	got := reg.BridgeIDs()
	want := []string{"new", "old", "a-never", "b-never"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("BridgeIDs() = %v, want %v", got, want)
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	testConfigPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.UpdateBridgeLastSeen("bridge-1", "192.168.1.100", "build-65", "1ISK0000000000")
	reg.SetBridgeNickname("bridge-1", "Basement")
	reg.SetDefaultHost("192.168.1.100")
	reg.Preferences.RequestTimeout = 3

	if err := reg.SaveFile(testConfigPath); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	if _, err := os.Stat(testConfigPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away after save")
	}

	loaded, err := LoadRegistryFile(testConfigPath)
	if err != nil {
		t.Fatalf("LoadRegistryFile() error = %v", err)
	}

	bridge := loaded.GetBridge("bridge-1")
	if bridge == nil {
		t.Fatal("Bridge should exist in loaded registry")
	}
	if bridge.Nickname != "Basement" {
		t.Errorf("Loaded nickname = %v, want 'Basement'", bridge.Nickname)
	}
	if bridge.MeterNumber != "1ISK0000000000" {
		t.Errorf("Loaded meter number = %v, want 1ISK0000000000", bridge.MeterNumber)
	}
	if loaded.Preferences.DefaultHost != "192.168.1.100" {
		t.Errorf("Loaded default host = %v, want 192.168.1.100", loaded.Preferences.DefaultHost)
	}
	if loaded.RequestTimeout() != 3*time.Second {
		t.Errorf("Loaded RequestTimeout() = %v, want 3s", loaded.RequestTimeout())
	}
}

func TestLoadRegistryFile_Missing(t *testing.T) {
	reg, err := LoadRegistryFile(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadRegistryFile() error = %v", err)
	}
	if reg.Version != 1 || reg.Bridges == nil || reg.Preferences == nil {
		t.Errorf("missing file should yield a default registry, got %+v", reg)
	}
}

func TestLoadRegistryFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad yaml", content: "version: [1", wantErr: "failed to parse"},
		{name: "wrong version", content: "version: 2\n", wantErr: "unsupported config version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}

			_, err := LoadRegistryFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadRegistryFile() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRegistryFile_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	reg, err := LoadRegistryFile(path)
	if err != nil {
		t.Fatalf("LoadRegistryFile() error = %v", err)
	}
	if reg.Bridges == nil {
		t.Error("Bridges should be initialized")
	}
	if reg.DiscoverTimeout() != 5*time.Second {
		t.Errorf("DiscoverTimeout() = %v, want 5s", reg.DiscoverTimeout())
	}
}

func TestGlobalRegistry(t *testing.T) {
	t.Setenv(ConfigDirEnvVar, t.TempDir())

	reg, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	reg.UpdateBridgeLastSeen("bridge-1", "192.168.1.100", "build-65", "")

	if err := SaveGlobal(); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}

	reloaded, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	if reloaded == reg {
		t.Error("ReloadRegistry() should read a fresh instance from disk")
	}
	if reloaded.GetBridge("bridge-1") == nil {
		t.Error("bridge saved through SaveGlobal() should be reloaded")
	}
}

func BenchmarkEnsureBridge(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsureBridge("bridge-1")
	}
}
