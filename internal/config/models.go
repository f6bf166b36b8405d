package config

import (
	"sort"
	"time"
)

const (
	registryVersion = 1

	defaultRequestTimeout  = 5
	defaultDiscoverTimeout = 5
)

// Registry represents the entire user configuration file.
// It remembers bridges seen by the CLI and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Bridges     map[string]*Bridge `yaml:"bridges,omitempty"` // Keyed by bridge device id
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Bridge represents what the CLI last learned about one IOmeter bridge.
type Bridge struct {
	Nickname      string    `yaml:"nickname,omitempty"`       // User-friendly name
	LastHost      string    `yaml:"last_host,omitempty"`      // Host the bridge last answered on
	LastSeen      time.Time `yaml:"last_seen,omitempty"`      // Last successful status call
	BridgeVersion string    `yaml:"bridge_version,omitempty"` // Bridge firmware build
	MeterNumber   string    `yaml:"meter_number,omitempty"`   // Paired meter, empty if none
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultHost     string `yaml:"default_host,omitempty"` // Host used when --host is not given
	RequestTimeout  int    `yaml:"request_timeout"`        // Per-attempt request timeout in seconds
	DiscoverTimeout int    `yaml:"discover_timeout"`       // mDNS discovery timeout in seconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     registryVersion,
		Bridges:     make(map[string]*Bridge),
		Preferences: defaultPreferences(),
	}
}

func defaultPreferences() *Preferences {
	return &Preferences{
		RequestTimeout:  defaultRequestTimeout,
		DiscoverTimeout: defaultDiscoverTimeout,
	}
}

// GetBridge retrieves bridge metadata by device id.
// Returns nil if the bridge doesn't exist in the registry.
func (r *Registry) GetBridge(id string) *Bridge {
	return r.Bridges[id]
}

// EnsureBridge returns the entry for id, creating an empty one if needed.
func (r *Registry) EnsureBridge(id string) *Bridge {
	if r.Bridges == nil {
		r.Bridges = make(map[string]*Bridge)
	}

	if bridge, exists := r.Bridges[id]; exists {
		return bridge
	}

	bridge := &Bridge{}
	r.Bridges[id] = bridge
	return bridge
}

// UpdateBridgeLastSeen records a successful status call against a bridge.
// An empty meter number clears the remembered meter.
func (r *Registry) UpdateBridgeLastSeen(id, host, version, meterNumber string) {
	bridge := r.EnsureBridge(id)
	bridge.LastSeen = time.Now()
	bridge.LastHost = host
	bridge.BridgeVersion = version
	bridge.MeterNumber = meterNumber
}

// SetBridgeNickname sets a user-friendly nickname for a bridge.
func (r *Registry) SetBridgeNickname(id, nickname string) {
	r.EnsureBridge(id).Nickname = nickname
}

// FindBridge looks a bridge up by nickname or last host. Nicknames win.
func (r *Registry) FindBridge(nameOrHost string) (string, *Bridge) {
	for id, bridge := range r.Bridges {
		if bridge.Nickname != "" && bridge.Nickname == nameOrHost {
			return id, bridge
		}
	}
	for id, bridge := range r.Bridges {
		if bridge.LastHost == nameOrHost {
			return id, bridge
		}
	}
	return "", nil
}

// BridgeIDs returns the ids of all remembered bridges, most recently seen first.
func (r *Registry) BridgeIDs() []string {
	ids := make([]string, 0, len(r.Bridges))
	for id := range r.Bridges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.Bridges[ids[i]], r.Bridges[ids[j]]
		if !a.LastSeen.Equal(b.LastSeen) {
			return a.LastSeen.After(b.LastSeen)
		}
		return ids[i] < ids[j]
	})
	return ids
}

// SetDefaultHost sets the host used when none is given on the command line.
func (r *Registry) SetDefaultHost(host string) {
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	r.Preferences.DefaultHost = host
}

// RequestTimeout returns the preferred per-attempt timeout.
func (r *Registry) RequestTimeout() time.Duration {
	if r.Preferences == nil || r.Preferences.RequestTimeout <= 0 {
		return defaultRequestTimeout * time.Second
	}
	return time.Duration(r.Preferences.RequestTimeout) * time.Second
}

// DiscoverTimeout returns the preferred mDNS discovery timeout.
func (r *Registry) DiscoverTimeout() time.Duration {
	if r.Preferences == nil || r.Preferences.DiscoverTimeout <= 0 {
		return defaultDiscoverTimeout * time.Second
	}
	return time.Duration(r.Preferences.DiscoverTimeout) * time.Second
}
