package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Bridge represents an IOmeter bridge found on the network
type Bridge struct {
	// Instance is the mDNS service instance name (e.g., "IOmeter-1A2B3C")
	Instance string

	// Hostname is the mDNS hostname (e.g., "iometer-1a2b3c.local.")
	Hostname string

	// IP is the bridge address, IPv4 when available
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the bridge was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the bridge
func (b *Bridge) String() string {
	return fmt.Sprintf("IOmeter bridge %s (%s) at %s", b.Instance, b.Hostname, b.Host())
}

// Host returns the address to hand to the bridge client. The port is
// omitted when it is the HTTP default.
func (b *Bridge) Host() string {
	ip := net.ParseIP(b.IP)
	if b.Port == DefaultPort && (ip == nil || ip.To4() != nil) {
		return b.IP
	}
	return net.JoinHostPort(b.IP, strconv.Itoa(b.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
