package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type advertised by IOmeter bridges
	ServiceType = "_iometer._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for bridge discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default HTTP port of a bridge
	DefaultPort = 80
)

var (
	// ErrNoBridges is returned by FindOne when no bridge answered
	ErrNoBridges = errors.New("no IOmeter bridge found on the network")

	// ErrMultipleBridges is returned by FindOne when more than one bridge answered
	ErrMultipleBridges = errors.New("more than one IOmeter bridge found")
)

// browseFunc matches zeroconf.Resolver.Browse
type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Scanner handles mDNS bridge discovery
type Scanner struct {
	// Timeout is the maximum time to wait for bridges to answer
	Timeout time.Duration

	browse browseFunc
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan collects every bridge that answers within Timeout. Bridges are
// deduplicated by instance name and sorted by it.
func (s *Scanner) Scan(ctx context.Context) ([]*Bridge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	browse, err := s.browser()
	if err != nil {
		return nil, err
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu      sync.Mutex
		found   = make(map[string]*Bridge)
		drained = make(chan struct{})
	)

	go func() {
		defer close(drained)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				bridge := parseServiceEntry(entry)
				if bridge == nil {
					continue
				}
				mu.Lock()
				found[bridge.Instance] = bridge
				mu.Unlock()
			}
		}
	}()

	if err := browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-drained

	mu.Lock()
	defer mu.Unlock()

	bridges := make([]*Bridge, 0, len(found))
	for _, bridge := range found {
		bridges = append(bridges, bridge)
	}
	sort.Slice(bridges, func(i, j int) bool { return bridges[i].Instance < bridges[j].Instance })
	return bridges, nil
}

// FindOne scans and returns the only bridge on the network. It fails with
// ErrNoBridges or ErrMultipleBridges otherwise.
func (s *Scanner) FindOne(ctx context.Context) (*Bridge, error) {
	bridges, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}

	switch len(bridges) {
	case 0:
		return nil, ErrNoBridges
	case 1:
		return bridges[0], nil
	default:
		names := make([]string, len(bridges))
		for i, b := range bridges {
			names[i] = b.Instance + " (" + b.Host() + ")"
		}
		return nil, fmt.Errorf("%w: %s", ErrMultipleBridges, strings.Join(names, ", "))
	}
}

func (s *Scanner) browser() (browseFunc, error) {
	if s.browse != nil {
		return s.browse, nil
	}
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	return resolver.Browse, nil
}

// parseServiceEntry converts a zeroconf service entry to a Bridge.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Bridge {
	if entry == nil {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	instance := entry.Instance
	if instance == "" {
		instance = strings.TrimSuffix(entry.HostName, ".")
	}
	if instance == "" {
		instance = ip
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Bridge{
		Instance:     instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForBridges is a convenience function to scan with a custom timeout
func ScanForBridges(ctx context.Context, timeout time.Duration) ([]*Bridge, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan(ctx)
}
