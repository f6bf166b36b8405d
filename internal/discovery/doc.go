// Package discovery provides mDNS-based discovery of IOmeter bridges.
//
// Bridges advertise the "_iometer._tcp" service on the local network. A scan
// browses for that service until its timeout expires and returns every
// bridge that answered with an address.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 3 * time.Second
//
//	bridge, err := scanner.FindOne(ctx)
//	if errors.Is(err, discovery.ErrNoBridges) {
//	    // ask for --host
//	}
//	client := iometer.NewClient(bridge.Host())
//
// # Limitations
//
// mDNS does not cross routers or VLANs. Bridges on another subnet must be
// addressed by IP.
package discovery
