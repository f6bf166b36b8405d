// Package iometer provides an HTTP client for the local API of an IOmeter bridge.
//
// The bridge relays data from the core module clipped onto an electricity
// meter. It exposes two read-only JSON endpoints, both over plain HTTP:
//   - /v1/reading: the latest meter reading as a list of OBIS registers
//   - /v1/status: bridge firmware and signal, core module connectivity and power
//
// # Usage Example
//
//	err := iometer.WithSession(ctx, "192.168.1.100", nil, func(ctx context.Context, c *iometer.Client) error {
//	    reading, err := c.GetCurrentReading(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    if power, ok := reading.CurrentPower(); ok {
//	        fmt.Printf("Current power: %.0f W\n", power)
//	    }
//	    return nil
//	})
//
// # Absent Values
//
// Missing registers and voided status fields are reported as absent, never
// as zero: derived reading accessors return (value, ok) and optional status
// fields are pointers. The status parser normalizes core fields:
// a disconnected core reports nothing but its connection status, a wired
// core has no battery level and a detached core has no PIN status.
//
// # Retries
//
// Each request is attempted up to three times with a per-attempt timeout
// (default 5s) and a linear backoff of 0.5s, 1s between attempts. Timeouts,
// network errors, 5xx, 408 and 429 are retried; other 4xx answers are not.
// Cancelling the context stops an attempt or a backoff sleep immediately.
//
// # Error Handling
//
// All errors returned by the client are *BridgeError values, except
// context cancellation which is returned wrapped as is. Use the Is*
// predicates or errors.Is with the Err* sentinels:
//
//	reading, err := client.GetCurrentReading(ctx)
//	switch {
//	case iometer.IsNoReadingsError(err):
//	    // the bridge has not read the meter yet
//	case iometer.IsTimeoutError(err):
//	    // every attempt timed out
//	case err != nil:
//	    return err
//	}
//
// # Thread Safety
//
// A Client may be used from several goroutines once opened. It must not be
// used after Close.
package iometer
