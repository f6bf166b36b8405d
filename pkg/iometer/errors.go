package iometer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeConnection indicates a transport failure (refused, unreachable, non-2xx status)
	ErrTypeConnection ErrorType = iota
	// ErrTypeTimeout indicates every attempt ran into the request timeout
	ErrTypeTimeout
	// ErrTypeNoReadings indicates the bridge has no reading to report (HTTP 404 on v1/reading)
	ErrTypeNoReadings
	// ErrTypeNoStatus indicates the bridge has no status to report (HTTP 404 on v1/status)
	ErrTypeNoStatus
	// ErrTypeFormat indicates a malformed or incomplete JSON payload
	ErrTypeFormat
	// ErrTypeUsage indicates the client was used without an open session
	ErrTypeUsage
)

// NetworkErrorSubtype provides more specific classification of connection errors
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
	NetworkErrorHTTPStatus
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnection:
		return "Connection Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeNoReadings:
		return "No Readings"
	case ErrTypeNoStatus:
		return "No Status"
	case ErrTypeFormat:
		return "Format Error"
	case ErrTypeUsage:
		return "Usage Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// BridgeError is the single error type returned by this package.
type BridgeError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code of the last attempt (if any)
	Host           string              // Bridge host (for context)
	Attempts       int                 // Number of attempts made before giving up
	NetworkSubtype NetworkErrorSubtype // More specific connection error type
	Retryable      bool                // Whether the failed attempt may be retried
	Err            error               // Underlying error (if any)
}

// Error implements the error interface
func (e *BridgeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *BridgeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *BridgeError of the same Type, so the
// sentinel values below can be used with errors.Is.
func (e *BridgeError) Is(target error) bool {
	t, ok := target.(*BridgeError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// Sentinels for errors.Is. They match any BridgeError of the same type.
var (
	ErrConnection = &BridgeError{Type: ErrTypeConnection}
	ErrTimeout    = &BridgeError{Type: ErrTypeTimeout}
	ErrNoReadings = &BridgeError{Type: ErrTypeNoReadings}
	ErrNoStatus   = &BridgeError{Type: ErrTypeNoStatus}
	ErrFormat     = &BridgeError{Type: ErrTypeFormat}
	ErrUsage      = &BridgeError{Type: ErrTypeUsage}
)

// classifyAttemptError turns the error of a single failed request into a
// BridgeError carrying the retry decision.
func classifyAttemptError(err error, host string) *BridgeError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &BridgeError{
			Type:           ErrTypeTimeout,
			Message:        "request timed out",
			Err:            err,
			Host:           host,
			NetworkSubtype: NetworkErrorTimeout,
			Retryable:      true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &BridgeError{
			Type:           ErrTypeConnection,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			Host:           host,
			NetworkSubtype: NetworkErrorDNS,
			Retryable:      true,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &BridgeError{
				Type:           ErrTypeConnection,
				Message:        "bridge refused connection",
				Err:            err,
				Host:           host,
				NetworkSubtype: NetworkErrorConnectionRefused,
				Retryable:      true,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &BridgeError{
				Type:           ErrTypeConnection,
				Message:        "host unreachable",
				Err:            err,
				Host:           host,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Retryable:      true,
			}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &BridgeError{
				Type:           ErrTypeConnection,
				Message:        "network unreachable",
				Err:            err,
				Host:           host,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Retryable:      true,
			}
		}
	}

	return &BridgeError{
		Type:           ErrTypeConnection,
		Message:        err.Error(),
		Err:            err,
		Host:           host,
		NetworkSubtype: NetworkErrorGeneral,
		Retryable:      true,
	}
}

// newStatusError creates the attempt error for a non-2xx response.
// Server errors, 408 and 429 are retryable; every other status is final.
func newStatusError(statusCode int, host string) *BridgeError {
	retryable := statusCode >= 500 ||
		statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests
	return &BridgeError{
		Type:           ErrTypeConnection,
		Message:        fmt.Sprintf("unexpected status code: %d", statusCode),
		StatusCode:     statusCode,
		Host:           host,
		NetworkSubtype: NetworkErrorHTTPStatus,
		Retryable:      retryable,
	}
}

// NewFormatError creates a payload parsing error
func NewFormatError(message string, err error) *BridgeError {
	return &BridgeError{
		Type:    ErrTypeFormat,
		Message: message,
		Err:     err,
	}
}

// NewUsageError creates an error for calls made without an open session
func NewUsageError(message string) *BridgeError {
	return &BridgeError{
		Type:    ErrTypeUsage,
		Message: message,
	}
}

// newNotFoundError replaces a 404 connection error. The cause is not
// wrapped so the result never matches ErrConnection.
func newNotFoundError(typ ErrorType, message string, cause *BridgeError) *BridgeError {
	return &BridgeError{
		Type:       typ,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Host:       cause.Host,
		Attempts:   cause.Attempts,
	}
}

func asBridgeError(err error) (*BridgeError, bool) {
	var bErr *BridgeError
	if errors.As(err, &bErr) {
		return bErr, true
	}
	return nil, false
}

func isType(err error, typ ErrorType) bool {
	bErr, ok := asBridgeError(err)
	return ok && bErr.Type == typ
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	return isType(err, ErrTypeConnection)
}

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool {
	return isType(err, ErrTypeTimeout)
}

// IsNoReadingsError checks if the bridge reported no readings
func IsNoReadingsError(err error) bool {
	return isType(err, ErrTypeNoReadings)
}

// IsNoStatusError checks if the bridge reported no status
func IsNoStatusError(err error) bool {
	return isType(err, ErrTypeNoStatus)
}

// IsFormatError checks if an error is a payload format error
func IsFormatError(err error) bool {
	return isType(err, ErrTypeFormat)
}

// IsUsageError checks if an error is a usage error
func IsUsageError(err error) bool {
	return isType(err, ErrTypeUsage)
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if bErr, ok := asBridgeError(err); ok {
		return bErr.Retryable
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	if errors.Is(err, context.Canceled) {
		return "The request was cancelled."
	}

	bErr, ok := asBridgeError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch bErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The bridge did not respond in time.",
			"Troubleshooting:",
			"  • Check that the bridge is powered and its LED shows a WiFi connection",
			"  • Verify you're on the same network as the bridge",
			"  • Try increasing the timeout (--timeout)",
		}, "\n")

	case ErrTypeNoReadings:
		return strings.Join([]string{
			"The bridge has no meter reading yet.",
			"Troubleshooting:",
			"  • Make sure the core module is attached to the meter",
			"  • Check that the meter PIN has been entered in the IOmeter app",
			"  • Wait a few seconds after pairing and try again",
		}, "\n")

	case ErrTypeNoStatus:
		return strings.Join([]string{
			"The bridge has no status to report.",
			"Troubleshooting:",
			"  • The bridge may still be starting up - wait and try again",
			"  • Check the bridge firmware version in the IOmeter app",
		}, "\n")

	case ErrTypeFormat:
		return strings.Join([]string{
			"Failed to parse the bridge's response.",
			"This may indicate a firmware incompatibility.",
			"Troubleshooting:",
			"  • Check that the host really is an IOmeter bridge",
			"  • Update the bridge firmware",
		}, "\n")

	case ErrTypeUsage:
		return "The client was used without an open session. Call Open before fetching."

	case ErrTypeConnection:
		hint := []string{"Communication with the bridge failed."}

		switch bErr.NetworkSubtype {
		case NetworkErrorConnectionRefused:
			hint = append(hint, "The bridge refused the connection.",
				"Troubleshooting:",
				"  • Verify the host is the bridge and not another device",
				"  • Power-cycle the bridge")
		case NetworkErrorDNS:
			hint = append(hint, "Could not resolve the bridge hostname.",
				"Troubleshooting:",
				"  • Use the IP address instead of the hostname",
				"  • Run 'iometer scan' to discover bridges via mDNS")
		case NetworkErrorHostUnreachable, NetworkErrorNetworkUnreachable:
			hint = append(hint, "The bridge is not reachable on the network.",
				"Troubleshooting:",
				"  • Verify the bridge IP address is correct",
				"  • Check that you're on the same network as the bridge",
				"  • Try pinging the bridge: ping "+bErr.Host)
		case NetworkErrorHTTPStatus:
			hint = append(hint, fmt.Sprintf("The bridge answered with HTTP %d.", bErr.StatusCode),
				"Troubleshooting:",
				"  • Try rebooting the bridge",
				"  • Check if a firmware update is available")
		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the bridge is powered on")
		}

		return strings.Join(hint, "\n")

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	bErr, ok := asBridgeError(err)
	if !ok {
		return err.Error()
	}

	switch bErr.Type {
	case ErrTypeTimeout:
		return "Bridge not responding (timeout)"
	case ErrTypeNoReadings:
		return "No readings available"
	case ErrTypeNoStatus:
		return "No status available"
	case ErrTypeFormat:
		return "Failed to parse bridge response"
	case ErrTypeUsage:
		return "Client session not open"
	case ErrTypeConnection:
		switch bErr.NetworkSubtype {
		case NetworkErrorConnectionRefused:
			return "Bridge refused connection"
		case NetworkErrorDNS:
			return "Cannot resolve bridge hostname"
		case NetworkErrorHostUnreachable:
			return "Bridge unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable - check WiFi connection"
		case NetworkErrorHTTPStatus:
			return fmt.Sprintf("Bridge error (HTTP %d)", bErr.StatusCode)
		default:
			return "Network error - check connection"
		}
	default:
		return bErr.Message
	}
}
