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
	"testing"
)

func TestClassifyAttemptError(t *testing.T) {
	dialErr := func(errno syscall.Errno) error {
		return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", errno)}
	}

	tests := []struct {
		name        string
		err         error
		wantType    ErrorType
		wantSubtype NetworkErrorSubtype
	}{
		{name: "deadline", err: fmt.Errorf("get: %w", context.DeadlineExceeded), wantType: ErrTypeTimeout, wantSubtype: NetworkErrorTimeout},
		{name: "dns", err: &net.DNSError{Name: "iometer.local", Err: "no such host"}, wantType: ErrTypeConnection, wantSubtype: NetworkErrorDNS},
		{name: "refused", err: dialErr(syscall.ECONNREFUSED), wantType: ErrTypeConnection, wantSubtype: NetworkErrorConnectionRefused},
		{name: "host unreachable", err: dialErr(syscall.EHOSTUNREACH), wantType: ErrTypeConnection, wantSubtype: NetworkErrorHostUnreachable},
		{name: "network unreachable", err: dialErr(syscall.ENETUNREACH), wantType: ErrTypeConnection, wantSubtype: NetworkErrorNetworkUnreachable},
		{name: "other", err: errors.New("connection reset"), wantType: ErrTypeConnection, wantSubtype: NetworkErrorGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bErr := classifyAttemptError(tt.err, "192.168.1.100")
			if bErr.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", bErr.Type, tt.wantType)
			}
			if bErr.NetworkSubtype != tt.wantSubtype {
				t.Errorf("NetworkSubtype = %v, want %v", bErr.NetworkSubtype, tt.wantSubtype)
			}
			if !bErr.Retryable {
				t.Error("transport errors should be retryable")
			}
			if bErr.Host != "192.168.1.100" {
				t.Errorf("Host = %s, want 192.168.1.100", bErr.Host)
			}
			if !errors.Is(bErr, tt.err) {
				t.Error("classified error should wrap the cause")
			}
		})
	}

	if classifyAttemptError(nil, "h") != nil {
		t.Error("classifyAttemptError(nil) should return nil")
	}
}

func TestNewStatusError(t *testing.T) {
	tests := []struct {
		code          int
		wantRetryable bool
	}{
		{code: http.StatusBadRequest, wantRetryable: false},
		{code: http.StatusNotFound, wantRetryable: false},
		{code: http.StatusRequestTimeout, wantRetryable: true},
		{code: http.StatusTooManyRequests, wantRetryable: true},
		{code: http.StatusInternalServerError, wantRetryable: true},
		{code: http.StatusServiceUnavailable, wantRetryable: true},
		{code: http.StatusMovedPermanently, wantRetryable: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.code), func(t *testing.T) {
			bErr := newStatusError(tt.code, "192.168.1.100")
			if bErr.Type != ErrTypeConnection {
				t.Errorf("Type = %v, want Connection Error", bErr.Type)
			}
			if bErr.StatusCode != tt.code {
				t.Errorf("StatusCode = %d, want %d", bErr.StatusCode, tt.code)
			}
			if bErr.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", bErr.Retryable, tt.wantRetryable)
			}
			if IsRetryable(bErr) != tt.wantRetryable {
				t.Errorf("IsRetryable() = %v, want %v", IsRetryable(bErr), tt.wantRetryable)
			}
		})
	}
}

func TestBridgeError_Sentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		is       func(error) bool
	}{
		{name: "connection", err: newStatusError(500, "h"), sentinel: ErrConnection, is: IsConnectionError},
		{name: "timeout", err: classifyAttemptError(context.DeadlineExceeded, "h"), sentinel: ErrTimeout, is: IsTimeoutError},
		{name: "no readings", err: newNotFoundError(ErrTypeNoReadings, "No readings available", newStatusError(404, "h")), sentinel: ErrNoReadings, is: IsNoReadingsError},
		{name: "no status", err: newNotFoundError(ErrTypeNoStatus, "No status available", newStatusError(404, "h")), sentinel: ErrNoStatus, is: IsNoStatusError},
		{name: "format", err: NewFormatError("bad", nil), sentinel: ErrFormat, is: IsFormatError},
		{name: "usage", err: NewUsageError("closed"), sentinel: ErrUsage, is: IsUsageError},
	}

	all := []error{ErrConnection, ErrTimeout, ErrNoReadings, ErrNoStatus, ErrFormat, ErrUsage}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("fetching: %w", tt.err)

			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false, want true", tt.err)
			}
			if !tt.is(wrapped) {
				t.Error("Is* predicate should see through wrapping")
			}
			for _, other := range all {
				if other != tt.sentinel && errors.Is(tt.err, other) {
					t.Errorf("error should not match sentinel %v", other)
				}
			}
		})
	}
}

func TestBridgeError_Error(t *testing.T) {
	cause := errors.New("eof")
	withCause := &BridgeError{Type: ErrTypeConnection, Message: "read failed", Err: cause}
	if got := withCause.Error(); got != "Connection Error: read failed (caused by: eof)" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(withCause, cause) {
		t.Error("Unwrap() should expose the cause")
	}

	plain := NewUsageError("client session not open")
	if got := plain.Error(); got != "Usage Error: client session not open" {
		t.Errorf("Error() = %q", got)
	}
}

func TestNewNotFoundError(t *testing.T) {
	cause := newStatusError(http.StatusNotFound, "192.168.1.100")
	cause.Attempts = 1

	bErr := newNotFoundError(ErrTypeNoReadings, "No readings available", cause)
	if bErr.Host != cause.Host || bErr.Attempts != 1 {
		t.Errorf("not-found error should keep host and attempts, got %+v", bErr)
	}
	if errors.Is(bErr, ErrConnection) {
		t.Error("not-found error should not match ErrConnection")
	}
}

func TestGetTroubleshootingHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "cancelled", err: fmt.Errorf("aborted: %w", context.Canceled), want: "cancelled"},
		{name: "timeout", err: classifyAttemptError(context.DeadlineExceeded, "h"), want: "--timeout"},
		{name: "no readings", err: &BridgeError{Type: ErrTypeNoReadings}, want: "PIN"},
		{name: "no status", err: &BridgeError{Type: ErrTypeNoStatus}, want: "starting up"},
		{name: "format", err: NewFormatError("bad", nil), want: "firmware"},
		{name: "dns", err: classifyAttemptError(&net.DNSError{Name: "x"}, "x"), want: "iometer scan"},
		{name: "http status", err: newStatusError(503, "h"), want: "HTTP 503"},
		{name: "unreachable", err: &BridgeError{Type: ErrTypeConnection, NetworkSubtype: NetworkErrorHostUnreachable, Host: "10.0.0.9"}, want: "ping 10.0.0.9"},
		{name: "foreign", err: errors.New("x"), want: "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetTroubleshootingHint(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("GetTroubleshootingHint() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestGetShortErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: classifyAttemptError(context.DeadlineExceeded, "h"), want: "Bridge not responding (timeout)"},
		{err: newStatusError(500, "h"), want: "Bridge error (HTTP 500)"},
		{err: &BridgeError{Type: ErrTypeNoReadings}, want: "No readings available"},
		{err: &BridgeError{Type: ErrTypeNoStatus}, want: "No status available"},
		{err: NewFormatError("bad", nil), want: "Failed to parse bridge response"},
		{err: NewUsageError("closed"), want: "Client session not open"},
		{err: errors.New("plain"), want: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := GetShortErrorMessage(tt.err); got != tt.want {
				t.Errorf("GetShortErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
