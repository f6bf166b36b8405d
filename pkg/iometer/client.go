package iometer

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultRequestTimeout bounds each attempt of a bridge request
	DefaultRequestTimeout = 5 * time.Second

	// DefaultMaxAttempts is the number of attempts per request
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the backoff unit; attempt n waits n*RetryDelay
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies this client to the bridge
	DefaultUserAgent = "GoIOmeter/0.1"

	readingPath = "v1/reading"
	statusPath  = "v1/status"
)

// Client talks to one IOmeter bridge over its local HTTP API.
//
// A Client must be opened before use and closed afterwards:
//
//	client := iometer.NewClient("192.168.1.100")
//	if err := client.Open(); err != nil {
//	    return err
//	}
//	defer client.Close()
type Client struct {
	// Host is the bridge hostname or IP address, optionally with a port
	Host string

	// RequestTimeout bounds each attempt (default: 5s)
	RequestTimeout time.Duration

	// RetryDelay is the linear backoff unit between attempts (default: 500ms)
	RetryDelay time.Duration

	// MaxAttempts is the number of attempts per request (default: 3)
	MaxAttempts int

	// UserAgent is sent with every request
	UserAgent string

	// HTTPClient, when set before Open, is used as the session instead of
	// a freshly created one
	HTTPClient *http.Client

	// Logger receives per-attempt diagnostics (default: no-op)
	Logger *zap.Logger

	// session is the open HTTP session, nil when closed
	session *http.Client

	// sessionMutex protects session
	sessionMutex sync.RWMutex
}

// NewClient creates a client for the bridge at host. The client has no
// session until Open is called.
func NewClient(host string) *Client {
	return &Client{
		Host:           host,
		RequestTimeout: DefaultRequestTimeout,
		RetryDelay:     DefaultRetryDelay,
		MaxAttempts:    DefaultMaxAttempts,
		UserAgent:      DefaultUserAgent,
		Logger:         zap.NewNop(),
	}
}

// SetTimeout sets the per-attempt request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.RequestTimeout = timeout
}

// SetRetryDelay sets the backoff unit between attempts
func (c *Client) SetRetryDelay(delay time.Duration) {
	c.RetryDelay = delay
}

// SetLogger sets the logger used for request diagnostics
func (c *Client) SetLogger(logger *zap.Logger) {
	c.Logger = logger
}

// Open acquires the HTTP session. Opening an open client is a no-op.
func (c *Client) Open() error {
	if c.Host == "" {
		return NewUsageError("bridge host is required")
	}

	c.sessionMutex.Lock()
	defer c.sessionMutex.Unlock()

	if c.session != nil {
		return nil
	}

	if c.HTTPClient != nil {
		c.session = c.HTTPClient
	} else {
		c.session = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	}

	c.logger().Debug("Bridge session opened", zap.String("host", c.Host))
	return nil
}

// Close releases the HTTP session. Closing a closed client is a no-op.
func (c *Client) Close() error {
	c.sessionMutex.Lock()
	defer c.sessionMutex.Unlock()

	if c.session == nil {
		return nil
	}

	c.session.CloseIdleConnections()
	c.session = nil

	c.logger().Debug("Bridge session closed", zap.String("host", c.Host))
	return nil
}

// IsOpen reports whether the client has an active session
func (c *Client) IsOpen() bool {
	return c.currentSession() != nil
}

// WithSession opens a client for host, runs fn and closes the client again,
// whether fn succeeds or not. configure, if non-nil, runs before Open.
func WithSession(ctx context.Context, host string, configure func(*Client), fn func(context.Context, *Client) error) error {
	client := NewClient(host)
	if configure != nil {
		configure(client)
	}

	if err := client.Open(); err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return fn(ctx, client)
}

// GetCurrentReading fetches the latest meter reading.
// A 404 from the bridge is reported as a NoReadings error.
func (c *Client) GetCurrentReading(ctx context.Context) (*Reading, error) {
	body, err := c.fetch(ctx, readingPath)
	if err != nil {
		return nil, notFoundAs(err, ErrTypeNoReadings, "No readings available")
	}
	return ParseReading(body)
}

// GetCurrentStatus fetches the bridge and core module status.
// A 404 from the bridge is reported as a NoStatus error.
func (c *Client) GetCurrentStatus(ctx context.Context) (*Status, error) {
	body, err := c.fetch(ctx, statusPath)
	if err != nil {
		return nil, notFoundAs(err, ErrTypeNoStatus, "No status available")
	}
	return ParseStatus(body)
}

// notFoundAs maps a connection error caused by HTTP 404 to typ
func notFoundAs(err error, typ ErrorType, message string) error {
	bErr, ok := asBridgeError(err)
	if !ok || bErr.Type != ErrTypeConnection || bErr.StatusCode != http.StatusNotFound {
		return err
	}
	return newNotFoundError(typ, message, bErr)
}

func (c *Client) currentSession() *http.Client {
	c.sessionMutex.RLock()
	defer c.sessionMutex.RUnlock()
	return c.session
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Client) requestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout
}

func (c *Client) maxAttempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}
