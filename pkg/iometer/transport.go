package iometer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// fetch performs one logical GET of http://{host}/{path}.
// Each attempt is bounded by RequestTimeout; failed retryable attempts are
// retried up to MaxAttempts with a linear backoff of RetryDelay*attempt.
// Cancelling ctx aborts the in-flight attempt or the backoff sleep and
// returns ctx's error without further retries.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	session := c.currentSession()
	if session == nil {
		return nil, NewUsageError("client session not open (call Open first)")
	}

	target := c.endpointURL(path)
	logger := c.logger().With(zap.String("host", c.Host), zap.String("path", path))

	var lastErr *BridgeError
	attempts := 0

	for attempt := 1; attempt <= c.maxAttempts(); attempt++ {
		attempts = attempt

		body, err := c.fetchAttempt(ctx, session, target)
		if err == nil {
			logger.Debug("Bridge request succeeded",
				zap.Int("attempt", attempt),
				zap.Int("bytes", len(body)))
			return body, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request to %s aborted: %w", target, ctxErr)
		}

		lastErr = err
		logger.Warn("Bridge request attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", c.maxAttempts()),
			zap.Bool("retryable", err.Retryable),
			zap.Error(err))

		if !err.Retryable || attempt == c.maxAttempts() {
			break
		}

		delay := time.Duration(attempt) * c.RetryDelay
		logger.Debug("Retrying bridge request", zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("request to %s aborted: %w", target, ctx.Err())
		case <-timer.C:
		}
	}

	return nil, attemptsExhausted(lastErr, attempts, c.maxAttempts())
}

// fetchAttempt performs a single GET bounded by RequestTimeout
func (c *Client) fetchAttempt(ctx context.Context, session *http.Client, target string) ([]byte, *BridgeError) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &BridgeError{
			Type:    ErrTypeConnection,
			Message: "failed to create GET request",
			Host:    c.Host,
			Err:     err,
		}
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := session.Do(req)
	if err != nil {
		return nil, classifyAttemptError(err, c.Host)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, newStatusError(resp.StatusCode, c.Host)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyAttemptError(err, c.Host)
	}

	return body, nil
}

// attemptsExhausted builds the error surfaced after the last attempt. Its
// type follows the last failure: Timeout for a timeout, Connection otherwise.
func attemptsExhausted(last *BridgeError, attempts, maxAttempts int) *BridgeError {
	final := *last
	final.Attempts = attempts

	var cause string
	switch {
	case last.Type == ErrTypeTimeout:
		cause = "Timeout"
	case last.StatusCode != 0:
		cause = fmt.Sprintf("%d", last.StatusCode)
	default:
		cause = last.Message
	}

	if attempts == maxAttempts {
		final.Message = fmt.Sprintf("all %d attempts failed: %s", attempts, cause)
	} else {
		final.Message = fmt.Sprintf("attempt %d of %d failed and is not retryable: %s", attempts, maxAttempts, cause)
	}
	return &final
}

// endpointURL builds http://{host}/{path}
func (c *Client) endpointURL(path string) string {
	u := url.URL{
		Scheme: "http",
		Host:   c.Host,
		Path:   "/" + strings.TrimPrefix(path, "/"),
	}
	return u.String()
}
