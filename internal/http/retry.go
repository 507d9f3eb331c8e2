package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
)

// RetryableStatus reports whether a response status is worth retrying:
// server errors and 429.
func RetryableStatus(statusCode int) bool {
	return statusCode >= constants.HTTPStatusInternalServerError ||
		statusCode == constants.HTTPStatusTooManyRequests
}

// ShouldRetry decides whether to retry after a failed attempt, in one call.
//
// attempts is the number of retries already made. Retries stop once it
// reaches maxRetries. A connection-level err is always retried; otherwise the
// status decides.
//
// Client does not call it: requests go through CheckRetry with the bound
// enforced by retryablehttp's RetryMax, which together make the same
// decision.
func ShouldRetry(attempts, maxRetries, statusCode int, err error) bool {
	if attempts >= maxRetries {
		return false
	}

	return retryable(statusCode, err)
}

func retryable(statusCode int, err error) bool {
	if err != nil {
		return isConnectionError(err)
	}

	return RetryableStatus(statusCode)
}

// RetryDelay returns the wait before retry number attempt (1-based):
// step * attempt.
func RetryDelay(step time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	return step * time.Duration(attempt)
}

// CheckRetry is the retryablehttp.CheckRetry policy. The retry count is
// enforced by retryablehttp's RetryMax.
func CheckRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	return retryable(statusCode, err), nil
}

// LinearBackoff returns a retryablehttp.Backoff waiting step, 2*step, ...
// retryablehttp numbers retries from 0.
func LinearBackoff(step time.Duration) func(minWait, maxWait time.Duration, attemptNum int, resp *http.Response) time.Duration {
	return func(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return RetryDelay(step, attemptNum+1)
	}
}

// isConnectionError reports failures where no response was received: DNS
// errors, dial and read errors, empty replies, and timeouts.
func isConnectionError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
