package shared

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors (systemic; a transfer aborts on these)
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// Transient errors (retryable under the backoff policy)
	ErrRateLimited = fmt.Errorf("rate limited")
	ErrTransient   = fmt.Errorf("transient failure")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrInvalidTrack    = fmt.Errorf("invalid track")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// IsTransient reports whether err is retryable (rate limiting or a transient network failure).
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}

// IsAuth reports whether err is an authentication failure.
//
// Auth failures are systemic: every subsequent call would fail the same way,
// so callers abort rather than retry.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrTokenExpired)
}

// ClassifyStatus wraps an HTTP status code from a catalog API into the error taxonomy.
// Returns nil for 2xx.
func ClassifyStatus(service string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 401 || status == 403:
		return fmt.Errorf("%w: %s returned status %d", ErrAuthFailed, service, status)
	case status == 429:
		return fmt.Errorf("%w: %s returned status %d", ErrRateLimited, service, status)
	case status >= 500:
		return fmt.Errorf("%w: %s returned status %d", ErrTransient, service, status)
	default:
		return fmt.Errorf("%w: %s returned status %d", ErrAPIRequest, service, status)
	}
}

// ClassifyRequestError wraps a transport-level error (DNS, connection reset, timeout) as transient,
// unless the context was cancelled.
func ClassifyRequestError(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s request failed: %v", ErrTransient, service, err)
}
