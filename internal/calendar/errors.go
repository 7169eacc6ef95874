package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrAuthExpired means the OAuth token is gone or was rejected and the
	// user has to sign in again.
	ErrAuthExpired      = errors.New("authentication expired")
	ErrNotFound         = errors.New("remote event not found")
	ErrRemoteCallFailed = errors.New("remote call failed")
)

// Attempt records one failed request.
type Attempt struct {
	Endpoint   string `json:"endpoint"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"response"`
}

// RemoteCallError carries every attempt made for one operation.
type RemoteCallError struct {
	Op       string
	Attempts []Attempt
}

func (e *RemoteCallError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %d %s", a.Endpoint, a.StatusCode, a.Message)
	}
	return fmt.Sprintf("%s failed after %d attempt(s): %s", e.Op, len(e.Attempts), strings.Join(parts, "; "))
}

func (e *RemoteCallError) Unwrap() error { return ErrRemoteCallFailed }

// StatusError is a non-success HTTP response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

const maxMessage = 512

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxMessage {
		return s[:maxMessage]
	}
	return s
}

// attemptFrom turns a failure into an Attempt. Timeouts are recorded as 408.
func attemptFrom(endpoint string, err error) Attempt {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return Attempt{Endpoint: endpoint, StatusCode: se.Code, Message: truncate(se.Message)}
	case errors.Is(err, context.DeadlineExceeded):
		return Attempt{Endpoint: endpoint, StatusCode: http.StatusRequestTimeout, Message: "request timed out"}
	default:
		return Attempt{Endpoint: endpoint, Message: truncate(err.Error())}
	}
}

func isAuthFailure(err error) bool {
	var se *StatusError
	return errors.Is(err, ErrAuthExpired) || (errors.As(err, &se) && se.Code == http.StatusUnauthorized)
}

// classify maps the result of a single-endpoint call onto the package errors.
func classify(op, endpoint string, err error) error {
	if err == nil {
		return nil
	}
	if isAuthFailure(err) {
		return fmt.Errorf("%s: %w", op, ErrAuthExpired)
	}
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusGone) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return &RemoteCallError{Op: op, Attempts: []Attempt{attemptFrom(endpoint, err)}}
}

// withTimeout runs call under a per-attempt deadline.
func withTimeout(ctx context.Context, timeout time.Duration, call func(ctx context.Context) error) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return call(ctx)
}

// tryEach calls endpoints in order until one succeeds. Every failure is kept.
// An auth failure stops the walk since no other endpoint will accept the
// token either. There is no retry of a single endpoint.
func tryEach[T any](ctx context.Context, op string, timeout time.Duration, endpoints []string,
	call func(ctx context.Context, endpoint string) (T, error)) (T, error) {
	var (
		zero     T
		attempts []Attempt
	)
	for _, endpoint := range endpoints {
		var out T
		err := withTimeout(ctx, timeout, func(ctx context.Context) error {
			var err error
			out, err = call(ctx, endpoint)
			return err
		})
		if err == nil {
			return out, nil
		}
		if isAuthFailure(err) {
			return zero, fmt.Errorf("%s: %w", op, ErrAuthExpired)
		}
		attempts = append(attempts, attemptFrom(endpoint, err))
		if ctx.Err() != nil {
			break
		}
	}
	return zero, &RemoteCallError{Op: op, Attempts: attempts}
}
