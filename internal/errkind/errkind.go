// Package errkind names the recoverable failure categories reported to
// clients.
package errkind

import (
	"errors"

	"github.com/hray3182/ClassSync/internal/calendar"
	"github.com/hray3182/ClassSync/internal/repository"
	"github.com/hray3182/ClassSync/internal/rrule"
)

type Kind string

const (
	None                 Kind = ""
	NoMatchingDate       Kind = "no_matching_date"
	DuplicateKey         Kind = "duplicate_key"
	UnsupportedFrequency Kind = "unsupported_frequency"
	RemoteCallFailed     Kind = "remote_call_failed"
	AuthExpired          Kind = "auth_expired"
	NotFound             Kind = "not_found"
	Invalid              Kind = "invalid"
	Internal             Kind = "internal"
)

// Invalid input errors are tagged by wrapping ErrInvalid.
var ErrInvalid = errors.New("invalid input")

// Of classifies err. Order matters: an auth failure inside a remote call is
// reported as AuthExpired.
func Of(err error) Kind {
	switch {
	case err == nil:
		return None
	case errors.Is(err, calendar.ErrAuthExpired):
		return AuthExpired
	case errors.Is(err, rrule.ErrNoMatchingDate):
		return NoMatchingDate
	case errors.Is(err, repository.ErrDuplicateKey):
		return DuplicateKey
	case errors.Is(err, rrule.ErrUnsupportedFrequency):
		return UnsupportedFrequency
	case errors.Is(err, calendar.ErrRemoteCallFailed):
		return RemoteCallFailed
	case errors.Is(err, calendar.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return NotFound
	case errors.Is(err, ErrInvalid),
		errors.Is(err, rrule.ErrNoDays),
		errors.Is(err, rrule.ErrInvalidRange):
		return Invalid
	default:
		return Internal
	}
}

// Attempts returns the per-endpoint failures carried by err, if any.
func Attempts(err error) []calendar.Attempt {
	var rce *calendar.RemoteCallError
	if errors.As(err, &rce) {
		return rce.Attempts
	}
	return nil
}
