package main

import (
	"database/sql/driver"
	"errors"
	"net"
	"net/http"

	"github.com/lib/pq"
)

// Error taxonomy for the matching engine. Handlers translate these to
// HTTP via statusForError; everything else is a 500.
var (
	// ErrValidation covers bad input: self-like, empty message, bad filter.
	ErrValidation = errors.New("validation error")

	// ErrNotFound covers unknown users and matches.
	ErrNotFound = errors.New("not found")

	// ErrAuthorization covers a non-participant touching a match.
	ErrAuthorization = errors.New("not a participant")

	// ErrConflict marks a duplicate-match race. It is resolved inside
	// SubmitLike and never escapes to a caller as a failure.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable covers unreachable storage or transport.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrRateLimited is returned when the like limiter refuses a submission.
	ErrRateLimited = errors.New("too many likes")
)

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden, "not_participant"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case isUnavailable(err):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// isUnavailable distinguishes connectivity failures from query-level
// ones: a dead connection, a network error underneath the driver, or a
// postgres class 08 (connection exception) all mean the dependency is
// down, not that the request was bad.
func isUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "08" {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
