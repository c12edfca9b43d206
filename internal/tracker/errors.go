// Package tracker holds what the issue-tracker backends share: the error
// taxonomy surfaced to the executor and the retry policy for transient
// failures.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a tracker failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not_found"
	KindRateLimit  Kind = "rate_limit"
	KindServer     Kind = "server"
	KindNetwork    Kind = "network"
	KindCanceled   Kind = "canceled"
	KindUnknown    Kind = "unknown"
)

// Error is returned by every tracker backend operation.
type Error struct {
	Kind       Kind
	Op         string // e.g. "create issue", "assign SCRUM-12"
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether retrying the same call may succeed.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindRateLimit, KindServer, KindNetwork:
		return true
	}
	return false
}

// KindForStatus maps an HTTP status code to a Kind.
func KindForStatus(code int) Kind {
	switch {
	case code == 0:
		return KindNetwork
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindPermission
	case code == http.StatusNotFound:
		return KindNotFound
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindValidation
	}
	return KindUnknown
}

// NewError classifies err using the HTTP response, which may be nil.
// An err that already is an *Error is returned unchanged.
func NewError(op string, resp *http.Response, err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}

	e := &Error{Op: op, Err: err}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		e.Kind = KindCanceled
		return e
	}
	if resp != nil {
		e.StatusCode = resp.StatusCode
		e.Kind = KindForStatus(resp.StatusCode)
		return e
	}

	// No response: the request never completed.
	e.Kind = KindNetwork
	return e
}

// IsTemporary reports whether err is a retryable tracker error.
func IsTemporary(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Temporary()
}

// KindOf returns the Kind of a tracker error, or KindUnknown.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}
