package social

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies adapter failures so the external scheduler can
// decide what to do without string-matching on messages. Soft errors are
// plausibly transient; hard ones are not worth retrying; auth errors are
// kept apart from soft so a scheduler doesn't hammer a server with bad
// credentials.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindHard
	KindSoft
	KindAuth
	KindNotFound
	KindBadRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindHard:
		return "hard"
	case KindSoft:
		return "soft"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not-found"
	case KindBadRequest:
		return "bad-request"
	}
	return "none"
}

// ConnError is the one error type every adapter operation returns.
// Payload carries the offending JSON for diagnostics when a parse fails.
type ConnError struct {
	Kind    ErrorKind
	Message string
	Payload string
	Wrapped error
}

func (e *ConnError) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Wrapped != nil {
		s += fmt.Sprintf(" [%s]", e.Wrapped)
	}
	return s
}

func (e *ConnError) Unwrap() error {
	return e.Wrapped
}

// WithPayload attaches the JSON that caused the failure.
func (e *ConnError) WithPayload(payload []byte) *ConnError {
	e.Payload = string(payload)
	return e
}

// WithWrapped attaches an underlying cause.
func (e *ConnError) WithWrapped(err error) *ConnError {
	e.Wrapped = err
	return e
}

func newError(kind ErrorKind, format string, args ...any) *ConnError {
	return &ConnError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Hard(format string, args ...any) *ConnError      { return newError(KindHard, format, args...) }
func Soft(format string, args ...any) *ConnError      { return newError(KindSoft, format, args...) }
func AuthError(format string, args ...any) *ConnError { return newError(KindAuth, format, args...) }
func NotFound(format string, args ...any) *ConnError  { return newError(KindNotFound, format, args...) }
func BadRequest(format string, args ...any) *ConnError {
	return newError(KindBadRequest, format, args...)
}

// KindOf extracts the classification from any error. Unclassified errors
// count as hard: if nobody said it was transient, don't retry it.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ce *ConnError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindHard
}

// FromStatus classifies an HTTP status into the taxonomy. 2xx yields nil.
func FromStatus(code int, url string) *ConnError {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return AuthError("status %d from %s", code, url)
	case code == http.StatusNotFound || code == http.StatusGone:
		return NotFound("status %d from %s", code, url)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return BadRequest("status %d from %s", code, url)
	case code >= 500:
		return Soft("status %d from %s", code, url)
	}
	return Hard("status %d from %s", code, url)
}
