// Package domainerrors defines the coded error vocabulary shared by services,
// stores, and transport. Handlers translate codes to HTTP statuses; services
// branch on codes instead of matching error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. Codes are part of the API surface: they
// appear in error envelopes, so renaming one is a breaking change.
type Code string

const (
	CodeInvalidInput      Code = "invalid_input"
	CodeBadRequest        Code = "bad_request"
	CodeUnauthorized      Code = "unauthorized"
	CodeNotFound          Code = "not_found"
	CodeStorageFailed     Code = "storage_failed"
	CodeProviderFailed    Code = "provider_failed"
	CodePersistenceFailed Code = "persistence_failed"
	CodeInternal          Code = "internal_error"
)

// Error is a coded domain error. Message is safe to show to operators; whether
// it reaches clients is decided at the transport layer per code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in this package.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err. Internal-class errors return an
// empty message so raw detail never leaks through a lazy caller.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps an error code to the HTTP status the transport layer
// should use. Processing failures (storage, provider, persistence) map to 400:
// the client contract signals them in-band as a rejection, never as a 5xx.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest, CodeStorageFailed, CodeProviderFailed, CodePersistenceFailed:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
