package client

import (
	"errors"
	"fmt"

	"github.com/naveenspark/investa/pkg/domain"
)

// Reasons the backend rejects an auth request. Match them with errors.Is.
var (
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrCodeMismatch       = errors.New("verification code mismatch")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrTokenInvalid       = errors.New("token invalid or expired")
)

// TransportError is a network failure (StatusCode 0) or a non-2xx response from the API.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("transport: %v", e.Err)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError is a request the backend understood and refused.
type AuthError struct {
	Reason     error
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%v: %s", e.Reason, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Reason
}

// IsStatus returns true if err (or any wrapped error) carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode == code
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr.StatusCode == code
	}
	return false
}

// Message returns text suitable for showing to a user: the backend's own message
// when it sent one, otherwise a description of the failure kind.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		if authErr.Message != "" {
			return authErr.Message
		}
		return authErr.Reason.Error()
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		if tErr.StatusCode == 0 {
			return "could not reach the server"
		}
		if tErr.Message != "" {
			return tErr.Message
		}
		return fmt.Sprintf("server error (HTTP %d)", tErr.StatusCode)
	}
	return err.Error()
}

// classify turns a TransportError into an AuthError or ValidationError when the
// status is one the operation defines a meaning for.
func classify(err error, rules map[int]error) error {
	var tErr *TransportError
	if !errors.As(err, &tErr) || tErr.StatusCode == 0 {
		return err
	}
	reason, ok := rules[tErr.StatusCode]
	if !ok {
		return err
	}
	if reason == errServerValidation {
		msg := tErr.Message
		if msg == "" {
			msg = "request rejected by server"
		}
		return &domain.ValidationError{Message: msg}
	}
	return &AuthError{Reason: reason, StatusCode: tErr.StatusCode, Message: tErr.Message}
}

// errServerValidation marks statuses that map to a domain.ValidationError.
var errServerValidation = errors.New("server validation")
