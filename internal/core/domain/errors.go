package domain

import (
	"errors"
	"fmt"
)

var (
	// Transport
	ErrNetwork = errors.New("network error")

	// Registration / session
	ErrAuthTokenMissing    = errors.New("registration succeeded but no access token was returned")
	ErrAuthTokenFormat     = errors.New("access token is malformed")
	ErrStorageWrite        = errors.New("could not write to session storage")
	ErrStorageVerification = errors.New("session storage did not confirm the write")
	ErrSessionLost         = errors.New("session was lost, please sign in again")
	ErrSessionExpired      = errors.New("session expired")

	// Remote
	ErrRemote           = errors.New("remote service error")
	ErrRemoteValidation = errors.New("request rejected by server")
	ErrRateLimited      = errors.New("too many requests")

	// OTP
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrChallengeExpired   = errors.New("verification code expired or not found")
	ErrVerificationFailed = errors.New("verification failed")

	// Client-side
	ErrValidation   = errors.New("validation failed")
	ErrFileTooLarge = errors.New("file too large")
	ErrBusy         = errors.New("operation already in progress")
)

// RemoteError is a non-2xx answer from one of the remote APIs. Message is the
// server supplied text and is safe to show to the user verbatim.
type RemoteError struct {
	Status  int
	Message string
	Kind    error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("remote error (status %d)", e.Status)
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// WithKind returns a copy of e classified as kind.
func (e *RemoteError) WithKind(kind error) *RemoteError {
	cp := *e
	cp.Kind = kind
	return &cp
}

// ValidationError is a client-side field check failure. It never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UserMessage picks the text to surface for err: the server message for remote
// errors, the field reason for validation errors, err.Error() otherwise.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if errors.Is(err, ErrNetwork) {
		return "Network error. Check your connection and try again."
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
