// Package apperrors defines the error taxonomy commands surface to callers.
// Every error carries a user-displayable message; commands are never retried
// automatically, a retry is a user-initiated re-submission.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a command failure.
type Kind int

const (
	// KindValidation is a client-detected input failure. No remote call
	// was attempted.
	KindValidation Kind = iota
	// KindAuth is a failure mapped from an auth provider error code.
	KindAuth
	// KindRemoteWrite is a failed or timed-out remote write.
	KindRemoteWrite
	// KindRemoteRead is a failed or timed-out remote read.
	KindRemoteRead
	// KindImageTooLarge is a client-side image size check failure.
	KindImageTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindRemoteWrite:
		return "remote_write"
	case KindRemoteRead:
		return "remote_read"
	case KindImageTooLarge:
		return "image_too_large"
	default:
		return "unknown"
	}
}

// Error is a classified, user-displayable command failure.
type Error struct {
	Kind    Kind
	Code    string // provider error code for auth failures, empty otherwise
	Message string // safe to show to the user
	Err     error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a client-detected input failure.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Auth reports an authentication failure with its provider code.
func Auth(code, message string) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: message}
}

// RemoteWrite wraps a failed remote write.
func RemoteWrite(err error) *Error {
	return &Error{Kind: KindRemoteWrite, Message: "Something went wrong", Err: err}
}

// RemoteRead wraps a failed remote read.
func RemoteRead(err error) *Error {
	return &Error{Kind: KindRemoteRead, Message: "Something went wrong", Err: err}
}

// ImageTooLarge reports an image exceeding its size ceiling.
func ImageTooLarge(limit int64) *Error {
	return &Error{
		Kind:    KindImageTooLarge,
		Message: fmt.Sprintf("Image must be smaller than %d MB", limit/(1<<20)),
	}
}

// KindOf extracts the Kind of a classified error, or -1 for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Kind(-1)
}

// IsValidation reports whether err is a client-detected input failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsImageTooLarge reports whether err is a size ceiling failure.
func IsImageTooLarge(err error) bool { return KindOf(err) == KindImageTooLarge }

// UserMessage returns the displayable message for a classified error, or a
// generic fallback for anything else.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong"
}
