package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed wizard error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so cloned errors still satisfy errors.Is against the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// User-facing rejections. Messages are fixed literals shown to the parent as-is.
var (
	ErrFileTooLarge      = New("FILE_TOO_LARGE", http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 5 MB.")
	ErrUnsupportedFormat = New("UNSUPPORTED_FORMAT", http.StatusUnsupportedMediaType, "Unsupported file format. Allowed: jpg, jpeg, png, gif, pdf.")
	ErrIncompleteUpload  = New("INCOMPLETE_UPLOAD", http.StatusUnprocessableEntity, "Please upload all three drawings.")
	ErrIncompleteForm    = New("INCOMPLETE_FORM", http.StatusUnprocessableEntity, "Please fill in all required fields.")
	ErrNotImplemented    = New("NOT_IMPLEMENTED", http.StatusNotImplemented, "This feature is not implemented yet.")
)

// Predefined errors for protocol and infrastructure failures.
var (
	ErrInvalidTransition = New("INVALID_TRANSITION", http.StatusConflict, "transition not allowed from the current step")
	ErrUnknownSlot       = New("UNKNOWN_SLOT", http.StatusBadRequest, "unknown upload slot")
	ErrUnknownField      = New("UNKNOWN_FIELD", http.StatusBadRequest, "unknown questionnaire field")
	ErrSessionNotFound   = New("SESSION_NOT_FOUND", http.StatusUnauthorized, "wizard session not found")
	ErrSessionClosed     = New("SESSION_CLOSED", http.StatusGone, "wizard session closed")
	ErrPreviewNotFound   = New("PREVIEW_NOT_FOUND", http.StatusNotFound, "preview not found")
	ErrForbidden         = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal          = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss         = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithField returns a copy of err pointing at the offending input field.
func WithField(err *Error, field string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Field = field
	return &clone
}
