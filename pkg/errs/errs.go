// Package errs carries the service-wide error taxonomy. Every domain
// error is an *Error with a stable code; the HTTP boundary maps codes
// to statuses and serializes the details map into the response body.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeNotFound                Code = "NOT_FOUND"
	CodeInvalidArgument         Code = "INVALID_ARGUMENT"
	CodePrivateChannelImmutable Code = "PRIVATE_CHANNEL_IMMUTABLE"
	CodeConflict                Code = "CONFLICT"
	CodeStorageFailure          Code = "STORAGE_FAILURE"
	CodeInternal                Code = "INTERNAL"
)

type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches by code so callers can test against bare code errors,
// e.g. errors.Is(err, &Error{Code: CodeNotFound}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause while keeping the code visible to errors.Is.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func NotFound(entity string, id any) *Error {
	return Newf(CodeNotFound, "%s not found", entity).WithDetail("id", fmt.Sprint(id))
}

func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

func PrivateChannelImmutable(channelID any) *Error {
	return New(CodePrivateChannelImmutable, "private channel cannot be updated").
		WithDetail("channelId", fmt.Sprint(channelID))
}

func Conflict(message string) *Error {
	return New(CodeConflict, message)
}

func StorageFailure(cause error) *Error {
	return Wrap(CodeStorageFailure, "blob storage operation failed", cause)
}

func Internal(cause error) *Error {
	return Wrap(CodeInternal, "internal error", cause)
}

// CodeOf extracts the taxonomy code, defaulting to INTERNAL for errors
// that did not originate in the domain layer.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to the status the API boundary responds with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodePrivateChannelImmutable:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeStorageFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
