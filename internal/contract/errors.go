package contract

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable error codes, carried in the envelope's error
// field so clients can branch without parsing messages.
type ErrorCode string

const (
	CodeValidation ErrorCode = "VALIDATION_FAILED"
	CodeAuth       ErrorCode = "AUTHENTICATION_REQUIRED"
	CodeForbidden  ErrorCode = "AUTHORIZATION_DENIED"
	CodeNotFound   ErrorCode = "NOT_FOUND"
	CodeConflict   ErrorCode = "CONFLICT"
	CodeInternal   ErrorCode = "INTERNAL"
)

func (c ErrorCode) Status() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeAuth:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the taxonomy code from err; anything unrecognized is
// INTERNAL so persistence/transport details never leak to callers.
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeInternal
}
