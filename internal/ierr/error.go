package ierr

import (
	"encoding/json"
	"errors"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeInvalidArgument    ErrorCode = "InvalidArgument"
	ErrorCodeNotFound           ErrorCode = "NotFound"
	ErrorCodeUnrecognizedAction ErrorCode = "UnrecognizedAction"
	ErrorCodeUnrecognizedEvent  ErrorCode = "UnrecognizedEvent"
	ErrorCodeInternal           ErrorCode = "Internal"
)

type Error struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`

	cause error
}

func New(code ErrorCode, cause error) Error {
	return Error{
		Code:    code,
		Message: cause.Error(),
		cause:   cause,
	}
}

func Newf(code ErrorCode, message string) Error {
	return New(code, errors.New(message))
}

func (e Error) Error() string {
	return string(e.Code) + ": " + e.cause.Error()
}

func (e Error) Unwrap() error {
	return e.cause
}

// StatusCode maps the error code to the status returned to invokers.
func (e Error) StatusCode() int {
	switch e.Code {
	case ErrorCodeInvalidArgument, ErrorCodeUnrecognizedAction:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func IsCode(err error, code ErrorCode) bool {
	var target Error
	if errors.As(err, &target) {
		return target.Code == code
	}

	return false
}
