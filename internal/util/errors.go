package util

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse означает, что тело ответа сервера не удалось
// разобрать как канонический envelope.
var ErrMalformedResponse = errors.New("malformed response body")

// ResponseError carries the HTTP status and the server-provided message.
// Fields holds per-field validation errors when the server returns them.
type ResponseError struct {
	Msg    string
	Status int
	Fields map[string]string
}

func (e ResponseError) Error() string { return e.Msg }

func NewResponseError(status int, format string, args ...interface{}) error {
	return ResponseError{
		Msg:    fmt.Sprintf(format, args...),
		Status: status,
	}
}

func NewValidationError(status int, msg string, fields map[string]string) error {
	return ResponseError{
		Msg:    msg,
		Status: status,
		Fields: fields,
	}
}
