package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(code string, err error) *Error   { return New(http.StatusNotFound, code, err) }
func BadRequest(code string, err error) *Error { return New(http.StatusBadRequest, code, err) }
func Conflict(code string, err error) *Error   { return New(http.StatusConflict, code, err) }

// As extracts an *Error from err, defaulting to a 500 with the given code.
func As(err error, code string) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, code, err)
}
