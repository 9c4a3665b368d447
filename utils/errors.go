package utils

import (
	"fmt"
	"net/http"
)

// HTTPError is a client-facing failure: a status code and a free-text
// message rendered as {"message": ...}.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(status int, format string, args ...interface{}) *HTTPError {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, format, args...)
}

func NotFound(format string, args ...interface{}) *HTTPError {
	return NewHTTPError(http.StatusNotFound, format, args...)
}
