package upstream

import (
	"fmt"

	"vidrelay/internal/util"
)

// maxErrorBody caps how much of an upstream response body is carried in an
// error message.
const maxErrorBody = 500

// Error indicates a non-2xx response from the provider or persistence
// service. The status code and response body are carried to the caller.
type Error struct {
	Op         string
	StatusCode int
	Body       string
}

// NewError builds an Error from a raw response body.
func NewError(op string, statusCode int, body []byte) *Error {
	return &Error{
		Op:         op,
		StatusCode: statusCode,
		Body:       util.Truncate(string(body), maxErrorBody),
	}
}

// Error returns a string representation of the upstream error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: upstream status %d: %s", e.Op, e.StatusCode, e.Body)
}
