package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response. Detail comes from the {"detail": ...} body
// when the server sent one.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

func newError(status int, body []byte) error {
	var payload struct {
		Detail any `json:"detail"`
	}
	e := &Error{Status: status}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch d := payload.Detail.(type) {
		case string:
			e.Detail = d
		case nil:
		default:
			// Validation errors arrive as structured detail; keep them readable.
			if b, err := json.Marshal(d); err == nil {
				e.Detail = string(b)
			}
		}
	}
	return e
}

// MalformedResponseError is a 2xx response whose body could not be used.
type MalformedResponseError struct {
	What string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response (%s): %v", e.What, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}
