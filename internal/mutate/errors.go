package mutate

import (
	"errors"
	"fmt"
)

var ErrEmptyName = errors.New("stream name is required")

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// WriteError wraps a failed server write (transport, validation or a
// malformed response).
type WriteError struct {
	Op  OpKind
	Err error
}

func (e *WriteError) Error() string {
	switch e.Op {
	case OpAdd:
		return fmt.Sprintf("Failed to add stream: %v", e.Err)
	case OpDelete:
		return fmt.Sprintf("Failed to delete stream: %v", e.Err)
	default:
		return fmt.Sprintf("write failed: %v", e.Err)
	}
}

func (e *WriteError) Unwrap() error { return e.Err }
