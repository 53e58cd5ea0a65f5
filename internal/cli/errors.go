package cli

import (
	"errors"
	"fmt"

	"spacenav/internal/api"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// apiErr turns backend 404s into notFoundError for the thing the command
// addressed; other errors pass through.
func apiErr(err error, kind, id string) error {
	if api.IsNotFound(err) {
		return errNotFound(kind, id)
	}
	return err
}

var errMissingSite = errors.New("no site selected; pass --site <id> (see `spacenav sites`)")
