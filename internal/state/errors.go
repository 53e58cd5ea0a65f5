package state

import (
	"errors"
	"fmt"
)

var ErrNoSite = errors.New("no site selected")

// FetchError is a failed spaces (or sites) listing. The message is also kept
// on State so the presentation can show it inline.
type FetchError struct {
	SiteID string
	Err    error
}

func (e *FetchError) Error() string {
	if e.SiteID == "" {
		return fmt.Sprintf("Failed to load sites: %v", e.Err)
	}
	return fmt.Sprintf("Failed to load spaces: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
