package model

import "sort"

// Site is a top-level tenant selector. Spaces are always fetched per site.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Stream is a camera feed owned by exactly one space.
//
// While an add is in flight the stream carries a temporary (negative) id.
type Stream struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SpaceRecord is one flat, parent-referencing space as returned by the API.
type SpaceRecord struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	ParentID *int     `json:"parentSpaceId"`
	Streams  []Stream `json:"streams"`
}

type SpacesGroup struct {
	Spaces []SpaceRecord `json:"spaces"`
}

// SpacesResponse is the grouped listing returned for a site.
type SpacesResponse struct {
	Spaces []SpacesGroup `json:"spaces"`
}

type AddStreamRequest struct {
	Name string `json:"name"`
}

type AddStreamResponse struct {
	ID      *int    `json:"id"`
	Name    *string `json:"name"`
	SpaceID int     `json:"spaceId"`
}

// TreeNode is a space materialized into the hierarchy.
//
// Children are held by value. There are no parent back-pointers; lookups
// re-traverse from the roots.
type TreeNode struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	ParentID   *int       `json:"parentSpaceId,omitempty"`
	Streams    []Stream   `json:"streams"`
	Children   []TreeNode `json:"children"`
	IsExpanded bool       `json:"isExpanded,omitempty"`
}

// Forest is the ordered list of root nodes.
type Forest []TreeNode

type CheckState string

const (
	CheckUnchecked     CheckState = "unchecked"
	CheckChecked       CheckState = "checked"
	CheckIndeterminate CheckState = "indeterminate"
)

// IDSet is a set of integer ids (stream selection, expanded spaces).
//
// Sets are used as values: helpers that "change" a set return a new one.
type IDSet map[int]struct{}

func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int { return len(s) }

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (s IDSet) Equal(o IDSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if !o.Has(id) {
			return false
		}
	}
	return true
}

// IntPtr is a small helper for building parent references.
func IntPtr(v int) *int { return &v }
