package mutate

import (
	"spacenav/internal/model"
	"spacenav/internal/tree"
)

// IsTemp reports whether id is a temporary, client-issued stream id. Server
// ids are always positive.
func IsTemp(id int) bool { return id < 0 }

// TempIDs issues temporary stream ids: -1, -2, ...
//
// Not safe for concurrent use; the owning store serializes calls.
type TempIDs struct {
	last int
}

// Next returns the next temporary id not present anywhere in forest.
func (t *TempIDs) Next(forest model.Forest) int {
	used := tree.StreamIDSet(forest)
	for {
		t.last--
		if !used.Has(t.last) {
			return t.last
		}
	}
}
