// Package selection computes tri-state checkbox state for spaces and applies
// bulk selection edits. Selection sets hold stream ids only; space state is
// always derived.
package selection

import (
	"spacenav/internal/model"
	"spacenav/internal/tree"
)

// AllStreamIDs returns the stream ids of node's subtree in pre-order.
func AllStreamIDs(node model.TreeNode) []int {
	return tree.AllStreamIDs(node)
}

// Counts returns how many of node's subtree streams are selected, and the total.
func Counts(node model.TreeNode, sel model.IDSet) (selected, total int) {
	for _, id := range tree.AllStreamIDs(node) {
		total++
		if sel.Has(id) {
			selected++
		}
	}
	return selected, total
}

// CheckboxState is checked when every subtree stream is selected, unchecked
// when none is (including spaces with no streams at all), and indeterminate
// otherwise.
func CheckboxState(node model.TreeNode, sel model.IDSet) model.CheckState {
	k, n := Counts(node, sel)
	switch {
	case k == 0:
		return model.CheckUnchecked
	case k == n:
		return model.CheckChecked
	default:
		return model.CheckIndeterminate
	}
}

// SelectSpace adds every stream under spaceID. Unknown ids return sel as is.
func SelectSpace(spaceID int, forest model.Forest, sel model.IDSet) model.IDSet {
	return SetSpace(spaceID, true, forest, sel)
}

// DeselectSpace removes every stream under spaceID. Unknown ids return sel as is.
func DeselectSpace(spaceID int, forest model.Forest, sel model.IDSet) model.IDSet {
	return SetSpace(spaceID, false, forest, sel)
}

func SetSpace(spaceID int, selected bool, forest model.Forest, sel model.IDSet) model.IDSet {
	node, ok := tree.Find(forest, spaceID)
	if !ok {
		return sel
	}
	ids := tree.AllStreamIDs(node)
	if len(ids) == 0 {
		return sel
	}
	if selected {
		return With(sel, ids...)
	}
	return Without(sel, ids...)
}

// ToggleStream flips membership of one stream id.
func ToggleStream(streamID int, sel model.IDSet) model.IDSet {
	if sel.Has(streamID) {
		return Without(sel, streamID)
	}
	return With(sel, streamID)
}

func With(sel model.IDSet, ids ...int) model.IDSet {
	out := sel.Clone()
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func Without(sel model.IDSet, ids ...int) model.IDSet {
	out := sel.Clone()
	for _, id := range ids {
		delete(out, id)
	}
	return out
}

// Rename moves membership from oldID to newID (used when a temporary id is
// confirmed). A set without oldID is returned unchanged.
func Rename(sel model.IDSet, oldID, newID int) model.IDSet {
	if !sel.Has(oldID) {
		return sel
	}
	out := Without(sel, oldID)
	out[newID] = struct{}{}
	return out
}

// SelectedStreams returns the selected streams present in forest, pre-order.
func SelectedStreams(forest model.Forest, sel model.IDSet) []model.Stream {
	var out []model.Stream
	for _, s := range tree.AllStreams(forest...) {
		if sel.Has(s.ID) {
			out = append(out, s)
		}
	}
	return out
}

// Prune drops ids that no longer exist in forest.
func Prune(forest model.Forest, sel model.IDSet) model.IDSet {
	present := tree.StreamIDSet(forest)
	out := model.IDSet{}
	for id := range sel {
		if present.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}
