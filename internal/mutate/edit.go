package mutate

import "spacenav/internal/model"

// Edits below are copy-on-write: only nodes on a changed path are copied,
// untouched subtrees are shared with the input. Nothing here mutates a
// TreeNode or a Streams/Children slice in place.

// AddStream appends stream to the space spaceID. It reports false (and
// returns forest as is) when the space is missing or already holds stream.ID.
func AddStream(forest model.Forest, spaceID int, stream model.Stream) (model.Forest, bool) {
	out, changed := updateFirst(forest, spaceID, func(n model.TreeNode) (model.TreeNode, bool) {
		if hasStream(n, stream.ID) {
			return n, false
		}
		streams := make([]model.Stream, 0, len(n.Streams)+1)
		streams = append(streams, n.Streams...)
		n.Streams = append(streams, stream)
		return n, true
	})
	return model.Forest(out), changed
}

// RemoveStream drops every occurrence of streamID.
func RemoveStream(forest model.Forest, streamID int) (model.Forest, bool) {
	out, changed := mapAll(forest, func(n model.TreeNode) (model.TreeNode, bool) {
		if !hasStream(n, streamID) {
			return n, false
		}
		streams := make([]model.Stream, 0, len(n.Streams))
		for _, s := range n.Streams {
			if s.ID != streamID {
				streams = append(streams, s)
			}
		}
		n.Streams = streams
		return n, true
	})
	return model.Forest(out), changed
}

// ReplaceStream swaps oldID for stream at the same position, wherever oldID
// occurs. A node that already holds stream.ID just loses oldID, so a
// replacement never introduces a duplicate.
func ReplaceStream(forest model.Forest, oldID int, stream model.Stream) (model.Forest, bool) {
	out, changed := mapAll(forest, func(n model.TreeNode) (model.TreeNode, bool) {
		if !hasStream(n, oldID) {
			return n, false
		}
		dup := oldID != stream.ID && hasStream(n, stream.ID)
		streams := make([]model.Stream, 0, len(n.Streams))
		for _, s := range n.Streams {
			if s.ID != oldID {
				streams = append(streams, s)
				continue
			}
			if !dup {
				streams = append(streams, stream)
			}
		}
		n.Streams = streams
		return n, true
	})
	return model.Forest(out), changed
}

func hasStream(n model.TreeNode, id int) bool {
	for _, s := range n.Streams {
		if s.ID == id {
			return true
		}
	}
	return false
}

// updateFirst applies fn to the first node (pre-order) with id.
func updateFirst(nodes []model.TreeNode, id int, fn func(model.TreeNode) (model.TreeNode, bool)) ([]model.TreeNode, bool) {
	out, changed, _ := updateFirstFound(nodes, id, fn)
	return out, changed
}

func updateFirstFound(nodes []model.TreeNode, id int, fn func(model.TreeNode) (model.TreeNode, bool)) ([]model.TreeNode, bool, bool) {
	for i, n := range nodes {
		var (
			next    model.TreeNode
			changed bool
		)
		if n.ID == id {
			next, changed = fn(n)
		} else {
			children, ch, found := updateFirstFound(n.Children, id, fn)
			if !found {
				continue
			}
			next, changed = n, ch
			next.Children = children
		}
		if !changed {
			return nodes, false, true
		}
		out := make([]model.TreeNode, len(nodes))
		copy(out, nodes)
		out[i] = next
		return out, true, true
	}
	return nodes, false, false
}

// mapAll applies fn to every node, copying only along changed paths.
func mapAll(nodes []model.TreeNode, fn func(model.TreeNode) (model.TreeNode, bool)) ([]model.TreeNode, bool) {
	var out []model.TreeNode
	for i, n := range nodes {
		next, changed := fn(n)
		if children, ch := mapAll(next.Children, fn); ch {
			next.Children = children
			changed = true
		}
		if !changed {
			continue
		}
		if out == nil {
			out = make([]model.TreeNode, len(nodes))
			copy(out, nodes)
		}
		out[i] = next
	}
	if out == nil {
		return nodes, false
	}
	return out, true
}
