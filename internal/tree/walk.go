package tree

import "spacenav/internal/model"

// Walk visits nodes in pre-order. Returning false from fn stops the walk.
func Walk(forest model.Forest, fn func(n model.TreeNode, depth int) bool) {
	var visit func(nodes []model.TreeNode, depth int) bool
	visit = func(nodes []model.TreeNode, depth int) bool {
		for _, n := range nodes {
			if !fn(n, depth) {
				return false
			}
			if !visit(n.Children, depth+1) {
				return false
			}
		}
		return true
	}
	visit(forest, 0)
}

// Find returns the first node with id in pre-order.
func Find(forest model.Forest, id int) (model.TreeNode, bool) {
	var out model.TreeNode
	found := false
	Walk(forest, func(n model.TreeNode, _ int) bool {
		if n.ID == id {
			out = n
			found = true
			return false
		}
		return true
	})
	return out, found
}

// PathTo returns the ids from a root down to id (inclusive), or nil.
func PathTo(forest model.Forest, id int) []int {
	var path []int
	var visit func(nodes []model.TreeNode) bool
	visit = func(nodes []model.TreeNode) bool {
		for _, n := range nodes {
			path = append(path, n.ID)
			if n.ID == id || visit(n.Children) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	if !visit(forest) {
		return nil
	}
	return path
}

// AllStreams returns every stream in the subtrees of nodes, pre-order: a
// node's own streams first, then each child subtree in order.
func AllStreams(nodes ...model.TreeNode) []model.Stream {
	var out []model.Stream
	var visit func(n model.TreeNode)
	visit = func(n model.TreeNode) {
		out = append(out, n.Streams...)
		for _, ch := range n.Children {
			visit(ch)
		}
	}
	for _, n := range nodes {
		visit(n)
	}
	return out
}

// AllStreamIDs is AllStreams projected to ids.
func AllStreamIDs(nodes ...model.TreeNode) []int {
	streams := AllStreams(nodes...)
	out := make([]int, 0, len(streams))
	for _, s := range streams {
		out = append(out, s.ID)
	}
	return out
}

// FindStream locates the first space holding streamID.
func FindStream(forest model.Forest, streamID int) (int, model.Stream, bool) {
	var (
		spaceID int
		stream  model.Stream
		found   bool
	)
	Walk(forest, func(n model.TreeNode, _ int) bool {
		for _, s := range n.Streams {
			if s.ID == streamID {
				spaceID, stream, found = n.ID, s, true
				return false
			}
		}
		return true
	})
	return spaceID, stream, found
}

// StreamIDSet collects every stream id in the forest.
func StreamIDSet(forest model.Forest) model.IDSet {
	return model.NewIDSet(AllStreamIDs(forest...)...)
}

func CountSpaces(forest model.Forest) int {
	n := 0
	Walk(forest, func(model.TreeNode, int) bool {
		n++
		return true
	})
	return n
}

// WithExpansion returns a copy of forest with IsExpanded derived from expanded.
func WithExpansion(forest model.Forest, expanded model.IDSet) model.Forest {
	var overlay func(nodes []model.TreeNode) []model.TreeNode
	overlay = func(nodes []model.TreeNode) []model.TreeNode {
		out := make([]model.TreeNode, len(nodes))
		for i, n := range nodes {
			n.IsExpanded = expanded.Has(n.ID)
			n.Children = overlay(n.Children)
			out[i] = n
		}
		return out
	}
	return overlay(forest)
}

// Equal reports structural equality. Nil and empty slices compare equal.
func Equal(a, b model.Forest) bool {
	return nodesEqual(a, b)
}

func nodesEqual(a, b []model.TreeNode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Name != y.Name || x.IsExpanded != y.IsExpanded {
			return false
		}
		if (x.ParentID == nil) != (y.ParentID == nil) {
			return false
		}
		if x.ParentID != nil && *x.ParentID != *y.ParentID {
			return false
		}
		if len(x.Streams) != len(y.Streams) {
			return false
		}
		for j := range x.Streams {
			if x.Streams[j] != y.Streams[j] {
				return false
			}
		}
		if !nodesEqual(x.Children, y.Children) {
			return false
		}
	}
	return true
}
