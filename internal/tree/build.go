package tree

import "spacenav/internal/model"

// Build turns a flat, parent-referencing list of space records into a forest.
//
// Roots keep input order, as do siblings under a parent. A record whose parent
// id never appears in records is dropped, together with its subtree. Records on
// a parent cycle never reach a root and are dropped as well. When an id repeats
// the first record wins. Streams come from streamsByOwner (de-duplicated by id);
// the records themselves are not read for streams and are never modified.
func Build(records []model.SpaceRecord, streamsByOwner map[int][]model.Stream) model.Forest {
	// Pass 1: one entry per id.
	seen := make(map[int]bool, len(records))
	uniq := make([]model.SpaceRecord, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		uniq = append(uniq, r)
	}

	// Pass 2: attach to parents.
	var roots []model.SpaceRecord
	children := map[int][]model.SpaceRecord{}
	for _, r := range uniq {
		if r.ParentID == nil {
			roots = append(roots, r)
			continue
		}
		if !seen[*r.ParentID] {
			continue
		}
		children[*r.ParentID] = append(children[*r.ParentID], r)
	}

	// Cycles are unreachable from roots, so materializing top-down skips them.
	var materialize func(r model.SpaceRecord) model.TreeNode
	materialize = func(r model.SpaceRecord) model.TreeNode {
		n := model.TreeNode{
			ID:       r.ID,
			Name:     r.Name,
			ParentID: copyParent(r.ParentID),
			Streams:  dedupeStreams(streamsByOwner[r.ID]),
			Children: []model.TreeNode{},
		}
		for _, ch := range children[r.ID] {
			n.Children = append(n.Children, materialize(ch))
		}
		return n
	}

	out := make(model.Forest, 0, len(roots))
	for _, r := range roots {
		out = append(out, materialize(r))
	}
	return out
}

// StreamsByOwner groups the streams embedded in records by their owning space.
func StreamsByOwner(records []model.SpaceRecord) map[int][]model.Stream {
	out := make(map[int][]model.Stream, len(records))
	for _, r := range records {
		if _, ok := out[r.ID]; ok {
			continue
		}
		out[r.ID] = r.Streams
	}
	return out
}

// BuildFromSpaces builds a forest from records that carry their own streams.
func BuildFromSpaces(records []model.SpaceRecord) model.Forest {
	return Build(records, StreamsByOwner(records))
}

// FlattenGroups concatenates the grouped listing, preserving order.
func FlattenGroups(resp model.SpacesResponse) []model.SpaceRecord {
	var out []model.SpaceRecord
	for _, g := range resp.Spaces {
		out = append(out, g.Spaces...)
	}
	return out
}

func dedupeStreams(in []model.Stream) []model.Stream {
	out := make([]model.Stream, 0, len(in))
	seen := make(map[int]bool, len(in))
	for _, s := range in {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

func copyParent(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
