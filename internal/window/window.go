// Package window decides which of a space's direct children are materialized
// when the child list is long.
package window

import (
	"fmt"

	"spacenav/internal/model"
)

type ItemKind string

const (
	ItemStream ItemKind = "stream"
	ItemSpace  ItemKind = "space"
)

// Item is one direct child of a space: either a stream or a child space.
type Item struct {
	Kind   ItemKind
	Stream model.Stream
	Space  model.TreeNode
}

// Key is stable across renders and unique within a parent.
func (it Item) Key() string {
	if it.Kind == ItemStream {
		return fmt.Sprintf("stream-%d", it.Stream.ID)
	}
	return fmt.Sprintf("space-%d", it.Space.ID)
}

// ChildItems lists node's streams first, then its child spaces.
func ChildItems(node model.TreeNode) []Item {
	out := make([]Item, 0, len(node.Streams)+len(node.Children))
	for _, s := range node.Streams {
		out = append(out, Item{Kind: ItemStream, Stream: s})
	}
	for _, ch := range node.Children {
		out = append(out, Item{Kind: ItemSpace, Space: ch})
	}
	return out
}

func childCount(node model.TreeNode) int {
	return len(node.Streams) + len(node.Children)
}

// Range is an inclusive index window plus the geometry needed to position it.
// End is -1 for an empty list.
type Range struct {
	Start       int
	End         int
	TopOffset   int
	TotalHeight int
	Virtualized bool
}

func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Compute returns the overscanned window for a scroll offset:
//
//	start = max(0, floor(scroll/rowHeight) - overscan)
//	end   = min(count-1, ceil((scroll+viewport)/rowHeight) + overscan)
func Compute(count, viewport, rowHeight, scroll, overscan int) Range {
	if rowHeight <= 0 {
		rowHeight = 1
	}
	if scroll < 0 {
		scroll = 0
	}
	start := scroll/rowHeight - overscan
	if start < 0 {
		start = 0
	}
	end := ceilDiv(scroll+viewport, rowHeight) + overscan
	if end > count-1 {
		end = count - 1
	}
	return Range{
		Start:       start,
		End:         end,
		TopOffset:   start * rowHeight,
		TotalHeight: count * rowHeight,
		Virtualized: true,
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Full is the non-windowed range covering every item.
func Full(count, rowHeight int) Range {
	return Range{Start: 0, End: count - 1, TotalHeight: count * rowHeight}
}

// ShouldVirtualize reports whether node has more direct children than the
// configured threshold.
func ShouldVirtualize(node model.TreeNode, cfg Config) bool {
	return cfg.Enabled && childCount(node) > cfg.Threshold
}

// ForNode returns the window for node's children at scroll. Lists whose full
// height fits into MaxHeight are never windowed. scroll is clamped to the
// scrollable extent.
func ForNode(node model.TreeNode, cfg Config, scroll int) Range {
	cfg = cfg.normalized()
	n := childCount(node)
	if !ShouldVirtualize(node, cfg) || n*cfg.ItemHeight <= cfg.MaxHeight {
		return Full(n, cfg.ItemHeight)
	}
	return Compute(n, cfg.MaxHeight, cfg.ItemHeight, ClampScroll(n, cfg, scroll), cfg.Overscan)
}

// ClampScroll limits scroll to [0, total-MaxHeight].
func ClampScroll(count int, cfg Config, scroll int) int {
	cfg = cfg.normalized()
	maxScroll := count*cfg.ItemHeight - cfg.MaxHeight
	if scroll > maxScroll {
		scroll = maxScroll
	}
	if scroll < 0 {
		scroll = 0
	}
	return scroll
}

// Visible slices items to r.
func Visible(items []Item, r Range) []Item {
	if r.Len() == 0 || r.Start >= len(items) {
		return nil
	}
	end := r.End + 1
	if end > len(items) {
		end = len(items)
	}
	return items[r.Start:end]
}
