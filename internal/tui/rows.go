package tui

import (
	"fmt"
	"io"
	"strings"

	"spacenav/internal/model"
	"spacenav/internal/mutate"
	"spacenav/internal/selection"
	"spacenav/internal/window"
)

type rowKind int

const (
	rowSpace rowKind = iota
	rowStream
	// rowGap stands in for children of a windowed list that are not drawn.
	rowGap
)

type row struct {
	kind  rowKind
	depth int
	// parent is the space owning this row (0 for roots).
	parent int

	node   model.TreeNode
	stream model.Stream
	state  model.CheckState

	// gap rows
	hidden int
	above  bool
}

func (r row) key() string {
	switch r.kind {
	case rowSpace:
		return fmt.Sprintf("space-%d", r.node.ID)
	case rowStream:
		return fmt.Sprintf("stream-%d", r.stream.ID)
	default:
		if r.above {
			return fmt.Sprintf("gap-%d-above", r.parent)
		}
		return fmt.Sprintf("gap-%d-below", r.parent)
	}
}

func (r row) pending() bool {
	return r.kind == rowStream && mutate.IsTemp(r.stream.ID)
}

// windowSource supplies the windowing config for a node's children.
type windowSource interface {
	WindowConfig(nodeID int) window.Config
}

// flattenRows turns the expanded part of the view into display rows. Children
// of long lists are limited to their current window; the skipped part is
// represented by one gap row per side.
func flattenRows(view model.Forest, sel model.IDSet, ws windowSource, scroll *window.ScrollTracker) []row {
	var out []row
	var visit func(n model.TreeNode, parent, depth int)
	visit = func(n model.TreeNode, parent, depth int) {
		out = append(out, row{
			kind:   rowSpace,
			depth:  depth,
			parent: parent,
			node:   n,
			state:  selection.CheckboxState(n, sel),
		})
		if !n.IsExpanded {
			return
		}
		items := window.ChildItems(n)
		r := window.Full(len(items), 1)
		if ws != nil {
			cfg := ws.WindowConfig(n.ID)
			offset := 0
			if scroll != nil {
				scroll.Observe(n.ID, len(items))
				offset = window.ClampScroll(len(items), cfg, scroll.Offset(n.ID))
				scroll.SetOffset(n.ID, offset)
			}
			r = window.ForNode(n, cfg, offset)
		}
		if r.Start > 0 {
			out = append(out, row{kind: rowGap, depth: depth + 1, parent: n.ID, hidden: r.Start, above: true})
		}
		for _, it := range window.Visible(items, r) {
			if it.Kind == window.ItemSpace {
				visit(it.Space, n.ID, depth+1)
				continue
			}
			st := model.CheckUnchecked
			if sel.Has(it.Stream.ID) {
				st = model.CheckChecked
			}
			out = append(out, row{kind: rowStream, depth: depth + 1, parent: n.ID, stream: it.Stream, state: st})
		}
		if below := len(items) - 1 - r.End; r.Len() > 0 && below > 0 {
			out = append(out, row{kind: rowGap, depth: depth + 1, parent: n.ID, hidden: below})
		}
	}
	for _, n := range view {
		visit(n, 0, 0)
	}
	return out
}

// rowText is the plain (unstyled) text of a row, without indentation.
func rowText(r row, showChecks bool) string {
	var b strings.Builder
	switch r.kind {
	case rowSpace:
		if r.node.IsExpanded {
			b.WriteString(glyphTwistyExpanded())
		} else {
			b.WriteString(glyphTwistyCollapsed())
		}
		b.WriteByte(' ')
		if showChecks {
			b.WriteString(glyphCheckbox(r.state))
			b.WriteByte(' ')
		}
		b.WriteString(r.node.Name)
		if n := len(selection.AllStreamIDs(r.node)); n > 0 {
			fmt.Fprintf(&b, " (%d)", n)
		}
	case rowStream:
		b.WriteString(glyphBullet())
		b.WriteByte(' ')
		if showChecks {
			b.WriteString(glyphCheckbox(r.state))
			b.WriteByte(' ')
		}
		b.WriteString(r.stream.Name)
		if !r.pending() {
			fmt.Fprintf(&b, " #%d", r.stream.ID)
		}
	case rowGap:
		dir := "below"
		if r.above {
			dir = "above"
		}
		fmt.Fprintf(&b, "%s %d more %s", glyphEllipsis(), r.hidden, dir)
	}
	return b.String()
}

// WriteOutline prints every space and stream of forest as an indented
// outline. With showChecks, each row carries its checkbox for sel.
func WriteOutline(w io.Writer, forest model.Forest, sel model.IDSet, showChecks bool) error {
	if sel == nil {
		sel = model.NewIDSet()
	}
	rows := flattenRows(expandAll(forest), sel, nil, nil)
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", r.depth), rowText(r, showChecks)); err != nil {
			return err
		}
	}
	return nil
}

func expandAll(forest model.Forest) model.Forest {
	out := make(model.Forest, len(forest))
	for i, n := range forest {
		n.IsExpanded = true
		n.Children = expandAll(n.Children)
		out[i] = n
	}
	return out
}
