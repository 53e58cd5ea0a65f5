package tui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"spacenav/internal/model"
	"spacenav/internal/window"
)

type fixedWindow window.Config

func (f fixedWindow) WindowConfig(int) window.Config { return window.Config(f) }

func bigForest(labStreams int) model.Forest {
	lab := model.TreeNode{ID: 2, Name: "Lab", ParentID: model.IntPtr(1), IsExpanded: true}
	for i := 0; i < labStreams; i++ {
		lab.Streams = append(lab.Streams, model.Stream{ID: 100 + i, Name: fmt.Sprintf("Cam %02d", i)})
	}
	return model.Forest{{
		ID:         1,
		Name:       "HQ",
		IsExpanded: true,
		Streams:    []model.Stream{{ID: 1, Name: "Door"}, {ID: 2, Name: "Desk"}},
		Children:   []model.TreeNode{lab},
	}}
}

func keys(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.key()
	}
	return out
}

func TestFlattenRows_ShortListsAreComplete(t *testing.T) {
	rows := flattenRows(bigForest(3), model.NewIDSet(), fixedWindow(window.DefaultConfig()), window.NewScrollTracker())
	got := strings.Join(keys(rows), ",")
	want := "space-1,stream-1,stream-2,space-2,stream-100,stream-101,stream-102"
	if got != want {
		t.Fatalf("expected %s; got %s", want, got)
	}
	if rows[3].depth != 1 || rows[4].depth != 2 {
		t.Fatalf("unexpected depths: %d %d", rows[3].depth, rows[4].depth)
	}
}

func TestFlattenRows_WindowsLongLists(t *testing.T) {
	cfg := window.DefaultConfig()
	cfg.Threshold = 7
	scroll := window.NewScrollTracker()

	rows := flattenRows(bigForest(25), model.NewIDSet(), fixedWindow(cfg), scroll)
	// space-1, 2 streams, space-2, 13 windowed streams, 1 gap.
	if len(rows) != 18 {
		t.Fatalf("expected 18 rows; got %d (%v)", len(rows), keys(rows))
	}
	last := rows[len(rows)-1]
	if last.kind != rowGap || last.above || last.hidden != 12 {
		t.Fatalf("expected trailing gap hiding 12; got %+v", last)
	}

	scroll.SetOffset(2, cfg.MaxHeight)
	rows = flattenRows(bigForest(25), model.NewIDSet(), fixedWindow(cfg), scroll)
	var gaps []row
	for _, r := range rows {
		if r.kind == rowGap {
			gaps = append(gaps, r)
		}
	}
	if len(gaps) != 2 || !gaps[0].above || gaps[0].hidden != 5 || gaps[1].hidden != 4 {
		t.Fatalf("unexpected gaps after scrolling: %+v", gaps)
	}
}

func TestFlattenRows_ScrollClampedAndResetOnBigChange(t *testing.T) {
	cfg := window.DefaultConfig()
	scroll := window.NewScrollTracker()
	_ = flattenRows(bigForest(25), model.NewIDSet(), fixedWindow(cfg), scroll)

	scroll.SetOffset(2, 10_000)
	_ = flattenRows(bigForest(25), model.NewIDSet(), fixedWindow(cfg), scroll)
	if got, want := scroll.Offset(2), 25*cfg.ItemHeight-cfg.MaxHeight; got != want {
		t.Fatalf("expected offset clamped to %d; got %d", want, got)
	}

	_ = flattenRows(bigForest(40), model.NewIDSet(), fixedWindow(cfg), scroll)
	if got := scroll.Offset(2); got != 0 {
		t.Fatalf("expected offset reset after large change; got %d", got)
	}
}

func TestFlattenRows_CollapsedHidesChildren(t *testing.T) {
	f := bigForest(3)
	f[0].IsExpanded = false
	rows := flattenRows(f, model.NewIDSet(), nil, nil)
	if len(rows) != 1 || rows[0].key() != "space-1" {
		t.Fatalf("expected only the root row; got %v", keys(rows))
	}
}

func TestWriteOutline(t *testing.T) {
	setGlyphs(glyphSetASCII)
	defer setGlyphs(glyphSetUnicode)

	f := bigForest(2)
	f[0].IsExpanded = false
	var buf bytes.Buffer
	if err := WriteOutline(&buf, f, model.NewIDSet(100, 101), true); err != nil {
		t.Fatalf("WriteOutline: %v", err)
	}
	want := strings.Join([]string{
		"v [-] HQ (4)",
		"  * [ ] Door #1",
		"  * [ ] Desk #2",
		"  v [x] Lab (2)",
		"    * [x] Cam 00 #100",
		"    * [x] Cam 01 #101",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected outline:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRowText_PendingStreamHasNoID(t *testing.T) {
	setGlyphs(glyphSetASCII)
	defer setGlyphs(glyphSetUnicode)

	r := row{kind: rowStream, stream: model.Stream{ID: -1, Name: "New cam"}}
	if got := rowText(r, false); got != "* New cam" {
		t.Fatalf("unexpected text %q", got)
	}
	if !r.pending() {
		t.Fatalf("expected temp id row to be pending")
	}
}
