package selection

import (
	"testing"

	"spacenav/internal/model"
	"spacenav/internal/tree"
)

func forest() model.Forest {
	p := model.IntPtr
	return tree.BuildFromSpaces([]model.SpaceRecord{
		{ID: 1, Name: "HQ", Streams: []model.Stream{{ID: 10, Name: "Gate"}}},
		{ID: 2, Name: "Floor", ParentID: p(1), Streams: []model.Stream{{ID: 11, Name: "Lobby"}, {ID: 12, Name: "Stairs"}}},
		{ID: 3, Name: "Empty", ParentID: p(1)},
		{ID: 4, Name: "Depot", Streams: []model.Stream{{ID: 20, Name: "Dock"}}},
	})
}

func node(t *testing.T, f model.Forest, id int) model.TreeNode {
	t.Helper()
	n, ok := tree.Find(f, id)
	if !ok {
		t.Fatalf("node %d not found", id)
	}
	return n
}

func TestCheckboxState(t *testing.T) {
	f := forest()
	hq := node(t, f, 1)

	cases := []struct {
		name string
		sel  model.IDSet
		want model.CheckState
	}{
		{"none", model.NewIDSet(), model.CheckUnchecked},
		{"some", model.NewIDSet(11), model.CheckIndeterminate},
		{"all", model.NewIDSet(10, 11, 12), model.CheckChecked},
		{"foreign ids ignored", model.NewIDSet(20), model.CheckUnchecked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckboxState(hq, tc.sel); got != tc.want {
				t.Fatalf("expected %s; got %s", tc.want, got)
			}
		})
	}
}

func TestCheckboxState_EmptySpaceIsUnchecked(t *testing.T) {
	f := forest()
	empty := node(t, f, 3)
	if got := CheckboxState(empty, model.NewIDSet(10, 11, 12, 20)); got != model.CheckUnchecked {
		t.Fatalf("expected unchecked for space without streams; got %s", got)
	}
}

func TestCheckboxState_Monotonic(t *testing.T) {
	f := forest()
	hq := node(t, f, 1)
	sel := model.NewIDSet()
	prev := 0
	rank := map[model.CheckState]int{model.CheckUnchecked: 0, model.CheckIndeterminate: 1, model.CheckChecked: 2}
	for _, id := range AllStreamIDs(hq) {
		sel = With(sel, id)
		r := rank[CheckboxState(hq, sel)]
		if r < prev {
			t.Fatalf("state regressed after adding %d", id)
		}
		prev = r
	}
	if prev != 2 {
		t.Fatalf("expected checked after selecting everything")
	}
}

func TestSelectDeselectRoundTrip(t *testing.T) {
	f := forest()
	for _, start := range []model.IDSet{model.NewIDSet(), model.NewIDSet(20), model.NewIDSet(11, 20)} {
		sel := SelectSpace(1, f, start)
		if got := CheckboxState(node(t, f, 1), sel); got != model.CheckChecked {
			t.Fatalf("expected checked after select; got %s", got)
		}
		back := DeselectSpace(1, f, sel)
		want := Without(start, 10, 11, 12)
		if !back.Equal(want) {
			t.Fatalf("expected %v; got %v", want.Sorted(), back.Sorted())
		}
		if !back.Has(20) && start.Has(20) {
			t.Fatalf("expected streams outside the space to survive")
		}
	}
}

func TestSetSpace_UnknownOrEmptyIsNoop(t *testing.T) {
	f := forest()
	sel := model.NewIDSet(10)
	if got := SelectSpace(404, f, sel); !got.Equal(sel) {
		t.Fatalf("expected unchanged selection for unknown space")
	}
	if got := SelectSpace(3, f, sel); !got.Equal(sel) {
		t.Fatalf("expected unchanged selection for empty space")
	}
}

func TestToggleStream_DoesNotMutateInput(t *testing.T) {
	sel := model.NewIDSet(1)
	next := ToggleStream(2, sel)
	if sel.Has(2) {
		t.Fatalf("expected input set to stay untouched")
	}
	if !next.Has(1) || !next.Has(2) {
		t.Fatalf("expected {1 2}; got %v", next.Sorted())
	}
	if ToggleStream(1, next).Has(1) {
		t.Fatalf("expected toggle to remove 1")
	}
}

func TestRename(t *testing.T) {
	sel := model.NewIDSet(-1, 5)
	got := Rename(sel, -1, 42)
	if got.Has(-1) || !got.Has(42) || !got.Has(5) {
		t.Fatalf("unexpected rename result %v", got.Sorted())
	}
	if same := Rename(sel, -9, 1); !same.Equal(sel) {
		t.Fatalf("expected rename of absent id to be a no-op")
	}
}

func TestSelectedStreamsAndPrune(t *testing.T) {
	f := forest()
	sel := model.NewIDSet(20, 11, 999)
	got := SelectedStreams(f, sel)
	if len(got) != 2 || got[0].ID != 11 || got[1].ID != 20 {
		t.Fatalf("expected [11 20] in tree order; got %#v", got)
	}
	pruned := Prune(f, sel)
	if pruned.Has(999) || pruned.Len() != 2 {
		t.Fatalf("expected 999 pruned; got %v", pruned.Sorted())
	}
}
