package tree

import (
	"testing"

	"spacenav/internal/model"
)

func sampleForest() model.Forest {
	p := model.IntPtr
	return BuildFromSpaces([]model.SpaceRecord{
		rec(1, "HQ", nil, model.Stream{ID: 10, Name: "Gate"}),
		rec(2, "Floor 1", p(1), model.Stream{ID: 11, Name: "Lobby"}, model.Stream{ID: 12, Name: "Stairs"}),
		rec(3, "Room", p(2), model.Stream{ID: 13, Name: "Desk"}),
		rec(4, "Depot", nil, model.Stream{ID: 20, Name: "Dock"}),
	})
}

func TestPathTo(t *testing.T) {
	f := sampleForest()
	got := PathTo(f, 3)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("expected [1 2 3]; got %v", got)
	}
	if PathTo(f, 99) != nil {
		t.Fatalf("expected nil path for unknown id")
	}
}

func TestAllStreamIDs_PreOrder(t *testing.T) {
	f := sampleForest()
	hq, _ := Find(f, 1)
	got := AllStreamIDs(hq)
	want := []int{10, 11, 12, 13}
	if len(got) != len(want) {
		t.Fatalf("expected %v; got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v; got %v", want, got)
		}
	}
}

func TestFindStream(t *testing.T) {
	f := sampleForest()
	spaceID, s, ok := FindStream(f, 13)
	if !ok || spaceID != 3 || s.Name != "Desk" {
		t.Fatalf("expected Desk in space 3; got %d %#v %v", spaceID, s, ok)
	}
	if _, _, ok := FindStream(f, 404); ok {
		t.Fatalf("expected unknown stream to be missing")
	}
}

func TestWithExpansion_DoesNotTouchInput(t *testing.T) {
	f := sampleForest()
	ex := WithExpansion(f, model.NewIDSet(1, 3))
	hq, _ := Find(ex, 1)
	room, _ := Find(ex, 3)
	floor, _ := Find(ex, 2)
	if !hq.IsExpanded || !room.IsExpanded || floor.IsExpanded {
		t.Fatalf("unexpected expansion overlay")
	}
	orig, _ := Find(f, 1)
	if orig.IsExpanded {
		t.Fatalf("expected source forest to stay collapsed")
	}
}

func TestWalk_StopsEarly(t *testing.T) {
	f := sampleForest()
	visited := 0
	Walk(f, func(n model.TreeNode, _ int) bool {
		visited++
		return n.ID != 2
	})
	if visited != 2 {
		t.Fatalf("expected walk to stop after 2 nodes; got %d", visited)
	}
}
