package window

// DefaultResetDelta is how far a child count may move between observations
// before the scroll offset snaps back to the top.
const DefaultResetDelta = 5

// ScrollTracker keeps per-node scroll offsets across renders.
//
// It is not safe for concurrent use; the presentation loop owns it.
type ScrollTracker struct {
	ResetDelta int

	offsets map[int]int
	lengths map[int]int
}

func NewScrollTracker() *ScrollTracker {
	return &ScrollTracker{
		ResetDelta: DefaultResetDelta,
		offsets:    map[int]int{},
		lengths:    map[int]int{},
	}
}

// Observe records the current child count for nodeID. When it differs from
// the previous observation by more than ResetDelta the offset is reset to 0
// and Observe returns true.
func (t *ScrollTracker) Observe(nodeID, length int) bool {
	prev, seen := t.lengths[nodeID]
	t.lengths[nodeID] = length
	if !seen {
		return false
	}
	d := length - prev
	if d < 0 {
		d = -d
	}
	if d > t.ResetDelta {
		t.offsets[nodeID] = 0
		return true
	}
	return false
}

func (t *ScrollTracker) Offset(nodeID int) int {
	return t.offsets[nodeID]
}

func (t *ScrollTracker) SetOffset(nodeID, offset int) {
	if offset < 0 {
		offset = 0
	}
	t.offsets[nodeID] = offset
}

// Reset forgets everything, e.g. when a different site is loaded.
func (t *ScrollTracker) Reset() {
	t.offsets = map[int]int{}
	t.lengths = map[int]int{}
}
