package mutate

import "spacenav/internal/model"

type OpKind string

const (
	OpAdd    OpKind = "add"
	OpDelete OpKind = "delete"
)

// OpStatus is the lifecycle of one optimistic edit:
//
//	pending -> confirmed | rolled-back | discarded
type OpStatus string

const (
	StatusPending    OpStatus = "pending"
	StatusConfirmed  OpStatus = "confirmed"
	StatusRolledBack OpStatus = "rolled-back"
	// StatusDiscarded: the owning site changed while the write was in flight.
	StatusDiscarded OpStatus = "discarded"
)

// Op is one optimistic edit. For adds StreamID starts out temporary and is
// replaced by the server id on confirmation.
type Op struct {
	Seq      uint64   `json:"seq"`
	Kind     OpKind   `json:"kind"`
	SpaceID  int      `json:"spaceId,omitempty"`
	StreamID int      `json:"streamId"`
	TempID   int      `json:"tempId,omitempty"`
	Name     string   `json:"name,omitempty"`
	Status   OpStatus `json:"status"`
	Err      error    `json:"-"`
}

func (o Op) Stream() model.Stream {
	return model.Stream{ID: o.StreamID, Name: o.Name}
}

// Apply replays the op onto forest.
func (o Op) Apply(forest model.Forest) model.Forest {
	switch o.Kind {
	case OpAdd:
		out, _ := AddStream(forest, o.SpaceID, o.Stream())
		return out
	case OpDelete:
		out, _ := RemoveStream(forest, o.StreamID)
		return out
	default:
		return forest
	}
}

// Ledger is the ordered list of pending ops. It is a value: With/Without
// return new ledgers.
type Ledger struct {
	ops []Op
}

func (l Ledger) With(op Op) Ledger {
	ops := make([]Op, 0, len(l.ops)+1)
	ops = append(ops, l.ops...)
	return Ledger{ops: append(ops, op)}
}

func (l Ledger) Without(seq uint64) Ledger {
	ops := make([]Op, 0, len(l.ops))
	for _, op := range l.ops {
		if op.Seq != seq {
			ops = append(ops, op)
		}
	}
	return Ledger{ops: ops}
}

func (l Ledger) Pending() []Op {
	out := make([]Op, len(l.ops))
	copy(out, l.ops)
	return out
}

func (l Ledger) Len() int { return len(l.ops) }

// Rebase replays every pending op, in issue order, on top of confirmed.
func (l Ledger) Rebase(confirmed model.Forest) model.Forest {
	f := confirmed
	for _, op := range l.ops {
		f = op.Apply(f)
	}
	return f
}

// Trees pairs the server-confirmed forest with the optimistic one shown to
// the user.
type Trees struct {
	Confirmed  model.Forest
	Optimistic model.Forest
}

// ConfirmAdd records the server's stream in the confirmed tree and swaps the
// temporary entry for it in place.
func (t Trees) ConfirmAdd(spaceID, tempID int, real model.Stream) Trees {
	t.Confirmed, _ = AddStream(t.Confirmed, spaceID, real)
	var replaced bool
	t.Optimistic, replaced = ReplaceStream(t.Optimistic, tempID, real)
	if !replaced {
		t.Optimistic, _ = AddStream(t.Optimistic, spaceID, real)
	}
	return t
}

// RollbackAdd drops the temporary stream.
func (t Trees) RollbackAdd(tempID int) Trees {
	t.Optimistic, _ = RemoveStream(t.Optimistic, tempID)
	return t
}

func (t Trees) ConfirmDelete(streamID int) Trees {
	t.Confirmed, _ = RemoveStream(t.Confirmed, streamID)
	return t
}

// RollbackDelete rebuilds the optimistic tree from the confirmed one plus the
// edits that are still pending. remaining must no longer contain the failed op.
func (t Trees) RollbackDelete(remaining Ledger) Trees {
	t.Optimistic = remaining.Rebase(t.Confirmed)
	return t
}
