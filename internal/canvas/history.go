package canvas

import "github.com/example/cursive/internal/ink"

// Snapshot is a copy of the drawings list at a commit point. Drawings are
// shared by pointer between snapshots since they are never mutated in place.
type Snapshot []*ink.Drawing

func snapshotOf(drawings []*ink.Drawing) Snapshot {
	return append(Snapshot(nil), drawings...)
}

// History is a linear undo/redo stack of drawing snapshots.
type History struct {
	undo  []Snapshot
	redo  []Snapshot
	limit int
}

// NewHistory returns a history holding at most limit undo entries.
// A limit of zero or less is unbounded.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Commit records snap as the state before a new edit and invalidates redo.
func (h *History) Commit(snap Snapshot) {
	h.undo = append(h.undo, snap)
	if h.limit > 0 && len(h.undo) > h.limit {
		h.undo = append([]Snapshot(nil), h.undo[len(h.undo)-h.limit:]...)
	}
	h.redo = nil
}

// Undo pops the most recent snapshot, saving current for redo. The second
// result is false when there is nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	snap := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return snap, true
}

// Redo is the inverse of Undo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	snap := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return snap, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// rewrite maps fn over every drawing in every snapshot. Snapshots that
// change are copied so no other snapshot sees the edit twice.
func (h *History) rewrite(fn func(*ink.Drawing) *ink.Drawing) {
	for _, stack := range [][]Snapshot{h.undo, h.redo} {
		for i, snap := range stack {
			var out Snapshot
			for j, d := range snap {
				nd := fn(d)
				if nd == d {
					continue
				}
				if out == nil {
					out = snapshotOf(snap)
				}
				out[j] = nd
			}
			if out != nil {
				stack[i] = out
			}
		}
	}
}

// Reset drops all history.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}
