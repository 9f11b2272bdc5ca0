// Package canvas owns the live notebook page: committed drawings, the stroke
// being drawn, the viewport and the active tool, together with the undo
// history of drawing edits.
//
// A State has a single writer. It carries no locks; callers that hand data to
// other goroutines take a copy with Drawings first.
package canvas

import (
	"fmt"
	"time"

	"honnef.co/go/curve"

	"github.com/example/cursive/internal/ink"
)

// State is the authoritative in-memory canvas.
type State struct {
	drawings []*ink.Drawing
	// openID names the drawing new strokes are added to; empty starts a new one.
	openID   string
	nextKind ink.Kind
	active   *ink.Stroke
	view     Viewport
	mode     Mode
	history  *History
	erasing  bool
	erased   bool

	// Now supplies stroke and drawing timestamps.
	Now func() time.Time
}

// New returns an empty canvas in draw mode. A nil history is unbounded.
func New(h *History) *State {
	if h == nil {
		h = NewHistory(0)
	}
	return &State{
		view:     IdentityViewport,
		mode:     ModeDraw,
		history:  h,
		nextKind: ink.KindHandwriting,
		Now:      time.Now,
	}
}

func (s *State) now() int64 { return s.Now().UnixMilli() }

// History exposes the undo history.
func (s *State) History() *History { return s.history }

// Mode returns the active tool mode.
func (s *State) Mode() Mode { return s.mode }

// SetMode switches the active tool. Exactly one mode is active at a time.
func (s *State) SetMode(m Mode) { s.mode = m }

// Viewport returns the current viewport.
func (s *State) Viewport() Viewport { return s.view }

// SetViewport replaces the viewport. It never touches the undo history.
func (s *State) SetViewport(v Viewport) error {
	if !(v.Scale > 0) {
		return &InvalidStateError{Op: "set viewport", Reason: fmt.Sprintf("scale %v must be positive", v.Scale)}
	}
	s.view = v
	return nil
}

// Active returns the stroke being drawn, or nil.
func (s *State) Active() *ink.Stroke { return s.active }

// BeginStroke opens a new active stroke.
func (s *State) BeginStroke(color string, width float64) (*ink.Stroke, error) {
	if s.active != nil {
		return nil, &InvalidStateError{Op: "begin stroke", Reason: "a stroke is already active"}
	}
	if _, err := ink.ParseColor(color); err != nil {
		return nil, fmt.Errorf("begin stroke: %w", err)
	}
	s.active = &ink.Stroke{
		ID:        ink.NewStrokeID(),
		Color:     color,
		Width:     width,
		Timestamp: s.now(),
	}
	return s.active, nil
}

// AppendPoint adds p to the active stroke. Points without a timestamp are
// stamped with the current time.
func (s *State) AppendPoint(p ink.Point) error {
	if s.active == nil {
		return &InvalidStateError{Op: "append point", Reason: "no active stroke"}
	}
	if p.T == 0 {
		p.T = s.now()
	}
	p.Pressure = ink.ClampPressure(p.Pressure)
	s.active.Points = append(s.active.Points, p)
	return nil
}

// FinishStroke moves the active stroke into the open drawing and records an
// undo entry. A stroke with no points is discarded without an undo entry and
// nil is returned.
func (s *State) FinishStroke() *ink.Stroke {
	st := s.active
	s.active = nil
	if st == nil || len(st.Points) == 0 {
		return nil
	}
	// Trim spare capacity so later appends elsewhere cannot alias the points.
	st.Points = st.Points[:len(st.Points):len(st.Points)]

	s.history.Commit(snapshotOf(s.drawings))
	if n := len(s.drawings); n > 0 && s.drawings[n-1].ID == s.openID {
		s.drawings = append(s.drawings[:n-1:n-1], s.drawings[n-1].WithStroke(st))
	} else {
		d := ink.NewDrawing(s.nextKind, st.Timestamp).WithStroke(st)
		s.openID = d.ID
		s.drawings = append(s.drawings[:len(s.drawings):len(s.drawings)], d)
	}
	return st
}

// CancelStroke discards the active stroke. The result is the same as
// finishing a stroke with no points.
func (s *State) CancelStroke() {
	s.active = nil
}

// NewDrawing closes the current session. The next finished stroke starts a
// drawing of the given kind.
func (s *State) NewDrawing(kind ink.Kind) {
	if s.active != nil {
		s.FinishStroke()
	}
	if kind == "" {
		kind = ink.KindHandwriting
	}
	s.openID = ""
	s.nextKind = kind
}

// BeginErase starts an erase gesture. All strokes removed before EndErase
// share a single undo entry.
func (s *State) BeginErase() {
	s.erasing = true
	s.erased = false
}

// EndErase closes the erase gesture and reports whether anything was removed.
func (s *State) EndErase() bool {
	erased := s.erased
	s.erasing = false
	s.erased = false
	return erased
}

// EraseAt removes strokes of the active drawing within tol of pt and returns
// how many were removed. Outside a gesture each call is its own undo entry.
func (s *State) EraseAt(pt curve.Point, tol float64) int {
	n := len(s.drawings)
	if n == 0 {
		return 0
	}
	last := s.drawings[n-1]
	next, removed := last.Without(func(st *ink.Stroke) bool { return st.Near(pt, tol) })
	if removed == 0 {
		return 0
	}
	if !s.erasing || !s.erased {
		s.history.Commit(snapshotOf(s.drawings))
	}
	if s.erasing {
		s.erased = true
	}
	drawings := append([]*ink.Drawing(nil), s.drawings[:n-1]...)
	if len(next.Strokes) > 0 {
		drawings = append(drawings, next)
	} else if last.ID == s.openID {
		s.openID = ""
	}
	s.drawings = drawings
	return removed
}

// Clear removes every drawing as a single undoable edit.
func (s *State) Clear() {
	s.active = nil
	if len(s.drawings) == 0 {
		return
	}
	s.history.Commit(snapshotOf(s.drawings))
	s.drawings = nil
	s.openID = ""
}

// Undo restores the drawings before the most recent edit. An in-progress
// stroke is discarded first. Undo with an empty history does nothing.
func (s *State) Undo() bool {
	s.active = nil
	snap, ok := s.history.Undo(snapshotOf(s.drawings))
	if ok {
		s.drawings = snap
	}
	return ok
}

// Redo re-applies the most recently undone edit.
func (s *State) Redo() bool {
	s.active = nil
	snap, ok := s.history.Redo(snapshotOf(s.drawings))
	if ok {
		s.drawings = snap
	}
	return ok
}

// Load replaces the drawings, for example after reading a notebook from
// storage, and drops the undo history.
func (s *State) Load(drawings []*ink.Drawing) {
	s.active = nil
	s.drawings = append([]*ink.Drawing(nil), drawings...)
	s.openID = ""
	s.history.Reset()
}

// SetTranscription attaches text and reply to the drawing with the given ID.
// It is not an undoable edit: every history snapshot holding that drawing
// gets the transcription too, so undo and redo never drop it.
func (s *State) SetTranscription(id, text, reply string) bool {
	annotate := func(d *ink.Drawing) *ink.Drawing {
		if d.ID != id {
			return d
		}
		return d.WithTranscription(text, reply)
	}
	found := false
	drawings := append([]*ink.Drawing(nil), s.drawings...)
	for i, d := range drawings {
		if d.ID == id {
			drawings[i] = annotate(d)
			found = true
		}
	}
	if !found {
		return false
	}
	s.drawings = drawings
	s.history.rewrite(annotate)
	return true
}

// Drawings returns a copy of the committed drawings in z-order.
func (s *State) Drawings() []*ink.Drawing {
	return append([]*ink.Drawing(nil), s.drawings...)
}

// Strokes returns every committed stroke in z-order.
func (s *State) Strokes() []*ink.Stroke {
	var out []*ink.Stroke
	for _, d := range s.drawings {
		out = append(out, d.Strokes...)
	}
	return out
}

// StrokesIn returns committed strokes with at least one point inside r.
func (s *State) StrokesIn(r curve.Rect) []*ink.Stroke {
	var out []*ink.Stroke
	for _, d := range s.drawings {
		for _, st := range d.Strokes {
			if st.Intersects(r) {
				out = append(out, st)
			}
		}
	}
	return out
}
