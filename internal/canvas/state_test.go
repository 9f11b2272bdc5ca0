package canvas

import (
	"errors"
	"testing"
	"time"

	"honnef.co/go/curve"

	"github.com/example/cursive/internal/ink"
)

func newTestState() *State {
	s := New(nil)
	var tick int64
	s.Now = func() time.Time {
		tick++
		return time.UnixMilli(1_700_000_000_000 + tick)
	}
	return s
}

func drawStroke(t *testing.T, s *State, pts ...[2]float64) *ink.Stroke {
	t.Helper()
	if _, err := s.BeginStroke("#000000", 2); err != nil {
		t.Fatalf("BeginStroke: %v", err)
	}
	for _, p := range pts {
		if err := s.AppendPoint(ink.NewPoint(p[0], p[1])); err != nil {
			t.Fatalf("AppendPoint: %v", err)
		}
	}
	return s.FinishStroke()
}

func sameStrokes(t *testing.T, got []*ink.Stroke, want ...*ink.Stroke) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d strokes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stroke %d: got %p, want %p", i, got[i], want[i])
		}
	}
}

func TestAppendWithoutActiveStroke(t *testing.T) {
	s := newTestState()
	err := s.AppendPoint(ink.NewPoint(1, 1))
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if len(s.Drawings()) != 0 {
		t.Error("state changed")
	}
}

func TestThreeStrokeUndo(t *testing.T) {
	s := newTestState()
	a := drawStroke(t, s, [2]float64{0, 0}, [2]float64{10, 10})
	b := drawStroke(t, s, [2]float64{5, 5}, [2]float64{15, 15})
	drawStroke(t, s, [2]float64{20, 20})

	s.Undo()
	sameStrokes(t, s.Strokes(), a, b)
	s.Undo()
	sameStrokes(t, s.Strokes(), a)
	s.Redo()
	sameStrokes(t, s.Strokes(), a, b)
}

func TestUndoRedoInverse(t *testing.T) {
	s := newTestState()
	var want []*ink.Stroke
	for i := 0; i < 5; i++ {
		want = append(want, drawStroke(t, s, [2]float64{float64(i), 0}, [2]float64{float64(i), 5}))
	}
	for range want {
		if !s.Undo() {
			t.Fatal("undo failed")
		}
	}
	if len(s.Strokes()) != 0 {
		t.Fatal("expected empty canvas")
	}
	if s.Undo() {
		t.Error("undo past the start should be a no-op")
	}
	for range want {
		if !s.Redo() {
			t.Fatal("redo failed")
		}
	}
	sameStrokes(t, s.Strokes(), want...)
	if len(s.Drawings()) != 1 {
		t.Errorf("expected one session drawing, got %d", len(s.Drawings()))
	}
}

func TestRedoInvalidatedByNewStroke(t *testing.T) {
	s := newTestState()
	drawStroke(t, s, [2]float64{0, 0})
	drawStroke(t, s, [2]float64{1, 1})
	s.Undo()
	drawStroke(t, s, [2]float64{2, 2})
	before := s.Strokes()
	if s.Redo() {
		t.Error("redo should be a no-op after a new edit")
	}
	sameStrokes(t, s.Strokes(), before...)
}

func TestDiscardEmptyStroke(t *testing.T) {
	s := newTestState()
	if _, err := s.BeginStroke("#000", 1); err != nil {
		t.Fatal(err)
	}
	if st := s.FinishStroke(); st != nil {
		t.Errorf("expected nil stroke, got %+v", st)
	}
	if len(s.Drawings()) != 0 || s.History().CanUndo() {
		t.Error("empty stroke must not create a drawing or undo entry")
	}
}

func TestCancelMatchesEmptyFinish(t *testing.T) {
	run := func(cancel bool) *State {
		s := newTestState()
		drawStroke(t, s, [2]float64{0, 0})
		s.BeginStroke("#000", 1)
		s.AppendPoint(ink.NewPoint(3, 3))
		if cancel {
			s.CancelStroke()
		} else {
			s.active.Points = nil
			s.FinishStroke()
		}
		return s
	}
	a, b := run(true), run(false)
	if a.Active() != nil || b.Active() != nil {
		t.Fatal("active stroke left behind")
	}
	if len(a.Strokes()) != len(b.Strokes()) {
		t.Errorf("stroke counts differ: %d vs %d", len(a.Strokes()), len(b.Strokes()))
	}
	ua, _ := a.History().Depth()
	ub, _ := b.History().Depth()
	if ua != ub {
		t.Errorf("undo depths differ: %d vs %d", ua, ub)
	}
}

func TestFinishedStrokeImmutable(t *testing.T) {
	s := newTestState()
	a := drawStroke(t, s, [2]float64{0, 0}, [2]float64{1, 1})
	pts := append([]ink.Point(nil), a.Points...)
	drawStroke(t, s, [2]float64{9, 9})
	s.EraseAt(curve.Pt(9, 9), 1)
	s.Undo()
	s.Undo()
	s.Redo()
	if len(a.Points) != len(pts) || a.Color != "#000000" || a.Width != 2 {
		t.Fatalf("stroke mutated: %+v", a)
	}
	for i := range pts {
		if a.Points[i] != pts[i] {
			t.Fatalf("point %d mutated", i)
		}
	}
}

func TestEraseIsUndoTracked(t *testing.T) {
	s := newTestState()
	a := drawStroke(t, s, [2]float64{0, 0}, [2]float64{10, 0})
	if n := s.EraseAt(curve.Pt(5, 1), 2); n != 1 {
		t.Fatalf("erased %d strokes, want 1", n)
	}
	if len(s.Drawings()) != 0 {
		t.Fatal("empty drawing should be dropped")
	}
	s.Undo()
	sameStrokes(t, s.Strokes(), a)
}

func TestEraseGestureSingleUndoEntry(t *testing.T) {
	s := newTestState()
	drawStroke(t, s, [2]float64{0, 0})
	drawStroke(t, s, [2]float64{10, 0})
	c := drawStroke(t, s, [2]float64{50, 50})
	s.BeginErase()
	s.EraseAt(curve.Pt(0, 0), 1)
	s.EraseAt(curve.Pt(10, 0), 1)
	s.EraseAt(curve.Pt(30, 30), 1)
	if !s.EndErase() {
		t.Fatal("expected gesture to report removal")
	}
	sameStrokes(t, s.Strokes(), c)
	s.Undo()
	if len(s.Strokes()) != 3 {
		t.Errorf("one undo should restore both erased strokes, have %d", len(s.Strokes()))
	}
}

func TestPanZoomNotUndoTracked(t *testing.T) {
	s := newTestState()
	drawStroke(t, s, [2]float64{0, 0})
	v := Viewport{Scale: 2, PanX: 30, PanY: -4}
	if err := s.SetViewport(v); err != nil {
		t.Fatal(err)
	}
	s.Undo()
	if len(s.Drawings()) != 0 {
		t.Error("expected stroke to be undone")
	}
	if s.Viewport() != v {
		t.Errorf("viewport rolled back: %+v", s.Viewport())
	}
	if err := s.SetViewport(Viewport{Scale: 0}); err == nil {
		t.Error("expected error for zero scale")
	}
}

func TestNewDrawingStartsSession(t *testing.T) {
	s := newTestState()
	drawStroke(t, s, [2]float64{0, 0})
	s.NewDrawing(ink.KindShape)
	drawStroke(t, s, [2]float64{1, 1})
	ds := s.Drawings()
	if len(ds) != 2 {
		t.Fatalf("expected 2 drawings, got %d", len(ds))
	}
	if ds[1].Kind != ink.KindShape {
		t.Errorf("kind = %s", ds[1].Kind)
	}
	// Undoing the first stroke of a session must not merge the next stroke
	// into the previous drawing.
	s.Undo()
	drawStroke(t, s, [2]float64{2, 2})
	if got := len(s.Drawings()); got != 2 {
		t.Errorf("expected 2 drawings after redraw, got %d", got)
	}
}

func TestBeginStrokeRejectsBadColor(t *testing.T) {
	s := newTestState()
	if _, err := s.BeginStroke("#12", 2); err == nil {
		t.Fatalf("expected color error")
	}
	if s.Active() != nil {
		t.Fatalf("no stroke should be active after a rejected begin")
	}
}

func TestTranscriptionSurvivesUndoRedo(t *testing.T) {
	s := newTestState()
	drawStroke(t, s, [2]float64{0, 0}, [2]float64{5, 5})
	first := s.Drawings()[0].ID
	s.NewDrawing(ink.KindHandwriting)
	drawStroke(t, s, [2]float64{20, 0})

	if !s.SetTranscription(first, "hello", "hi") {
		t.Fatalf("SetTranscription did not find drawing %s", first)
	}
	if s.SetTranscription("missing", "x", "y") {
		t.Fatalf("SetTranscription reported an unknown drawing")
	}
	if !s.Undo() {
		t.Fatalf("expected undo")
	}
	ds := s.Drawings()
	if len(ds) != 1 || ds[0].Transcription != "hello" || ds[0].AIResponse != "hi" {
		t.Fatalf("transcription lost after undo: %+v", ds)
	}
	// Undo the first stroke too, then redo both.
	s.Undo()
	s.Redo()
	s.Redo()
	ds = s.Drawings()
	if len(ds) != 2 || ds[0].Transcription != "hello" {
		t.Fatalf("transcription lost after redo: %+v", ds)
	}
	if ds[1].Transcription != "" {
		t.Fatalf("unrelated drawing annotated: %+v", ds[1])
	}
	if undo, _ := s.History().Depth(); undo != 2 {
		t.Fatalf("SetTranscription must not add history, undo depth %d", undo)
	}
}

func TestViewportRoundTrip(t *testing.T) {
	v := Viewport{Scale: 2, PanX: 10, PanY: 20}
	p := curve.Pt(3, 4)
	scr := v.ToScreen(p)
	if scr != curve.Pt(16, 28) {
		t.Fatalf("ToScreen = %v", scr)
	}
	back := v.ToCanvas(scr)
	if back.Distance(p) > 1e-9 {
		t.Errorf("ToCanvas = %v, want %v", back, p)
	}
}

func TestStrokesIn(t *testing.T) {
	s := newTestState()
	a := drawStroke(t, s, [2]float64{1, 1}, [2]float64{2, 2})
	drawStroke(t, s, [2]float64{50, 50})
	sameStrokes(t, s.StrokesIn(curve.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}), a)
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m, got, err)
		}
	}
	if _, err := ParseMode("lasso"); err == nil {
		t.Error("expected error")
	}
}
