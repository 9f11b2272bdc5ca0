package appstate

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/cursive/internal/canvas"
	"github.com/example/cursive/internal/clipboard"
	"github.com/example/cursive/internal/ink"
	"github.com/example/cursive/internal/notebook"
	"github.com/example/cursive/internal/store"
	"github.com/example/cursive/internal/theme"
	"github.com/example/cursive/internal/transcribe"
)

func newTestApp(t *testing.T, ai transcribe.Transcriber) (*AppState, *store.MemoryStore, *clipboard.Memory) {
	t.Helper()
	ms := store.NewMemoryStore()
	clip := &clipboard.Memory{}
	sess := notebook.New("nb", ms, ai, nil, nil)
	a := New(sess, WithClipboard(clip), WithSize(640, 480), WithTimeout(time.Second))
	t.Cleanup(a.Close)
	return a, ms, clip
}

func press(a *AppState, x, y float32) {
	a.Handle(mouse.Event{X: x, Y: y, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
}

func drag(a *AppState, x, y float32) {
	a.Handle(mouse.Event{X: x, Y: y, Direction: mouse.DirNone})
}

func release(a *AppState, x, y float32) {
	a.Handle(mouse.Event{X: x, Y: y, Button: mouse.ButtonLeft, Direction: mouse.DirRelease})
}

func stroke(a *AppState, pts ...[2]float32) {
	press(a, pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		drag(a, p[0], p[1])
	}
	last := pts[len(pts)-1]
	release(a, last[0], last[1])
}

func typeKey(a *AppState, r rune, mods key.Modifiers) {
	a.Handle(key.Event{Rune: r, Modifiers: mods, Direction: key.DirPress})
}

func waitResult(t *testing.T, a *AppState) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Wait(ctx); err != nil {
		t.Fatalf("waiting for background result: %v", err)
	}
}

func TestMouseDrawsInCanvasCoordinates(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	tw := float32(toolbarWidth)
	stroke(a, [2]float32{tw + 10, 20}, [2]float32{tw + 50, 20}, [2]float32{tw + 90, 30})

	strokes := a.Session.State.Strokes()
	if len(strokes) != 1 {
		t.Fatalf("got %d strokes, want 1", len(strokes))
	}
	got := strokes[0].Points[0]
	if got.X != 10 || got.Y != 20 {
		t.Errorf("first point = (%v, %v), want (10, 20)", got.X, got.Y)
	}
	if len(strokes[0].Points) != 3 {
		t.Errorf("got %d points, want 3", len(strokes[0].Points))
	}
	if !a.Session.Dirty() {
		t.Error("session should be dirty after drawing")
	}
}

func TestMoveWithoutPressIsIgnored(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	if a.Handle(mouse.Event{X: 300, Y: 300, Direction: mouse.DirNone}) {
		t.Error("hover over the page should not repaint")
	}
	if n := len(a.Session.State.Strokes()); n != 0 {
		t.Fatalf("got %d strokes", n)
	}
}

func TestToolbarSelectsTool(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	for i, b := range a.buttons {
		ab := b.Button.(*ActionButton)
		if !ab.isTool {
			continue
		}
		r := b.Rect()
		press(a, float32(r.Min.X+2), float32(r.Min.Y+2))
		if got := a.Session.State.Mode(); got != ab.mode {
			t.Errorf("button %d (%s): mode = %v, want %v", i, ab.label, got, ab.mode)
		}
	}
}

func TestToolbarPalette(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	colors, sizes := swatchRects(len(a.buttons))
	c := colors[2].Min.Add(image.Pt(2, 2))
	press(a, float32(c.X), float32(c.Y))
	w := sizes[3].Min.Add(image.Pt(2, 2))
	press(a, float32(w.X), float32(w.Y))

	pen := a.Session.Input.Tools().Pen()
	if pen.Settings.Color != ink.FormatColor(palette[2]) {
		t.Errorf("pen color = %s", pen.Settings.Color)
	}
	if pen.Settings.Width != widths[3] {
		t.Errorf("pen width = %v", pen.Settings.Width)
	}
}

func TestKeyboardShortcuts(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	tw := float32(toolbarWidth)
	stroke(a, [2]float32{tw + 10, 10}, [2]float32{tw + 40, 40})

	typeKey(a, 'z', key.ModControl)
	if n := len(a.Session.State.Strokes()); n != 0 {
		t.Fatalf("after undo got %d strokes", n)
	}
	typeKey(a, 'y', key.ModControl)
	if n := len(a.Session.State.Strokes()); n != 1 {
		t.Fatalf("after redo got %d strokes", n)
	}
	typeKey(a, 'Z', key.ModControl|key.ModShift)
	if n := len(a.Session.State.Strokes()); n != 1 {
		t.Fatalf("redo with nothing to redo changed strokes: %d", n)
	}

	typeKey(a, 'e', 0)
	if m := a.Session.State.Mode(); m != canvas.ModeErase {
		t.Errorf("mode = %v, want erase", m)
	}
	typeKey(a, 'Z', 0)
	if m := a.Session.State.Mode(); m != canvas.ModeZoom {
		t.Errorf("mode = %v, want zoom", m)
	}

	before := a.Session.State.Viewport().Scale
	typeKey(a, '+', key.ModShift)
	if after := a.Session.State.Viewport().Scale; after <= before {
		t.Errorf("zoom in: scale %v -> %v", before, after)
	}
	typeKey(a, '0', 0)
	if v := a.Session.State.Viewport(); v != canvas.IdentityViewport {
		t.Errorf("reset view = %+v", v)
	}

	if _, quit := a.handle(key.Event{Rune: 'q', Direction: key.DirPress}); !quit {
		t.Error("q should quit")
	}
}

func TestWheelZoomsAroundPointer(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	a.Handle(mouse.Event{X: 300, Y: 200, Button: mouse.ButtonWheelUp, Direction: mouse.DirStep})
	v := a.Session.State.Viewport()
	if v.Scale <= 1 {
		t.Fatalf("scale = %v", v.Scale)
	}
	a.Handle(mouse.Event{X: 300, Y: 200, Button: mouse.ButtonWheelDown, Direction: mouse.DirStep})
	if s := a.Session.State.Viewport().Scale; s >= v.Scale {
		t.Errorf("wheel down should zoom out, scale %v -> %v", v.Scale, s)
	}
}

func TestFocusLossCancelsStroke(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	tw := float32(toolbarWidth)
	press(a, tw+10, 10)
	drag(a, tw+40, 40)
	a.Handle(lifecycle.Event{From: lifecycle.StageFocused, To: lifecycle.StageVisible})
	release(a, tw+50, 50)
	if n := len(a.Session.State.Strokes()); n != 0 {
		t.Fatalf("cancelled stroke was kept: %d strokes", n)
	}
}

func TestSaveRunsInBackground(t *testing.T) {
	a, ms, _ := newTestApp(t, nil)
	tw := float32(toolbarWidth)
	stroke(a, [2]float32{tw + 10, 10}, [2]float32{tw + 40, 40})

	typeKey(a, 's', key.ModControl)
	waitResult(t, a)

	got, err := ms.Load(context.Background(), "nb")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Drawings) != 1 {
		t.Fatalf("saved %d drawings, want 1", len(got.Drawings))
	}
	if got.Viewport == nil || *got.Viewport != a.Session.State.Viewport() {
		t.Errorf("saved viewport %v, want %v", got.Viewport, a.Session.State.Viewport())
	}
	if a.Session.Dirty() {
		t.Error("session should be clean after save")
	}
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	a, ms, _ := newTestApp(t, nil)
	ms.Err = errors.New("disk full")
	tw := float32(toolbarWidth)
	stroke(a, [2]float32{tw + 10, 10}, [2]float32{tw + 40, 40})

	typeKey(a, 's', key.ModControl)
	waitResult(t, a)
	if !a.Session.Dirty() {
		t.Error("failed save should leave the session dirty")
	}
	if a.saving {
		t.Error("saving flag not cleared")
	}
}

func selectAll(a *AppState) {
	tw := float32(toolbarWidth)
	typeKey(a, 's', 0)
	stroke(a, [2]float32{tw + 1, 1}, [2]float32{tw + 200, 200})
}

func TestCopySelection(t *testing.T) {
	a, _, clip := newTestApp(t, nil)
	tw := float32(toolbarWidth)
	stroke(a, [2]float32{tw + 20, 20}, [2]float32{tw + 80, 80})

	typeKey(a, 'c', key.ModControl)
	if img, _ := clip.Contents(); img != nil {
		t.Fatal("copy without a selection should not write")
	}

	selectAll(a)
	typeKey(a, 'c', key.ModControl)
	img, _ := clip.Contents()
	if img == nil {
		t.Fatal("nothing copied")
	}
	if b := img.Bounds(); b.Dx() < 150 || b.Dy() < 150 {
		t.Errorf("copied image bounds = %v", b)
	}
}

func TestTranscribeAppliesResult(t *testing.T) {
	var calls int
	ai := transcribe.Func(func(ctx context.Context, req transcribe.Request) (*transcribe.Result, error) {
		calls++
		if len(req.Image) == 0 || len(req.Strokes) == 0 {
			t.Errorf("request missing image or strokes: %d bytes, %d strokes", len(req.Image), len(req.Strokes))
		}
		return &transcribe.Result{Text: "hello", Reply: "TRANSCRIPTION: hello"}, nil
	})
	a, _, _ := newTestApp(t, ai)
	tw := float32(toolbarWidth)
	stroke(a, [2]float32{tw + 20, 20}, [2]float32{tw + 80, 80})
	selectAll(a)

	typeKey(a, 't', key.ModControl)
	if !a.transcribing {
		t.Fatal("transcription did not start")
	}
	typeKey(a, 't', key.ModControl)
	waitResult(t, a)

	if calls != 1 {
		t.Errorf("AI called %d times, want 1", calls)
	}
	d := a.Session.State.Drawings()
	if len(d) != 1 || d[0].Transcription != "hello" {
		t.Fatalf("transcription not applied: %+v", d)
	}
}

func TestTranscribeWithoutService(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	tw := float32(toolbarWidth)
	stroke(a, [2]float32{tw + 20, 20}, [2]float32{tw + 80, 80})
	selectAll(a)
	typeKey(a, 't', key.ModControl)
	if a.transcribing {
		t.Fatal("transcription should not start without a service")
	}
	if a.message == "" {
		t.Error("expected a message explaining the failure")
	}
}

func near(a, b color.RGBA) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) <= 2 && d(a.G, b.G) <= 2 && d(a.B, b.B) <= 2 && d(a.A, b.A) <= 2
}

func TestFrame(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	th := theme.Default()
	tw := float32(toolbarWidth)
	stroke(a, [2]float32{tw + 100, 100}, [2]float32{tw + 200, 100})

	img := a.Frame()
	if got := img.Bounds(); got != image.Rect(0, 0, 640, 480) {
		t.Fatalf("frame bounds = %v", got)
	}
	if got := img.RGBAAt(toolbarWidth+150, 100); !near(got, th.Ink) {
		t.Errorf("stroke pixel = %v, want %v", got, th.Ink)
	}
	if got := img.RGBAAt(toolbarWidth+300, 310); got != th.Paper {
		t.Errorf("page pixel = %v, want %v", got, th.Paper)
	}
	if got := img.RGBAAt(toolbarWidth+300, 320); got != th.Grid {
		t.Errorf("rule pixel = %v, want %v", got, th.Grid)
	}
	if got := img.RGBAAt(toolbarWidth/2, 470); got != th.ToolbarBackground {
		t.Errorf("toolbar pixel = %v, want %v", got, th.ToolbarBackground)
	}
}
