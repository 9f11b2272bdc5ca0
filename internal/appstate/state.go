package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"
	"unicode"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/cursive/internal/canvas"
	"github.com/example/cursive/internal/clipboard"
	"github.com/example/cursive/internal/ink"
	"github.com/example/cursive/internal/input"
	"github.com/example/cursive/internal/notebook"
	"github.com/example/cursive/internal/notify"
	"github.com/example/cursive/internal/render"
	"github.com/example/cursive/internal/theme"
	"github.com/example/cursive/internal/transcribe"
)

// AppState holds the window's collaborators and UI state. Everything except
// the paint goroutine runs on the window's event goroutine, which is the
// only writer of the session's canvas.
type AppState struct {
	Session   *notebook.Session
	Theme     *theme.Theme
	Clipboard clipboard.Writer
	Notifier  *notify.Notifier
	// Prompt is sent with every transcription request.
	Prompt string
	// Timeout bounds background saves and transcriptions.
	Timeout time.Duration
	Now     func() time.Time

	width, height int
	buttons       []*CacheButton
	actions       map[string]func()
	keys          map[KeyShortcut]string
	hover         int
	message       string
	messageUntil  time.Time
	transcribing  bool
	saving        bool

	ctx     context.Context
	cancel  context.CancelFunc
	send    func(any)
	results chan any

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithTheme sets the window palette.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithClipboard replaces the desktop clipboard.
func WithClipboard(c clipboard.Writer) Option { return func(a *AppState) { a.Clipboard = c } }

// WithNotifier sets where desktop notifications go.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.Notifier = n } }

// WithPrompt sets the transcription prompt.
func WithPrompt(p string) Option { return func(a *AppState) { a.Prompt = p } }

// WithTimeout bounds background saves and transcriptions.
func WithTimeout(d time.Duration) Option { return func(a *AppState) { a.Timeout = d } }

// WithSize sets the initial window size.
func WithSize(w, h int) Option { return func(a *AppState) { a.width, a.height = w, h } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState editing sess.
func New(sess *notebook.Session, opts ...Option) *AppState {
	a := &AppState{
		Session:   sess,
		Theme:     theme.Default(),
		Clipboard: clipboard.System,
		Timeout:   60 * time.Second,
		Now:       time.Now,
		width:     1024,
		height:    768,
		hover:     -1,
	}
	for _, o := range opts {
		o(a)
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	// Results from background work must be handled on the event goroutine.
	// Main sends them through the window; without one they queue here.
	a.results = make(chan any, 4)
	a.send = func(ev any) { a.results <- ev }

	// An unconfigured pen takes the theme's ink.
	if pen := sess.Input.Tools().Pen(); pen != nil && pen.Settings.Color == ink.DefaultColor {
		pen.Settings.Color = ink.FormatColor(a.Theme.Ink)
	}

	a.registerActions()
	a.buttons = layoutButtons(a.trigger)
	sess.Input.SetOrigin(float64(toolbarWidth), 0)
	return a
}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

func (a *AppState) register(name string, fn func(), keys ...KeyShortcut) {
	a.actions[name] = fn
	for _, k := range keys {
		a.keys[k] = name
	}
}

func (a *AppState) registerActions() {
	a.actions = map[string]func(){}
	a.keys = map[KeyShortcut]string{}
	in := a.Session.Input

	tool := func(m canvas.Mode) func() {
		return func() { in.SetMode(m) }
	}
	a.register("tool.draw", tool(canvas.ModeDraw), KeyShortcut{Rune: 'd'})
	a.register("tool.select", tool(canvas.ModeSelect), KeyShortcut{Rune: 's'})
	a.register("tool.pan", tool(canvas.ModePan), KeyShortcut{Rune: 'p'})
	a.register("tool.zoom", tool(canvas.ModeZoom), KeyShortcut{Rune: 'z'})
	a.register("tool.erase", tool(canvas.ModeErase), KeyShortcut{Rune: 'e'})

	a.register("undo", func() {
		if in.Undo() {
			a.Session.MarkDirty()
		}
	}, KeyShortcut{Rune: 'z', Modifiers: key.ModControl})
	a.register("redo", func() {
		if in.Redo() {
			a.Session.MarkDirty()
		}
	}, KeyShortcut{Rune: 'y', Modifiers: key.ModControl},
		KeyShortcut{Rune: 'z', Modifiers: key.ModControl | key.ModShift})
	a.register("new", func() {
		a.Session.State.NewDrawing(ink.KindHandwriting)
		a.flash("new drawing")
	}, KeyShortcut{Rune: 'n'})
	a.register("clear", func() {
		a.Session.State.Clear()
		a.Session.MarkDirty()
	}, KeyShortcut{Code: key.CodeDeleteBackspace, Modifiers: key.ModControl})
	a.register("cancel", func() {
		in.Handle(input.PointerEvent{Kind: input.PointerCancel})
	}, KeyShortcut{Code: key.CodeEscape})

	a.register("zoom.in", func() { a.zoom(1) }, KeyShortcut{Rune: '+'}, KeyShortcut{Rune: '='})
	a.register("zoom.out", func() { a.zoom(-1) }, KeyShortcut{Rune: '-'})
	a.register("zoom.reset", func() {
		if err := a.Session.State.SetViewport(canvas.IdentityViewport); err != nil {
			log.Printf("reset view: %v", err)
		}
	}, KeyShortcut{Rune: '0'})

	a.register("save", a.save, KeyShortcut{Rune: 's', Modifiers: key.ModControl})
	a.register("copy", a.copySelection, KeyShortcut{Rune: 'c', Modifiers: key.ModControl})
	a.register("transcribe", a.transcribe, KeyShortcut{Rune: 't', Modifiers: key.ModControl})
}

// trigger runs a named action.
func (a *AppState) trigger(name string) {
	if fn, ok := a.actions[name]; ok {
		fn()
	}
}

func (a *AppState) zoom(steps int) {
	area := canvasRect(a.width, a.height)
	c := area.Min.Add(area.Max).Div(2)
	a.Session.Input.ZoomBy(steps, float64(c.X), float64(c.Y))
}

func (a *AppState) flash(msg string) {
	log.Print(msg)
	a.message = msg
	a.messageUntil = a.Now().Add(2 * time.Second)
}

// selection returns the box being dragged or, failing that, the last one.
func (a *AppState) selection() (input.SelectionBox, bool) {
	sel := a.Session.Input.Tools().Select()
	if sel == nil {
		return input.SelectionBox{}, false
	}
	if b, ok := sel.Box(); ok {
		return b, true
	}
	return sel.Last()
}

type saveDone struct {
	drawings []*ink.Drawing
	err      error
}

type transcribeDone struct {
	pending *notebook.Pending
	result  *transcribe.Result
	err     error
}

// save writes a snapshot of the canvas on another goroutine.
func (a *AppState) save() {
	if a.saving {
		a.flash("save already in progress")
		return
	}
	a.saving = true
	snap := a.Session.Snapshot()
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, a.Timeout)
		defer cancel()
		a.send(saveDone{drawings: snap.Drawings, err: a.Session.SaveSnapshot(ctx, snap)})
	}()
}

func (a *AppState) copySelection() {
	box, ok := a.selection()
	if !ok || box.Empty() {
		a.flash("select an area first")
		return
	}
	opts := a.Session.Render
	opts.Padding = 0
	img, err := render.Region(a.Session.State.Drawings(), box.Rect(), opts)
	if err != nil {
		a.flash(fmt.Sprintf("copy failed: %v", err))
		return
	}
	if err := a.Clipboard.WriteImage(img); err != nil {
		a.flash(fmt.Sprintf("copy failed: %v", err))
		return
	}
	a.flash("selection copied to clipboard")
	a.Notifier.Copy("selection", img)
}

// transcribe renders the selection now and asks the AI service on another
// goroutine. The result is applied when it comes back.
func (a *AppState) transcribe() {
	if a.transcribing {
		a.flash("transcription already in progress")
		return
	}
	box, ok := a.selection()
	if !ok {
		a.flash("select some writing first")
		return
	}
	p, err := a.Session.Prepare(box, a.Prompt)
	if err != nil {
		a.flash(fmt.Sprintf("transcribe: %v", err))
		return
	}
	a.transcribing = true
	a.flash("reading…")
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, a.Timeout)
		defer cancel()
		res, err := p.Run(ctx)
		a.send(transcribeDone{pending: p, result: res, err: err})
	}()
}

// handle processes one event and reports whether the window needs a
// repaint and whether it should close.
func (a *AppState) handle(ev any) (repaint, quit bool) {
	switch e := ev.(type) {
	case mouse.Event:
		return a.mouse(e), false
	case key.Event:
		return a.key(e)
	case size.Event:
		a.width, a.height = e.WidthPx, e.HeightPx
		return true, false
	case lifecycle.Event:
		if e.To == lifecycle.StageDead {
			return false, true
		}
		if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
			a.Session.Input.Handle(input.PointerEvent{Kind: input.PointerCancel})
			return true, false
		}
	case saveDone:
		a.saving = false
		if e.err != nil {
			a.flash(fmt.Sprintf("save failed: %v", e.err))
			return true, false
		}
		a.Session.MarkSaved(e.drawings)
		a.flash("saved " + a.Session.ID)
		a.Notifier.Save(a.Session.ID)
		return true, false
	case transcribeDone:
		a.transcribing = false
		if e.err != nil {
			a.flash(fmt.Sprintf("transcribe failed: %v", e.err))
			return true, false
		}
		a.Session.Apply(e.pending, e.result)
		a.flash("read: " + e.result.Text)
		a.Notifier.Transcribe(e.result.Text)
		return true, false
	}
	return false, false
}

func (a *AppState) mouse(e mouse.Event) bool {
	in := a.Session.Input
	x, y := float64(e.X), float64(e.Y)

	if e.Button == mouse.ButtonWheelUp || e.Button == mouse.ButtonWheelDown {
		if e.Direction == mouse.DirStep || e.Direction == mouse.DirPress {
			steps := 1
			if e.Button == mouse.ButtonWheelDown {
				steps = -1
			}
			in.ZoomBy(steps, x, y)
			return true
		}
		return false
	}

	// The toolbar only sees clicks that did not start on the page.
	if !in.Active() && int(e.X) < toolbarWidth {
		return a.toolbar(e)
	}
	if a.hover != -1 {
		a.hover = -1
	}

	pe := input.PointerEvent{X: x, Y: y, Time: a.Now().UnixMilli()}
	switch {
	case e.Direction == mouse.DirPress && e.Button == mouse.ButtonLeft:
		pe.Kind = input.PointerDown
	case e.Direction == mouse.DirRelease && e.Button == mouse.ButtonLeft:
		pe.Kind = input.PointerUp
	case e.Direction == mouse.DirNone:
		if !in.Active() {
			return false
		}
		pe.Kind = input.PointerMove
	default:
		return false
	}
	in.Handle(pe)
	return true
}

// toolbar handles hover and clicks over the left panel.
func (a *AppState) toolbar(e mouse.Event) bool {
	p := image.Pt(int(e.X), int(e.Y))
	hover := -1
	for i, b := range a.buttons {
		if p.In(b.Rect()) {
			hover = i
			break
		}
	}
	changed := hover != a.hover
	a.hover = hover
	if e.Direction != mouse.DirPress || e.Button != mouse.ButtonLeft {
		return changed
	}
	if hover >= 0 {
		a.buttons[hover].Activate()
		return true
	}
	colors, sizes := swatchRects(len(a.buttons))
	pen := a.Session.Input.Tools().Pen()
	if pen == nil {
		return changed
	}
	for i, r := range colors {
		if p.In(r) {
			pen.Settings.Color = ink.FormatColor(palette[i])
			return true
		}
	}
	for i, r := range sizes {
		if p.In(r) {
			pen.Settings.Width = widths[i]
			return true
		}
	}
	return changed
}

func (a *AppState) key(e key.Event) (repaint, quit bool) {
	if e.Direction != key.DirPress {
		return false, false
	}
	mods := e.Modifiers & (key.ModControl | key.ModShift)
	r := unicode.ToLower(e.Rune)
	if r == 'q' && e.Modifiers&key.ModControl == 0 {
		return false, true
	}
	candidates := []KeyShortcut{
		{Rune: r, Modifiers: mods},
		{Rune: r, Modifiers: mods &^ key.ModShift},
		{Code: e.Code, Modifiers: mods},
	}
	for _, ks := range candidates {
		if ks.Rune <= 0 && ks.Code == 0 {
			continue
		}
		if name, ok := a.keys[ks]; ok {
			a.trigger(name)
			return true, false
		}
	}
	return false, false
}

// snapshot copies what the next frame needs.
func (a *AppState) snapshot() paintState {
	st := a.Session.State
	ps := paintState{
		width:        a.width,
		height:       a.height,
		theme:        a.Theme,
		drawings:     st.Drawings(),
		view:         st.Viewport(),
		mode:         st.Mode(),
		buttons:      a.buttons,
		hover:        a.hover,
		message:      a.message,
		messageUntil: a.messageUntil,
		tolerance:    a.Session.Render.Tolerance,
	}
	if ps.tolerance <= 0 {
		ps.tolerance = 0.25
	}
	if act := st.Active(); act != nil {
		cp := *act
		cp.Points = append([]ink.Point(nil), act.Points...)
		ps.active = &cp
	}
	if st.Mode() == canvas.ModeSelect {
		if b, ok := a.selection(); ok {
			ps.selection = &b
		}
	}
	if pen := a.Session.Input.Tools().Pen(); pen != nil {
		ps.penColor, ps.penWidth = pen.Settings.Color, pen.Settings.Width
	}
	undo, redo := st.History().Depth()
	dirty := ""
	if a.Session.Dirty() {
		dirty = " *"
	}
	ps.status = fmt.Sprintf("%s%s  %s  zoom %.0f%%  undo %d  redo %d  drawings %d",
		a.Session.ID, dirty, st.Mode(), ps.view.Scale*100, undo, redo, len(ps.drawings))
	return ps
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		a.cancel()
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main opens the window on s and runs until it is closed.
func (a *AppState) Main(s screen.Screen) {
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: a.width, Height: a.height, Title: "Cursive - " + a.Session.ID})
	if err != nil {
		log.Printf("new window: %v", err)
		return
	}
	defer w.Release()
	defer a.notifyClose()

	a.send = func(ev any) { w.Send(ev) }

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(a.ctx)
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()

	requestPaint := func() {
		st := a.snapshot()
		paintMu.Lock()
		if paintCancel != nil && dropCount < frameDropThreshold {
			paintCancel()
			dropCount++
		}
		paintMu.Unlock()
		select {
		case paintCh <- st:
		default:
			// Replace the queued frame with the newer one.
			select {
			case <-paintCh:
			default:
			}
			paintCh <- st
		}
	}

	for {
		switch e := w.NextEvent().(type) {
		case paint.Event:
			requestPaint()
			continue
		case error:
			if !errors.Is(e, context.Canceled) {
				log.Printf("window: %v", e)
			}
			continue
		default:
			repaint, quit := a.handle(e)
			if quit {
				return
			}
			if repaint {
				requestPaint()
			}
		}
	}
}
