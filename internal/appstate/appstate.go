// Package appstate runs the interactive notebook window.
package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"honnef.co/go/curve"

	"github.com/example/cursive/internal/canvas"
	"github.com/example/cursive/internal/ink"
	"github.com/example/cursive/internal/input"
	"github.com/example/cursive/internal/render"
	"github.com/example/cursive/internal/theme"
)

const (
	buttonHeight = 24
	statusHeight = 24
	swatchSize   = 16
	// lineSpacing is the distance between ruled lines in canvas units.
	lineSpacing = 40
	marginX     = 64
)

var toolbarWidth = 72

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 32, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Fatalf("font face: %v", err)
	}

	// Widen the toolbar so every label fits.
	d := &font.Drawer{Face: basicfont.Face7x13}
	for _, lbl := range []string{"Cursive", "E:Erase", "^T:Read", "N:New", "^Z:Undo"} {
		if w := d.MeasureString(lbl).Ceil() + 8; w > toolbarWidth {
			toolbarWidth = w
		}
	}
}

// palette holds the pen colors offered in the toolbar.
var palette = []color.RGBA{
	{0, 0, 0, 255},
	{20, 20, 40, 255},
	{200, 30, 30, 255},
	{30, 120, 40, 255},
	{30, 60, 200, 255},
	{120, 40, 160, 255},
	{200, 120, 20, 255},
	{120, 120, 120, 255},
}

// widths are the pen widths offered in the toolbar, in canvas units.
var widths = []float64{1, 2, 3, 5, 8}

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, th *theme.Theme, state ButtonState)
	Rect() image.Rectangle
	Activate()
}

// CacheButton wraps another Button and caches its rendered states. It is
// only drawn from the paint goroutine.
type CacheButton struct {
	Button
	th    *theme.Theme
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	if cb.th != th {
		cb.th = th
		cb.cache = [3]*image.RGBA{}
	}
	if cb.cache[state] == nil {
		img := image.NewRGBA(cb.Button.Rect())
		cb.Button.Draw(img, th, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

// ActionButton runs a named action when clicked. Mode is set for buttons
// that select a tool, so the current tool can be highlighted.
type ActionButton struct {
	label  string
	action string
	mode   canvas.Mode
	isTool bool
	rect   image.Rectangle
	run    func(string)
}

func (b *ActionButton) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	bg := th.ToolbarBackground
	switch state {
	case StateHover:
		bg = blend(th.ToolbarBackground, th.ToolActive, 0.5)
	case StatePressed:
		bg = th.ToolActive
	}
	draw.Draw(dst, b.rect, &image.Uniform{bg}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ToolbarText), Face: basicfont.Face7x13,
		Dot: fixed.P(b.rect.Min.X+4, b.rect.Min.Y+16)}
	d.DrawString(b.label)
}

func (b *ActionButton) Rect() image.Rectangle { return b.rect }

func (b *ActionButton) Activate() {
	if b.run != nil {
		b.run(b.action)
	}
}

type buttonSpec struct {
	label  string
	action string
	mode   canvas.Mode
	isTool bool
}

var toolbarSpecs = []buttonSpec{
	{"D:Draw", "tool.draw", canvas.ModeDraw, true},
	{"S:Select", "tool.select", canvas.ModeSelect, true},
	{"P:Pan", "tool.pan", canvas.ModePan, true},
	{"Z:Zoom", "tool.zoom", canvas.ModeZoom, true},
	{"E:Erase", "tool.erase", canvas.ModeErase, true},
	{"^Z:Undo", "undo", 0, false},
	{"^Y:Redo", "redo", 0, false},
	{"N:New", "new", 0, false},
	{"^C:Copy", "copy", 0, false},
	{"^T:Read", "transcribe", 0, false},
	{"^S:Save", "save", 0, false},
}

// layoutButtons stacks the toolbar buttons below the title.
func layoutButtons(run func(string)) []*CacheButton {
	var out []*CacheButton
	y := buttonHeight
	for _, s := range toolbarSpecs {
		out = append(out, &CacheButton{Button: &ActionButton{
			label:  s.label,
			action: s.action,
			mode:   s.mode,
			isTool: s.isTool,
			rect:   image.Rect(0, y, toolbarWidth, y+buttonHeight),
			run:    run,
		}})
		y += buttonHeight
	}
	return out
}

// swatchRects returns the palette squares followed by the width rows, laid
// out below the buttons.
func swatchRects(buttons int) (colors, sizes []image.Rectangle) {
	y := buttonHeight*(buttons+1) + 4
	x := 4
	for range palette {
		colors = append(colors, image.Rect(x, y, x+swatchSize, y+swatchSize))
		x += swatchSize + 2
		if x+swatchSize > toolbarWidth {
			x = 4
			y += swatchSize + 2
		}
	}
	if x != 4 {
		y += swatchSize + 2
	}
	y += 4
	for range widths {
		sizes = append(sizes, image.Rect(0, y, toolbarWidth, y+swatchSize))
		y += swatchSize
	}
	return colors, sizes
}

// canvasRect is the window area the notebook page occupies.
func canvasRect(width, height int) image.Rectangle {
	return image.Rect(toolbarWidth, 0, width, height-statusHeight)
}

// paintState is a copy of everything a frame needs, taken on the event
// goroutine so the paint goroutine never reads the live canvas.
type paintState struct {
	width, height int
	theme         *theme.Theme
	drawings      []*ink.Drawing
	active        *ink.Stroke
	view          canvas.Viewport
	mode          canvas.Mode
	selection     *input.SelectionBox
	buttons       []*CacheButton
	hover         int
	penColor      string
	penWidth      float64
	status        string
	message       string
	messageUntil  time.Time
	tolerance     float64
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	if !composeFrame(ctx, b.RGBA(), st) {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// composeFrame paints st into dst. It returns false when ctx was canceled
// part way through.
func composeFrame(ctx context.Context, dst *image.RGBA, st paintState) bool {
	th := st.theme
	draw.Draw(dst, dst.Bounds(), &image.Uniform{th.Background}, image.Point{}, draw.Src)

	area := canvasRect(st.width, st.height).Intersect(dst.Bounds())
	if !area.Empty() {
		draw.Draw(dst, area, &image.Uniform{th.Paper}, image.Point{}, draw.Src)
		page := dst.SubImage(area).(*image.RGBA)
		drawRules(page, area, st.view, th)
		if ctx.Err() != nil {
			return false
		}
		aff := st.view.Transform().ThenTranslate(curve.Vec(float64(area.Min.X), float64(area.Min.Y)))
		for _, d := range st.drawings {
			for _, s := range d.Strokes {
				drawStroke(page, s, aff, st.tolerance)
			}
			if ctx.Err() != nil {
				return false
			}
		}
		if st.active != nil {
			drawStroke(page, st.active, aff, st.tolerance)
		}
		if st.selection != nil {
			r := aff.TransformRectBoundingBox(st.selection.Rect())
			sel := image.Rect(int(r.X0), int(r.Y0), int(math.Ceil(r.X1)), int(math.Ceil(r.Y1)))
			drawDashedRect(page, sel, 4, 1, th.Selection, th.Paper)
		}
	}
	if ctx.Err() != nil {
		return false
	}

	drawToolbar(dst, st)
	drawStatus(dst, st)

	if st.message != "" && time.Now().Before(st.messageUntil) {
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.StatusText), Face: messageFace}
		wmsg := d.MeasureString(st.message).Ceil()
		ascent := messageFace.Metrics().Ascent.Ceil()
		descent := messageFace.Metrics().Descent.Ceil()
		px := area.Min.X + (area.Dx()-wmsg)/2
		py := area.Min.Y + (area.Dy()-ascent-descent)/2 + ascent
		rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
		draw.Draw(dst, rect, &image.Uniform{withAlpha(th.ToolbarBackground, 230)}, image.Point{}, draw.Over)
		drawRect(dst, rect, th.StatusText)
		d.Dot = fixed.P(px, py)
		d.DrawString(st.message)
	}
	return ctx.Err() == nil
}

// drawStroke renders s clipped to its own on-screen bounds, so each stroke
// only rasterizes the pixels it can touch.
func drawStroke(page *image.RGBA, s *ink.Stroke, aff curve.Affine, tol float64) {
	if len(s.Points) == 0 {
		return
	}
	b := aff.TransformRectBoundingBox(s.Bounds())
	pad := s.Width*math.Hypot(aff.N0, aff.N1)/2 + 2
	r := image.Rect(int(b.X0-pad), int(b.Y0-pad), int(math.Ceil(b.X1+pad)), int(math.Ceil(b.Y1+pad))).Intersect(page.Bounds())
	if r.Empty() {
		return
	}
	if err := render.Stroke(page.SubImage(r).(*image.RGBA), s, aff, tol); err != nil {
		log.Printf("draw stroke %s: %v", s.ID, err)
	}
}

// drawRules draws the ruled lines and the left margin of the page.
func drawRules(page *image.RGBA, area image.Rectangle, view canvas.Viewport, th *theme.Theme) {
	scale := view.Scale
	if scale <= 0 {
		scale = 1
	}
	if lineSpacing*scale >= 4 {
		top := view.ToCanvas(curve.Pt(0, 0)).Y
		bottom := view.ToCanvas(curve.Pt(0, float64(area.Dy()))).Y
		for k := math.Ceil(top / lineSpacing); k*lineSpacing <= bottom; k++ {
			y := area.Min.Y + int(view.ToScreen(curve.Pt(0, k*lineSpacing)).Y)
			draw.Draw(page, image.Rect(area.Min.X, y, area.Max.X, y+1), &image.Uniform{th.Grid}, image.Point{}, draw.Src)
		}
	}
	x := area.Min.X + int(view.ToScreen(curve.Pt(marginX, 0)).X)
	draw.Draw(page, image.Rect(x, area.Min.Y, x+1, area.Max.Y), &image.Uniform{th.Margin}, image.Point{}, draw.Src)
}

func drawToolbar(dst *image.RGBA, st paintState) {
	th := st.theme
	draw.Draw(dst, image.Rect(0, 0, toolbarWidth, st.height), &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	title := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ToolbarText), Face: basicfont.Face7x13,
		Dot: fixed.P(4, 16)}
	title.DrawString("Cursive")

	for i, cb := range st.buttons {
		state := StateDefault
		if ab, ok := cb.Button.(*ActionButton); ok && ab.isTool && ab.mode == st.mode {
			state = StatePressed
		} else if i == st.hover {
			state = StateHover
		}
		cb.Draw(dst, th, state)
	}

	colors, sizes := swatchRects(len(st.buttons))
	for i, r := range colors {
		draw.Draw(dst, r, &image.Uniform{palette[i]}, image.Point{}, draw.Src)
		if ink.FormatColor(palette[i]) == st.penColor {
			drawRect(dst, r.Inset(-1), th.ToolbarText)
		}
	}
	pen, err := ink.ParseColor(st.penColor)
	if err != nil {
		pen = th.Ink
	}
	for i, r := range sizes {
		if widths[i] == st.penWidth {
			draw.Draw(dst, r, &image.Uniform{th.ToolActive}, image.Point{}, draw.Src)
		}
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ToolbarText), Face: basicfont.Face7x13, Dot: fixed.P(4, r.Min.Y+12)}
		d.DrawString(fmt.Sprintf("%g", widths[i]))
		h := int(math.Max(1, widths[i]))
		y := r.Min.Y + (swatchSize-h)/2
		draw.Draw(dst, image.Rect(24, y, toolbarWidth-4, y+h), &image.Uniform{pen}, image.Point{}, draw.Src)
	}
}

func drawStatus(dst *image.RGBA, st paintState) {
	th := st.theme
	rect := image.Rect(toolbarWidth, st.height-statusHeight, st.width, st.height)
	draw.Draw(dst, rect, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.StatusText), Face: basicfont.Face7x13,
		Dot: fixed.P(rect.Min.X+4, rect.Min.Y+16)}
	d.DrawString(st.status)
}

func drawDashedLine(img *image.RGBA, x0, y0, x1, y1, dash, thickness int, c1, c2 color.Color) {
	horiz := y0 == y1
	length := x1 - x0
	if !horiz {
		length = y1 - y0
	}
	step := 1
	if length < 0 {
		length, step = -length, -1
	}
	for i := 0; i <= length; i++ {
		col := c1
		if (i/dash)%2 == 1 {
			col = c2
		}
		for t := 0; t < thickness; t++ {
			if horiz {
				img.Set(x0+i*step, y0+t, col)
			} else {
				img.Set(x0+t, y0+i*step, col)
			}
		}
	}
}

func drawDashedRect(img *image.RGBA, rect image.Rectangle, dash, thickness int, c1, c2 color.Color) {
	drawDashedLine(img, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Max.X, rect.Min.Y, rect.Max.X, rect.Max.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Max.X, rect.Max.Y, rect.Min.X, rect.Max.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Min.X, rect.Max.Y, rect.Min.X, rect.Min.Y, dash, thickness, c1, c2)
}

// drawRect outlines rect with a one pixel border.
func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color) {
	u := &image.Uniform{col}
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Max.X-1, rect.Min.Y, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x)*(1-t) + float64(y)*t) }
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}

func withAlpha(c color.RGBA, a uint8) color.RGBA {
	// color.RGBA is premultiplied.
	f := float64(a) / 255
	return color.RGBA{uint8(float64(c.R) * f), uint8(float64(c.G) * f), uint8(float64(c.B) * f), a}
}
