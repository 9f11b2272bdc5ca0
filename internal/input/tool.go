package input

import (
	"log"
	"math"

	"honnef.co/go/curve"

	"github.com/example/cursive/internal/canvas"
	"github.com/example/cursive/internal/ink"
)

// Tool is one of the fixed set of tool variants. The unexported methods keep
// the set closed to this package.
type Tool interface {
	Mode() canvas.Mode
	down(c *Controller, at gesturePoint)
	move(c *Controller, at gesturePoint)
	up(c *Controller)
	cancel(c *Controller)
}

// gesturePoint carries a pointer sample in both screen space (relative to
// the canvas origin) and canvas-local space.
type gesturePoint struct {
	screen curve.Point
	canvas curve.Point
	ev     PointerEvent
}

func (g gesturePoint) inkPoint() ink.Point {
	var p ink.Point
	if g.ev.HasPressure {
		p = ink.NewPressurePoint(g.canvas.X, g.canvas.Y, g.ev.Pressure)
	} else {
		p = ink.NewPoint(g.canvas.X, g.canvas.Y)
	}
	return p.At(g.ev.Time)
}

// PenSettings configures the draw tool.
type PenSettings struct {
	Color string
	Width float64
}

// DefaultPen is a thin black pen.
var DefaultPen = PenSettings{Color: ink.DefaultColor, Width: 2}

// PenTool records strokes.
type PenTool struct {
	Settings PenSettings
}

func (*PenTool) Mode() canvas.Mode { return canvas.ModeDraw }

func (t *PenTool) down(c *Controller, at gesturePoint) {
	if _, err := c.state.BeginStroke(t.Settings.Color, t.Settings.Width); err != nil {
		log.Printf("pen: %v", err)
		return
	}
	t.move(c, at)
}

func (t *PenTool) move(c *Controller, at gesturePoint) {
	if err := c.state.AppendPoint(at.inkPoint()); err != nil {
		log.Printf("pen: %v", err)
	}
}

func (t *PenTool) up(c *Controller) {
	if st := c.state.FinishStroke(); st != nil {
		c.committed()
	}
}

func (t *PenTool) cancel(c *Controller) {
	c.state.CancelStroke()
}

// SelectTool drags out a SelectionBox.
type SelectTool struct {
	start curve.Point
	box   *SelectionBox
	last  *SelectionBox
}

func (*SelectTool) Mode() canvas.Mode { return canvas.ModeSelect }

func (t *SelectTool) down(c *Controller, at gesturePoint) {
	t.start = at.canvas
	b := boxFrom(at.canvas, at.canvas)
	t.box = &b
}

func (t *SelectTool) move(c *Controller, at gesturePoint) {
	if t.box == nil {
		return
	}
	*t.box = boxFrom(t.start, at.canvas)
}

func (t *SelectTool) up(c *Controller) {
	if t.box == nil {
		return
	}
	b := *t.box
	t.box = nil
	t.last = &b
	if c.OnSelection != nil {
		c.OnSelection(b)
	}
}

func (t *SelectTool) cancel(c *Controller) {
	t.box = nil
}

// Box returns the box being dragged, if any.
func (t *SelectTool) Box() (SelectionBox, bool) {
	if t.box == nil {
		return SelectionBox{}, false
	}
	return *t.box, true
}

// Last returns the most recently finalized selection.
func (t *SelectTool) Last() (SelectionBox, bool) {
	if t.last == nil {
		return SelectionBox{}, false
	}
	return *t.last, true
}

// PanTool moves the viewport by the pointer delta.
type PanTool struct {
	prev curve.Point
}

func (*PanTool) Mode() canvas.Mode { return canvas.ModePan }

func (t *PanTool) down(c *Controller, at gesturePoint) { t.prev = at.screen }

func (t *PanTool) move(c *Controller, at gesturePoint) {
	d := at.screen.Sub(t.prev)
	t.prev = at.screen
	v := c.state.Viewport()
	v.PanX += d.X
	v.PanY += d.Y
	if err := c.state.SetViewport(v); err != nil {
		log.Printf("pan: %v", err)
	}
}

func (*PanTool) up(c *Controller)     {}
func (*PanTool) cancel(c *Controller) {}

// ZoomSettings bounds the viewport scale. Step is the fractional change per
// increment.
type ZoomSettings struct {
	Min  float64
	Max  float64
	Step float64
}

// DefaultZoom allows 0.1x to 10x in 10% steps.
var DefaultZoom = ZoomSettings{Min: 0.1, Max: 10, Step: 0.1}

// Clamp bounds scale to the configured range.
func (z ZoomSettings) Clamp(scale float64) float64 {
	return math.Max(z.Min, math.Min(z.Max, scale))
}

// ZoomTool scales the viewport. Dragging up zooms in; every 100 pixels of
// vertical travel is one Step.
type ZoomTool struct {
	Settings ZoomSettings
	anchor   curve.Point
	prev     curve.Point
}

func (*ZoomTool) Mode() canvas.Mode { return canvas.ModeZoom }

func (t *ZoomTool) down(c *Controller, at gesturePoint) {
	t.anchor = at.screen
	t.prev = at.screen
}

func (t *ZoomTool) move(c *Controller, at gesturePoint) {
	dy := at.screen.Y - t.prev.Y
	t.prev = at.screen
	t.zoom(c, -dy/100, t.anchor)
}

func (*ZoomTool) up(c *Controller)     {}
func (*ZoomTool) cancel(c *Controller) {}

// zoom scales by (1+Step)^steps keeping the canvas point under anchor fixed.
func (t *ZoomTool) zoom(c *Controller, steps float64, anchor curve.Point) {
	v := c.state.Viewport()
	scale := t.Settings.Clamp(v.Scale * math.Pow(1+t.Settings.Step, steps))
	if scale == v.Scale {
		return
	}
	fixed := v.ToCanvas(anchor)
	v.Scale = scale
	v.PanX = anchor.X - fixed.X*scale
	v.PanY = anchor.Y - fixed.Y*scale
	if err := c.state.SetViewport(v); err != nil {
		log.Printf("zoom: %v", err)
	}
}

// EraseSettings configures the eraser. Tolerance is in screen pixels.
type EraseSettings struct {
	Tolerance float64
}

// DefaultErase removes strokes within 8 pixels.
var DefaultErase = EraseSettings{Tolerance: 8}

// EraseTool removes strokes of the active drawing near the pointer. One
// gesture is one undo entry.
type EraseTool struct {
	Settings EraseSettings
}

func (*EraseTool) Mode() canvas.Mode { return canvas.ModeErase }

func (t *EraseTool) down(c *Controller, at gesturePoint) {
	c.state.BeginErase()
	t.move(c, at)
}

func (t *EraseTool) move(c *Controller, at gesturePoint) {
	tol := t.Settings.Tolerance / c.state.Viewport().Scale
	c.state.EraseAt(at.canvas, tol)
}

func (t *EraseTool) up(c *Controller) {
	if c.state.EndErase() {
		c.committed()
	}
}

func (t *EraseTool) cancel(c *Controller) { t.up(c) }

// Registry maps each mode to its tool.
type Registry map[canvas.Mode]Tool

// NewRegistry returns a registry with every built-in tool.
func NewRegistry(pen PenSettings, zoom ZoomSettings, erase EraseSettings) Registry {
	r := Registry{}
	r.Register(&PenTool{Settings: pen})
	r.Register(&SelectTool{})
	r.Register(&PanTool{})
	r.Register(&ZoomTool{Settings: zoom})
	r.Register(&EraseTool{Settings: erase})
	return r
}

// Register installs t for its mode, replacing any previous tool.
func (r Registry) Register(t Tool) { r[t.Mode()] = t }

// Pen returns the registered draw tool, or nil.
func (r Registry) Pen() *PenTool {
	t, _ := r[canvas.ModeDraw].(*PenTool)
	return t
}

// Select returns the registered select tool, or nil.
func (r Registry) Select() *SelectTool {
	t, _ := r[canvas.ModeSelect].(*SelectTool)
	return t
}

// Zoom returns the registered zoom tool, or nil.
func (r Registry) Zoom() *ZoomTool {
	t, _ := r[canvas.ModeZoom].(*ZoomTool)
	return t
}
