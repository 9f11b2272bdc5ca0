package input

import (
	"log"

	"honnef.co/go/curve"

	"github.com/example/cursive/internal/canvas"
)

// Controller feeds pointer events to the tool of the current mode.
type Controller struct {
	state  *canvas.State
	tools  Registry
	origin curve.Point
	down   bool

	// OnSelection receives every finalized selection box.
	OnSelection func(SelectionBox)
	// OnCommit runs after each undo-tracked edit.
	OnCommit func()
}

// NewController drives state with the tools in reg. A nil registry gets the
// built-in tools with default settings.
func NewController(state *canvas.State, reg Registry) *Controller {
	if reg == nil {
		reg = NewRegistry(DefaultPen, DefaultZoom, DefaultErase)
	}
	return &Controller{state: state, tools: reg}
}

// State returns the canvas being edited.
func (c *Controller) State() *canvas.State { return c.state }

// Tools returns the tool registry.
func (c *Controller) Tools() Registry { return c.tools }

// SetOrigin sets the page-space position of the canvas's top-left corner.
func (c *Controller) SetOrigin(x, y float64) { c.origin = curve.Pt(x, y) }

// Active reports whether a pointer gesture is in progress.
func (c *Controller) Active() bool { return c.down }

// locate is the only place page coordinates are converted. Everything past
// this point sees canvas-local coordinates.
func (c *Controller) locate(ev PointerEvent) gesturePoint {
	screen := curve.Pt(ev.X-c.origin.X, ev.Y-c.origin.Y)
	return gesturePoint{
		screen: screen,
		canvas: c.state.Viewport().ToCanvas(screen),
		ev:     ev,
	}
}

func (c *Controller) tool() Tool {
	t, ok := c.tools[c.state.Mode()]
	if !ok {
		log.Printf("input: no tool registered for mode %s", c.state.Mode())
		return nil
	}
	return t
}

// Handle processes one pointer event. Up, move and cancel events without a
// preceding down are ignored.
func (c *Controller) Handle(ev PointerEvent) {
	t := c.tool()
	if t == nil {
		return
	}
	switch ev.Kind {
	case PointerDown:
		if c.down {
			t.cancel(c)
		}
		c.down = true
		t.down(c, c.locate(ev))
	case PointerMove:
		if c.down {
			t.move(c, c.locate(ev))
		}
	case PointerUp:
		if c.down {
			c.down = false
			t.up(c)
		}
	case PointerCancel:
		if c.down {
			c.down = false
			t.cancel(c)
		}
	}
}

// SetMode switches tools. A gesture in progress is ended first: strokes and
// erasures are kept, a half-drawn selection is dropped.
func (c *Controller) SetMode(m canvas.Mode) {
	if m == c.state.Mode() {
		return
	}
	if c.down {
		if t := c.tool(); t != nil {
			if t.Mode() == canvas.ModeSelect {
				t.cancel(c)
			} else {
				t.up(c)
			}
		}
		c.down = false
	}
	c.state.SetMode(m)
}

// ZoomBy applies whole zoom steps around a page-space anchor. Negative steps
// zoom out.
func (c *Controller) ZoomBy(steps int, x, y float64) {
	z := c.tools.Zoom()
	if z == nil {
		return
	}
	z.zoom(c, float64(steps), c.locate(PointerEvent{X: x, Y: y}).screen)
}

// Undo reverts the last edit, abandoning any gesture in progress.
func (c *Controller) Undo() bool {
	c.abandon()
	return c.state.Undo()
}

// Redo re-applies the last undone edit.
func (c *Controller) Redo() bool {
	c.abandon()
	return c.state.Redo()
}

func (c *Controller) abandon() {
	if !c.down {
		return
	}
	c.down = false
	if t := c.tool(); t != nil {
		t.cancel(c)
	}
}

func (c *Controller) committed() {
	if c.OnCommit != nil {
		c.OnCommit()
	}
}
