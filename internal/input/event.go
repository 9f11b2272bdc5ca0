// Package input turns raw pointer events into canvas edits according to the
// active tool.
package input

import "honnef.co/go/curve"

// EventKind is the phase of a pointer event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerCancel
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerCancel:
		return "cancel"
	}
	return "unknown"
}

// PointerEvent is a pointer sample in page space. Time is in milliseconds
// since the epoch, zero when the source has no clock.
type PointerEvent struct {
	Kind        EventKind
	X, Y        float64
	Pressure    float64
	HasPressure bool
	Time        int64
}

// SelectionBox is a rectangle in canvas-local coordinates with non-negative
// width and height.
type SelectionBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func boxFrom(a, b curve.Point) SelectionBox {
	r := curve.NewRectFromPoints(a, b)
	return SelectionBox{X: r.X0, Y: r.Y0, Width: r.Width(), Height: r.Height()}
}

// Rect returns the box as a curve rectangle.
func (b SelectionBox) Rect() curve.Rect {
	return curve.Rect{X0: b.X, Y0: b.Y, X1: b.X + b.Width, Y1: b.Y + b.Height}
}

// Empty reports whether the box has no area.
func (b SelectionBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}
