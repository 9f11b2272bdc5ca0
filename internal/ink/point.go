// Package ink holds the recorded primitives of a notebook: points, strokes
// and the drawings that group them.
package ink

import (
	"math"

	"honnef.co/go/curve"
)

// DefaultPressure is used when the input device reports no pressure.
const DefaultPressure = 0.5

// Point is a single sampled pen position in canvas-local coordinates.
// T is milliseconds since the epoch, or zero when unknown.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure"`
	T        int64   `json:"t,omitempty"`
}

// NewPoint returns a point with the default pressure.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y, Pressure: DefaultPressure}
}

// NewPressurePoint returns a point with pressure clamped to [0,1].
func NewPressurePoint(x, y, pressure float64) Point {
	return Point{X: x, Y: y, Pressure: ClampPressure(pressure)}
}

// ClampPressure bounds p to [0,1]. NaN maps to DefaultPressure.
func ClampPressure(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return DefaultPressure
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// At returns a copy of p stamped with t.
func (p Point) At(t int64) Point {
	p.T = t
	return p
}

// Pt converts p to a curve point.
func (p Point) Pt() curve.Point {
	return curve.Pt(p.X, p.Y)
}
