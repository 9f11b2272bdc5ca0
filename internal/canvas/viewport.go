package canvas

import "honnef.co/go/curve"

// Viewport maps canvas-local coordinates to the screen: screen = canvas*Scale + Pan.
type Viewport struct {
	Scale float64 `json:"scale"`
	PanX  float64 `json:"panX"`
	PanY  float64 `json:"panY"`
}

// IdentityViewport has unit scale and no pan.
var IdentityViewport = Viewport{Scale: 1}

// Transform returns the canvas to screen transform.
func (v Viewport) Transform() curve.Affine {
	s := v.Scale
	if s <= 0 {
		s = 1
	}
	return curve.Scale(s, s).ThenTranslate(curve.Vec(v.PanX, v.PanY))
}

// ToCanvas maps a screen-space point (already relative to the canvas
// origin) into canvas-local coordinates.
func (v Viewport) ToCanvas(pt curve.Point) curve.Point {
	return pt.Transform(v.Transform().Invert())
}

// ToScreen maps a canvas-local point to screen space.
func (v Viewport) ToScreen(pt curve.Point) curve.Point {
	return pt.Transform(v.Transform())
}
